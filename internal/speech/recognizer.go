package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"dubber/internal/services"
	"dubber/internal/subtitles"
)

// Runner executes an external speech command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(output), nil
}

// Recognizer turns a source-language audio file into an ordered stream of
// timed lines. Implementations must emit lines with monotonically
// non-decreasing start times, each tagged with the source language.
type Recognizer interface {
	Recognize(ctx context.Context, audioPath string, emit func(subtitles.Line) error) error
	Language() string
}

// segment mirrors the JSON the recognizer command prints to stdout.
type segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type recognizerPayload struct {
	Segments []segment `json:"segments"`
}

// CommandRecognizer shells out to a configured recognition program. The
// program receives the audio path as its final argument and prints a JSON
// document with a "segments" array on stdout.
type CommandRecognizer struct {
	language string
	command  []string
	runner   Runner
}

// NewCommandRecognizer builds a recognizer for the given source language.
// command holds the program name followed by its fixed arguments.
func NewCommandRecognizer(language string, command []string) *CommandRecognizer {
	return &CommandRecognizer{language: language, command: command, runner: execRunner}
}

// WithRunner swaps the command runner (for testing).
func (r *CommandRecognizer) WithRunner(runner Runner) *CommandRecognizer {
	r.runner = runner
	return r
}

// Language reports the source language this recognizer is configured for.
func (r *CommandRecognizer) Language() string {
	return r.language
}

// Recognize runs the external program against audioPath and emits one
// line per returned segment, in order.
func (r *CommandRecognizer) Recognize(ctx context.Context, audioPath string, emit func(subtitles.Line) error) error {
	if len(r.command) == 0 {
		return services.Wrap(services.ErrValidation, "recognize", "", "recognizer command not configured", nil)
	}
	args := append(append([]string(nil), r.command[1:]...), audioPath)
	output, err := r.runner(ctx, r.command[0], args...)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "recognize", r.command[0], "", err)
	}
	var payload recognizerPayload
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		return services.Wrap(services.ErrExternalTool, "recognize", r.command[0], "parse segments", err)
	}
	previous := 0.0
	for _, seg := range payload.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if seg.End < seg.Start || seg.Start < previous {
			return services.Wrap(services.ErrExternalTool, "recognize", r.command[0],
				fmt.Sprintf("segment out of order: start=%v end=%v", seg.Start, seg.End), nil)
		}
		previous = seg.Start
		if err := emit(subtitles.Line{Start: seg.Start, End: seg.End, Text: text, Lang: r.language}); err != nil {
			return err
		}
	}
	return nil
}
