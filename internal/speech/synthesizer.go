package speech

import (
	"context"
	"strconv"

	"dubber/internal/services"
)

// Request describes one line to synthesize. The program writes the spoken
// line to SpeechPath and a trailing silence of SilenceSeconds to
// SilencePath, cloning the voice of the reference fragment.
type Request struct {
	Text           string
	Language       string
	ReferencePath  string
	SilenceSeconds float64
	SpeechPath     string
	SilencePath    string
}

// Synthesizer produces foreign-language speech for translated lines.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) error
	Languages() []string
}

// CommandSynthesizer shells out to a configured synthesis program.
type CommandSynthesizer struct {
	languages []string
	command   []string
	runner    Runner
}

// NewCommandSynthesizer builds a synthesizer advertising the given
// language codes. command holds the program name followed by its fixed
// arguments.
func NewCommandSynthesizer(languages []string, command []string) *CommandSynthesizer {
	return &CommandSynthesizer{languages: languages, command: command, runner: execRunner}
}

// WithRunner swaps the command runner (for testing).
func (s *CommandSynthesizer) WithRunner(runner Runner) *CommandSynthesizer {
	s.runner = runner
	return s
}

// Languages reports the codes the synthesis program can voice.
func (s *CommandSynthesizer) Languages() []string {
	out := make([]string, len(s.languages))
	copy(out, s.languages)
	return out
}

// Synthesize runs the external program for one line.
func (s *CommandSynthesizer) Synthesize(ctx context.Context, req Request) error {
	if len(s.command) == 0 {
		return services.Wrap(services.ErrValidation, "synthesize", "", "synthesizer command not configured", nil)
	}
	args := append(append([]string(nil), s.command[1:]...),
		"--language", req.Language,
		"--text", req.Text,
		"--reference", req.ReferencePath,
		"--silence", strconv.FormatFloat(req.SilenceSeconds, 'f', -1, 64),
		"--speech-out", req.SpeechPath,
		"--silence-out", req.SilencePath,
	)
	if _, err := s.runner(ctx, s.command[0], args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "synthesize", s.command[0], req.Language, err)
	}
	return nil
}
