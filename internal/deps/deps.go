// Package deps reports the availability of the external programs the
// pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"dubber/internal/config"
)

// Requirement is one external program a run depends on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the availability report for one requirement.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// Gather derives the requirement list from the configuration: the
// transcoder, the speech programs, and every translation pair command.
func Gather(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "ffmpeg",
			Command:     cfg.FFmpeg.Binary,
			Description: "probing, extraction, and muxing",
		},
		{
			Name:        "recognizer",
			Command:     first(cfg.Speech.RecognizerCommand),
			Description: "speech recognition",
		},
		{
			Name:        "synthesizer",
			Command:     first(cfg.Speech.SynthesizerCommand),
			Description: "speech synthesis",
		},
	}
	for _, pair := range cfg.Translation.Pairs {
		reqs = append(reqs, Requirement{
			Name:        fmt.Sprintf("translate %s-%s", pair.From, pair.To),
			Command:     first(pair.Command),
			Description: "text translation",
			Optional:    true,
		})
	}
	return reqs
}

// Check resolves each requirement's command on PATH.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		switch {
		case req.Command == "":
			status.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(req.Command); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// AllRequired reports whether every non-optional requirement is available.
func AllRequired(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Optional && !s.Available {
			return false
		}
	}
	return true
}

func first(command []string) string {
	if len(command) == 0 {
		return ""
	}
	return command[0]
}
