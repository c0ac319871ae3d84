// Command dubber converts a video with speech in one language into the
// same video dubbed and subtitled in others, orchestrating external
// recognition, translation, synthesis and transcoding programs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Exit codes of the convert command. Anything not covered by the
// contract exits with exitFailure.
const (
	exitOK                  = 0
	exitUnsupportedSubtitle = 1
	exitUnsupportedAudio    = 2
	exitAvailabilityListed  = 3
	exitSourceMissing       = 4
	exitToolMissing         = 5
	exitFailure             = 6
)

// exitError carries an explicit process exit code. A nil wrapped error
// means the command already produced its output and nothing should be
// printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit code %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		code := exitFailure
		var coded *exitError
		if errors.As(err, &coded) {
			code = coded.code
			err = coded.err
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "dubber:", err)
		}
		os.Exit(code)
	}
}
