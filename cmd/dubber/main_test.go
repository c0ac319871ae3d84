package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitErrorCarriesCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", exitWith(exitSourceMissing, errors.New("missing")))
	var coded *exitError
	if !errors.As(err, &coded) {
		t.Fatal("exitError not found in chain")
	}
	if coded.code != exitSourceMissing {
		t.Fatalf("code = %d", coded.code)
	}
}

func TestExitErrorWithoutMessage(t *testing.T) {
	err := exitWith(exitAvailabilityListed, nil)
	var coded *exitError
	if !errors.As(err, &coded) || coded.err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"convert", "inspect", "history", "deps", "config"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered: %v", name, err)
		}
	}
}
