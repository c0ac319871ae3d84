package translate

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes an external translation program and returns its
// stdout.
type CommandRunner func(name string, args ...string) (string, error)

func defaultCommandRunner(name string, args ...string) (string, error) {
	output, err := exec.Command(name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(output), nil
}

// CommandCapability adapts one installed translation program to the
// Capability interface. The program receives the text as its final
// argument and prints the translation on stdout.
type CommandCapability struct {
	command []string
	runner  CommandRunner
}

// NewCommandCapability builds a capability around the given program name
// and fixed arguments.
func NewCommandCapability(command []string) *CommandCapability {
	return &CommandCapability{command: command, runner: defaultCommandRunner}
}

// WithRunner swaps the command runner (for testing).
func (c *CommandCapability) WithRunner(runner CommandRunner) *CommandCapability {
	c.runner = runner
	return c
}

// Translate runs the program for one text.
func (c *CommandCapability) Translate(text string) (string, error) {
	if len(c.command) == 0 {
		return "", errors.New("translation command not configured")
	}
	args := append(append([]string(nil), c.command[1:]...), text)
	output, err := c.runner(c.command[0], args...)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(output, "\n"), nil
}
