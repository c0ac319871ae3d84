package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks a failed invocation of the external transcoder
	// or of a speech command: non-zero exit, unusable output, missing binary.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks input that fails a precondition check, such as a
	// path that does not exist or is not a regular file.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedLanguage marks a language code with no direct or
	// transit translation route.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Wrap builds an error message that includes stage context while tagging
// it with the provided marker for later classification with errors.Is.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
