// Package logging constructs the slog logger used across the pipeline.
// Console output is a compact key=value line per record; JSON output is
// the standard slog JSON handler with normalized keys. The default
// format follows the terminal: console on a TTY, JSON otherwise.
package logging
