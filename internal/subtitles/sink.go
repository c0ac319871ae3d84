package subtitles

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the subtitle file suffix every sink normalizes to.
const Extension = ".srt"

// Sink owns one subtitle output file and writes SRT cues incrementally.
// Sequence numbers form a contiguous run starting at 1, one per Send.
// A sink is single-writer: exactly one stage may hold it and it must not
// be shared across concurrent callers.
type Sink struct {
	path    string
	file    *os.File
	counter int
	closed  bool
}

// NewSink creates the subtitle file for writing. The path's extension is
// normalized to .srt.
func NewSink(path string) (*Sink, error) {
	path = normalizePath(path)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create subtitle file: %w", err)
	}
	return &Sink{path: path, file: file, counter: 1}, nil
}

func normalizePath(path string) string {
	if strings.EqualFold(filepath.Ext(path), Extension) {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + Extension
}

// Send appends one cue: sequence number, timestamp range, text, blank
// separator. The file is synced after every write so partial output
// survives an aborted run.
func (s *Sink) Send(line Line) error {
	if s.closed {
		return fmt.Errorf("subtitle sink %s: send after close", s.path)
	}
	block := fmt.Sprintf("%d\n%s --> %s\n%s\n\n",
		s.counter,
		FormatTimestamp(line.Start),
		FormatTimestamp(line.End),
		line.Text,
	)
	if _, err := s.file.WriteString(block); err != nil {
		return fmt.Errorf("write subtitle cue %d: %w", s.counter, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("flush subtitle cue %d: %w", s.counter, err)
	}
	s.counter++
	return nil
}

// Close finalizes the file. Calling Close again is a no-op.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close subtitle file: %w", err)
	}
	return nil
}

// Path returns the normalized file path the sink writes to.
func (s *Sink) Path() string {
	return s.path
}

// Count reports how many cues have been written so far.
func (s *Sink) Count() int {
	return s.counter - 1
}
