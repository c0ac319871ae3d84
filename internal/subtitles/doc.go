// Package subtitles provides the timed Line type, SRT timestamp
// conversion, and Sink, an incremental writer that owns one SRT file.
package subtitles
