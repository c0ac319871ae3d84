// Package pipeline coordinates the three-stage dubbing engine:
// Recognition, Translate-and-Slice, and Synthesize-and-Subtitle.
//
// The stages run as goroutines connected by FIFO channels, each with
// exactly one producer and one consumer, so batch i's translated lines
// are always paired with audio fragment i and subtitle cues are written
// in non-decreasing time order. Closing a channel is the end-of-stream
// sentinel: a consumer loop terminates the moment its input closes and
// then performs its one-time finalize step.
//
// Synthesis runs with a one-batch delay: the silence gap that follows a
// line is only known once the next line's start time arrives, so batch i
// triggers synthesis of batch i-1. The trailing batch is flushed after
// the loop with a configurable trailing silence; the flush can be
// disabled to reproduce the historical drop-the-last-line behavior.
//
// There is no mid-run cancellation and no retry: every failure is
// terminal to the run. The per-run scratch workspace is created on entry
// and removed on every exit path.
package pipeline
