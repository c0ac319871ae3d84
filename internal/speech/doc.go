// Package speech defines the narrow interfaces the pipeline consumes for
// speech recognition and synthesis, plus command-backed implementations
// that shell out to configured external programs. The model logic behind
// those programs is a black box to this repo.
package speech
