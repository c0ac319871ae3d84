// Package language normalizes language identifiers from configuration,
// command lines, and stream metadata to ISO 639-1 codes.
package language
