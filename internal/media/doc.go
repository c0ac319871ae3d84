// Package media defines the track model shared across the pipeline.
//
// A TrackRef identifies one stream inside a source file. VideoTrack,
// AudioTrack and SubtitleTrack extend the shared header with kind-specific
// fields and together form the tagged Track variant. Container is an
// ordered collection of tracks handed to the muxer; insertion order is
// significant because it drives stream-map selection.
//
// ParseReport turns the textual stream report produced by the external
// transcoder into typed tracks. Parsing is pure: the same report text and
// source path always yield the same tracks.
package media
