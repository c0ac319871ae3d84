// Package ffmpeg wraps the external transcoder behind the small set of
// invocation contracts the pipeline needs: version gate, probe, audio
// extraction, transcode to the working format, fragment extraction,
// concatenation, audio replacement and the final mux.
//
// Every transforming invocation validates the tool's exit status and
// fails with services.ErrExternalTool on non-zero exit. The one exception
// is the bare stream-report probe, which exits non-zero by design; its
// report is captured and parsed regardless.
package ffmpeg
