package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"dubber/internal/media"
	"dubber/internal/services"
)

// DefaultBinary is the command resolved from PATH when no explicit
// binary is configured.
const DefaultBinary = "ffmpeg"

// Runner executes the external binary and returns its combined output.
// The error reflects a non-zero exit or a failure to start.
type Runner func(ctx context.Context, binary string, args ...string) (string, error)

// Tool invokes the external transcoder.
type Tool struct {
	binary string
	runner Runner
}

// New returns a tool bound to the given binary. Call Verify before the
// first real invocation to gate on the tool's version banner.
func New(binary string) *Tool {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Tool{binary: binary, runner: execRunner}
}

// WithRunner swaps the command runner (for testing).
func (t *Tool) WithRunner(runner Runner) *Tool {
	t.runner = runner
	return t
}

// Binary returns the configured binary.
func (t *Tool) Binary() string {
	return t.binary
}

func execRunner(ctx context.Context, binary string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// Verify resolves the binary and checks its version banner: the product
// name, the developer attribution, and the presence of the two container
// and codec library components. Initialization fails on any mismatch.
func (t *Tool) Verify(ctx context.Context) error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return services.Wrap(services.ErrNotFound, "ffmpeg", "verify", fmt.Sprintf("binary %q not found", t.binary), nil)
	}
	output, err := t.runner(ctx, t.binary, "-version")
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "verify", "version check failed", err)
	}
	firstLine, _, _ := strings.Cut(output, "\n")
	switch {
	case !strings.HasPrefix(firstLine, "ffmpeg"),
		!strings.Contains(firstLine, "the FFmpeg developers"):
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "verify", "unrecognized version banner", nil)
	case !strings.Contains(output, "libavformat"):
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "verify", "libavformat not reported", nil)
	case !strings.Contains(output, "libavcodec"):
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "verify", "libavcodec not reported", nil)
	}
	return nil
}

// run executes one transforming invocation and validates its exit status.
func (t *Tool) run(ctx context.Context, operation string, args ...string) error {
	output, err := t.runner(ctx, t.binary, args...)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", operation, strings.TrimSpace(tail(output, 400)), err)
	}
	return nil
}

// tail keeps the last n bytes of tool output for error context.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func checkPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrValidation, "ffmpeg", "", fmt.Sprintf("path %q does not exist", path), nil)
		}
		return services.Wrap(services.ErrValidation, "ffmpeg", "", fmt.Sprintf("stat %q", path), err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "ffmpeg", "", fmt.Sprintf("path %q is not a file", path), nil)
	}
	return nil
}

// Probe runs the informational stream report against path and parses it
// into typed tracks. The bare report invocation always exits non-zero,
// so its exit status is ignored; the parsed report is authoritative.
func (t *Tool) Probe(ctx context.Context, path string) (media.ProbeResult, error) {
	if err := checkPath(path); err != nil {
		return media.ProbeResult{}, err
	}
	report, runErr := t.runner(ctx, t.binary, "-i", path)
	result, err := media.ParseReport(report, path)
	if err != nil {
		return media.ProbeResult{}, err
	}
	if len(result.Videos)+len(result.Audios)+len(result.Subtitles) == 0 && runErr != nil {
		return media.ProbeResult{}, services.Wrap(services.ErrExternalTool, "ffmpeg", "probe", path, runErr)
	}
	return result, nil
}

// ExtractAudio stream-copies the first audio stream of a video file into
// dest and re-probes the result.
func (t *Tool) ExtractAudio(ctx context.Context, videoPath, dest string) (media.AudioTrack, error) {
	if err := checkPath(videoPath); err != nil {
		return media.AudioTrack{}, err
	}
	if err := t.run(ctx, "extract audio", "-i", videoPath, "-vn", "-acodec", "copy", dest); err != nil {
		return media.AudioTrack{}, err
	}
	return t.firstAudio(ctx, dest)
}

// TranscodeToWAV converts an audio file to 16-bit PCM WAV, the working
// format recognition and fragment extraction operate on.
func (t *Tool) TranscodeToWAV(ctx context.Context, audioPath, dest string) (media.AudioTrack, error) {
	if err := checkPath(audioPath); err != nil {
		return media.AudioTrack{}, err
	}
	if err := t.run(ctx, "transcode to wav", "-i", audioPath, "-acodec", "pcm_s16le", dest); err != nil {
		return media.AudioTrack{}, err
	}
	return t.firstAudio(ctx, dest)
}

// ExtractFragment copies the waveform spanning [start, end] seconds out
// of an audio file.
func (t *Tool) ExtractFragment(ctx context.Context, audioPath string, start, end float64, dest string) error {
	if err := checkPath(audioPath); err != nil {
		return err
	}
	return t.run(ctx, "extract fragment",
		"-i", audioPath,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end-start),
		dest,
	)
}

// ConcatAudio joins the given audio files, in order, into one continuous
// file using the tool's concat list format.
func (t *Tool) ConcatAudio(ctx context.Context, parts []string, dest string) error {
	if len(parts) == 0 {
		return services.Wrap(services.ErrValidation, "ffmpeg", "concat", "no segments to join", nil)
	}
	var list strings.Builder
	for _, part := range parts {
		if err := checkPath(part); err != nil {
			return err
		}
		fmt.Fprintf(&list, "file '%s'\n", part)
	}
	listPath := dest + ".concat"
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return t.run(ctx, "concat audio", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", dest)
}

// ReplaceAudio writes a copy of the video file with its audio stream
// replaced by the given audio file.
func (t *Tool) ReplaceAudio(ctx context.Context, videoPath, audioPath, dest string) error {
	if err := checkPath(videoPath); err != nil {
		return err
	}
	if err := checkPath(audioPath); err != nil {
		return err
	}
	return t.run(ctx, "replace audio",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-map", "0:v:0",
		"-map", "1:a:0",
		dest,
	)
}

func (t *Tool) firstAudio(ctx context.Context, path string) (media.AudioTrack, error) {
	result, err := t.Probe(ctx, path)
	if err != nil {
		return media.AudioTrack{}, err
	}
	if len(result.Audios) == 0 {
		return media.AudioTrack{}, services.Wrap(services.ErrExternalTool, "ffmpeg", "probe", fmt.Sprintf("no audio stream in %q", path), nil)
	}
	return result.Audios[0], nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
