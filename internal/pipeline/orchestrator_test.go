package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"dubber/internal/media"
	"dubber/internal/services"
	"dubber/internal/speech"
	"dubber/internal/subtitles"
	"dubber/internal/translate"
)

// fakeTranscoder satisfies Transcoder without touching ffmpeg. It creates
// real scratch files so the workspace cleanup paths stay honest.
type fakeTranscoder struct {
	mu        sync.Mutex
	fragments []string
	concats   [][]string
	muxDest   string
	muxTracks []media.Track
}

func (f *fakeTranscoder) Probe(_ context.Context, path string) (media.ProbeResult, error) {
	switch {
	case strings.HasSuffix(path, ".wav"):
		return media.ProbeResult{Audios: []media.AudioTrack{{
			TrackRef:   media.TrackRef{Index: 0, Codec: "pcm_s16le", Source: path},
			SampleRate: 44100,
		}}}, nil
	case strings.HasSuffix(path, ".aac"):
		return media.ProbeResult{Audios: []media.AudioTrack{{
			TrackRef:   media.TrackRef{Index: 0, Codec: "aac", Source: path},
			SampleRate: 48000, BitRate: 128,
		}}}, nil
	default:
		return media.ProbeResult{
			Videos: []media.VideoTrack{{
				TrackRef: media.TrackRef{Index: 0, Codec: "h264", Source: path},
				Width:    1920, Height: 1080, FPS: 30, BitRate: 5000,
			}},
			Audios: []media.AudioTrack{{
				TrackRef:   media.TrackRef{Index: 1, Codec: "aac", Language: "rus", Source: path},
				SampleRate: 48000, BitRate: 128,
			}},
		}, nil
	}
}

func touch(path string) error {
	return os.WriteFile(path, []byte("x"), 0o644)
}

func (f *fakeTranscoder) ExtractAudio(_ context.Context, _ string, dest string) (media.AudioTrack, error) {
	if err := touch(dest); err != nil {
		return media.AudioTrack{}, err
	}
	return media.AudioTrack{TrackRef: media.TrackRef{Codec: "aac", Source: dest}, SampleRate: 48000}, nil
}

func (f *fakeTranscoder) TranscodeToWAV(_ context.Context, _ string, dest string) (media.AudioTrack, error) {
	if err := touch(dest); err != nil {
		return media.AudioTrack{}, err
	}
	return media.AudioTrack{TrackRef: media.TrackRef{Codec: "pcm_s16le", Source: dest}, SampleRate: 44100}, nil
}

func (f *fakeTranscoder) ExtractFragment(_ context.Context, _ string, start, end float64, dest string) error {
	f.mu.Lock()
	f.fragments = append(f.fragments, dest)
	f.mu.Unlock()
	return touch(dest)
}

func (f *fakeTranscoder) ConcatAudio(_ context.Context, parts []string, dest string) error {
	f.mu.Lock()
	f.concats = append(f.concats, append([]string(nil), parts...))
	f.mu.Unlock()
	return touch(dest)
}

func (f *fakeTranscoder) Mux(_ context.Context, dest string, container *media.Container, _ bool) error {
	f.muxDest = dest
	f.muxTracks = container.Tracks()
	return touch(dest)
}

// fakeRecognizer replays canned lines.
type fakeRecognizer struct {
	lang  string
	lines []subtitles.Line
}

func (r *fakeRecognizer) Language() string { return r.lang }

func (r *fakeRecognizer) Recognize(_ context.Context, _ string, emit func(subtitles.Line) error) error {
	for _, line := range r.lines {
		if err := emit(line); err != nil {
			return err
		}
	}
	return nil
}

// fakeSynthesizer records requests in call order.
type fakeSynthesizer struct {
	mu       sync.Mutex
	requests []speech.Request
}

func (s *fakeSynthesizer) Languages() []string { return []string{"en"} }

func (s *fakeSynthesizer) Synthesize(_ context.Context, req speech.Request) error {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if err := touch(req.SpeechPath); err != nil {
		return err
	}
	return touch(req.SilencePath)
}

type echoCapability struct{ code string }

func (c echoCapability) Translate(text string) (string, error) {
	return "[" + c.code + "]" + text, nil
}

func testTranslator() *translate.Service {
	return translate.NewService("ru", map[translate.Pair]translate.Capability{
		{From: "ru", To: "en"}: echoCapability{code: "en"},
		{From: "en", To: "fr"}: echoCapability{code: "fr"},
	})
}

var testLines = []subtitles.Line{
	{Start: 20, End: 30, Text: "один", Lang: "ru"},
	{Start: 33, End: 40, Text: "два", Lang: "ru"},
	{Start: 44, End: 50, Text: "три", Lang: "ru"},
}

func newTestRun(t *testing.T) (*Orchestrator, *fakeTranscoder, *fakeSynthesizer, Options) {
	t.Helper()
	tool := &fakeTranscoder{}
	synth := &fakeSynthesizer{}
	orchestrator := New(
		tool,
		testTranslator(),
		&fakeRecognizer{lang: "ru", lines: testLines},
		synth,
		nil,
	)
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mkv")
	if err := touch(source); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	opts := Options{
		Source:          source,
		Target:          filepath.Join(dir, "out.mkv"),
		AudioCodes:      []string{"en"},
		SubtitleCodes:   []string{"en", "ru"},
		WorkDir:         filepath.Join(dir, "work"),
		TrailingSilence: 1.5,
	}
	return orchestrator, tool, synth, opts
}

func TestRunSynthesizesAllLinesWithFinalFlush(t *testing.T) {
	orchestrator, tool, synth, opts := newTestRun(t)
	result, err := orchestrator.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Lines != 3 {
		t.Fatalf("expected 3 lines, got %d", result.Lines)
	}
	if len(synth.requests) != 3 {
		t.Fatalf("expected 3 synthesized lines, got %d", len(synth.requests))
	}

	// Gaps: one-batch delay derives each from the next line's start, the
	// trailing line takes the configured silence.
	wantGaps := []float64{3, 4, 1.5}
	for i, req := range synth.requests {
		if req.SilenceSeconds != wantGaps[i] {
			t.Errorf("request %d: silence %v, want %v", i, req.SilenceSeconds, wantGaps[i])
		}
		if req.Language != "en" {
			t.Errorf("request %d: language %q", i, req.Language)
		}
	}

	// Batch i always pairs with fragment i.
	if len(tool.fragments) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(tool.fragments))
	}
	for i, req := range synth.requests {
		if req.ReferencePath != tool.fragments[i] {
			t.Errorf("request %d: reference %q, want fragment %q", i, req.ReferencePath, tool.fragments[i])
		}
	}

	// Spoken line then trailing silence, in production order.
	if len(tool.concats) != 1 {
		t.Fatalf("expected one concat, got %d", len(tool.concats))
	}
	parts := tool.concats[0]
	if len(parts) != 6 {
		t.Fatalf("expected 6 ordered segments, got %d", len(parts))
	}
	for i, req := range synth.requests {
		if parts[2*i] != req.SpeechPath || parts[2*i+1] != req.SilencePath {
			t.Fatalf("segment order broken at request %d", i)
		}
	}
}

func TestRunLegacyTrailingDrop(t *testing.T) {
	orchestrator, _, synth, opts := newTestRun(t)
	opts.DisableFinalFlush = true
	if _, err := orchestrator.Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(synth.requests) != 2 {
		t.Fatalf("expected 2 synthesized lines without the final flush, got %d", len(synth.requests))
	}
}

func TestRunWritesSubtitleTracks(t *testing.T) {
	orchestrator, tool, _, opts := newTestRun(t)
	result, err := orchestrator.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Subtitles) != 2 {
		t.Fatalf("expected source + english subtitle tracks, got %d", len(result.Subtitles))
	}
	if result.Subtitles[0].Language != "ru" || result.Subtitles[1].Language != "en" {
		t.Fatalf("unexpected subtitle order: %+v", result.Subtitles)
	}

	// Subtitle files were removed with the workspace, but their content
	// was observed through the mux container track list.
	wantKinds := []string{"video", "audio", "audio", "subtitle", "subtitle"}
	if len(tool.muxTracks) != len(wantKinds) {
		t.Fatalf("expected %d muxed tracks, got %d", len(wantKinds), len(tool.muxTracks))
	}
	for i, kind := range wantKinds {
		if media.Kind(tool.muxTracks[i]) != kind {
			t.Fatalf("track %d: kind %q, want %q", i, media.Kind(tool.muxTracks[i]), kind)
		}
	}
	dubbed := tool.muxTracks[2].Ref()
	if dubbed.Language != "en" {
		t.Fatalf("dubbed track language %q, want en", dubbed.Language)
	}
}

func TestRunCleansWorkspace(t *testing.T) {
	orchestrator, _, _, opts := newTestRun(t)
	if _, err := orchestrator.Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries, err := os.ReadDir(opts.WorkDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace not removed: %d entries remain", len(entries))
	}
}

func TestRunFailsOnUnsupportedLanguage(t *testing.T) {
	orchestrator, tool, _, opts := newTestRun(t)
	opts.AudioCodes = []string{"ja"}
	opts.SubtitleCodes = nil
	_, err := orchestrator.Run(context.Background(), opts)
	if !errors.Is(err, services.ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
	if tool.muxDest != "" {
		t.Fatal("mux must not run after a stage failure")
	}
	entries, readErr := os.ReadDir(opts.WorkDir)
	if readErr != nil {
		t.Fatalf("read work dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatal("workspace must be removed on error exits")
	}
}

func TestRunRejectsMismatchedSourceLanguage(t *testing.T) {
	tool := &fakeTranscoder{}
	orchestrator := New(tool, testTranslator(), &fakeRecognizer{lang: "de"}, &fakeSynthesizer{}, nil)
	_, err := orchestrator.Run(context.Background(), Options{Source: "in.mkv", Target: "out.mkv"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPlanExcludesSourceAndDeduplicates(t *testing.T) {
	plan := newPlan("ru", []string{"en", "en", "ru"}, []string{"fr", "ru", "en"})
	if !plan.sourceSubtitles {
		t.Fatal("source subtitles not detected")
	}
	if fmt.Sprint(plan.audioCodes) != "[en]" {
		t.Fatalf("audio codes %v", plan.audioCodes)
	}
	if fmt.Sprint(plan.subtitleCodes) != "[en fr]" {
		t.Fatalf("subtitle codes %v", plan.subtitleCodes)
	}
	if fmt.Sprint(plan.translated) != "[en fr]" {
		t.Fatalf("translated codes %v", plan.translated)
	}
	if !plan.wantsAudio("en") || plan.wantsAudio("ru") || !plan.wantsSubtitle("fr") {
		t.Fatal("membership checks wrong")
	}
}
