package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"dubber/internal/media"
	"dubber/internal/services"
	"dubber/internal/speech"
	"dubber/internal/subtitles"
	"dubber/internal/translate"
	"dubber/internal/workspace"
)

// defaultQueueDepth bounds the stage channels. A bounded channel applies
// backpressure by blocking the producer instead of buffering recognized
// lines without limit.
const defaultQueueDepth = 16

// Transcoder is the slice of the external tool the orchestrator consumes.
// *ffmpeg.Tool satisfies it.
type Transcoder interface {
	Probe(ctx context.Context, path string) (media.ProbeResult, error)
	ExtractAudio(ctx context.Context, videoPath, dest string) (media.AudioTrack, error)
	TranscodeToWAV(ctx context.Context, audioPath, dest string) (media.AudioTrack, error)
	ExtractFragment(ctx context.Context, audioPath string, start, end float64, dest string) error
	ConcatAudio(ctx context.Context, parts []string, dest string) error
	Mux(ctx context.Context, dest string, container *media.Container, overwrite bool) error
}

// Options parameterizes one run.
type Options struct {
	Source        string
	Target        string
	AudioCodes    []string
	SubtitleCodes []string
	Overwrite     bool

	// WorkDir is the parent for the run's scratch workspace; empty means
	// the system temporary directory.
	WorkDir string

	// QueueDepth is the stage channel capacity; zero selects the default.
	QueueDepth int

	// TrailingSilence follows the final synthesized line, whose gap has
	// no successor to derive it from.
	TrailingSilence float64

	// DisableFinalFlush drops the trailing batch instead of synthesizing
	// it, reproducing the historical behavior.
	DisableFinalFlush bool
}

// Result summarizes a completed run.
type Result struct {
	Target    string
	Lines     int
	Subtitles []media.SubtitleTrack
	Dubbed    []media.AudioTrack
}

// Orchestrator owns the three-stage engine and its collaborators. The
// translator is read-only after construction and is referenced by the
// translate stage without locking.
type Orchestrator struct {
	tool        Transcoder
	translator  *translate.Service
	recognizer  speech.Recognizer
	synthesizer speech.Synthesizer
	logger      *slog.Logger
}

// New wires an orchestrator from its collaborators.
func New(tool Transcoder, translator *translate.Service, recognizer speech.Recognizer, synthesizer speech.Synthesizer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		tool:        tool,
		translator:  translator,
		recognizer:  recognizer,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// Run executes one conversion: probe the source, extract and transcode
// its audio, run the three stages, assemble the output container and mux
// it to the target. The scratch workspace is removed before Run returns,
// on error paths included.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	source := opts.Source
	if opts.Target == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "", "target path required", nil)
	}
	if o.recognizer.Language() != o.translator.Source() {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "",
			fmt.Sprintf("recognizer language %q does not match translator source %q",
				o.recognizer.Language(), o.translator.Source()), nil)
	}

	ws, err := workspace.Create(opts.WorkDir)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	sourceLang := o.translator.Source()
	plan := newPlan(sourceLang, opts.AudioCodes, opts.SubtitleCodes)

	probed, err := o.tool.Probe(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(probed.Videos) == 0 || len(probed.Audios) == 0 {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "probe",
			fmt.Sprintf("source %q needs at least one video and one audio stream", source), nil)
	}
	sourceVideo := probed.Videos[0]
	sourceAudio := probed.Audios[0]

	o.logger.Info("run started",
		"component", "pipeline",
		"source", source,
		"target", opts.Target,
		"audio", plan.audioCodes,
		"subtitles", plan.subtitleCodes,
	)

	extracted, err := o.tool.ExtractAudio(ctx, source, ws.NewFile("."+sourceAudio.Codec))
	if err != nil {
		return nil, err
	}
	working, err := o.tool.TranscodeToWAV(ctx, extracted.Source, ws.NewFile(".wav"))
	if err != nil {
		return nil, err
	}

	depth := opts.QueueDepth
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	recognized := make(chan subtitles.Line, depth)
	batches := make(chan batch, depth)

	recognition := &recognitionStage{
		orchestrator: o,
		audioPath:    working.Source,
		out:          recognized,
	}
	translation := &translateStage{
		orchestrator: o,
		workspace:    ws,
		audioPath:    working.Source,
		plan:         plan,
		in:           recognized,
		out:          batches,
	}
	synthesis := &synthesisStage{
		orchestrator:    o,
		workspace:       ws,
		plan:            plan,
		in:              batches,
		trailingSilence: opts.TrailingSilence,
		finalFlush:      !opts.DisableFinalFlush,
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); recognition.run(ctx) }()
	go func() { defer wg.Done(); translation.run(ctx) }()
	go func() { defer wg.Done(); synthesis.run(ctx) }()
	wg.Wait()

	if err := errors.Join(recognition.err, translation.err, synthesis.err); err != nil {
		return nil, err
	}

	dubbed, err := o.assembleDubbedTracks(ctx, ws, plan, synthesis.segments)
	if err != nil {
		return nil, err
	}

	container := media.NewContainer(sourceVideo, sourceAudio)
	for _, track := range dubbed {
		container.Add(track)
	}
	var subtitleTracks []media.SubtitleTrack
	if translation.sourceTrack != nil {
		subtitleTracks = append(subtitleTracks, *translation.sourceTrack)
	}
	subtitleTracks = append(subtitleTracks, synthesis.subtitleTracks...)
	for _, track := range subtitleTracks {
		container.Add(track)
	}

	if err := o.tool.Mux(ctx, opts.Target, container, opts.Overwrite); err != nil {
		return nil, err
	}

	o.logger.Info("run finished",
		"component", "pipeline",
		"target", opts.Target,
		"lines", translation.lines,
		"dubbed_tracks", len(dubbed),
		"subtitle_tracks", len(subtitleTracks),
	)
	return &Result{
		Target:    opts.Target,
		Lines:     translation.lines,
		Subtitles: subtitleTracks,
		Dubbed:    dubbed,
	}, nil
}

// assembleDubbedTracks concatenates each language's synthesized segments,
// in production order, into one continuous track and re-probes it so the
// muxed track carries a real header.
func (o *Orchestrator) assembleDubbedTracks(ctx context.Context, ws *workspace.Workspace, plan runPlan, segments map[string][]string) ([]media.AudioTrack, error) {
	var tracks []media.AudioTrack
	for _, code := range plan.audioCodes {
		parts := segments[code]
		if len(parts) == 0 {
			o.logger.Warn("no synthesized segments", "component", "pipeline", "language", code)
			continue
		}
		dest := ws.NewFile(".wav")
		if err := o.tool.ConcatAudio(ctx, parts, dest); err != nil {
			return nil, err
		}
		track, err := o.probeAudio(ctx, dest)
		if err != nil {
			return nil, err
		}
		track.Language = code
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (o *Orchestrator) probeAudio(ctx context.Context, path string) (media.AudioTrack, error) {
	result, err := o.tool.Probe(ctx, path)
	if err != nil {
		return media.AudioTrack{}, err
	}
	if len(result.Audios) == 0 {
		return media.AudioTrack{}, services.Wrap(services.ErrExternalTool, "pipeline", "probe",
			fmt.Sprintf("no audio stream in %q", path), nil)
	}
	return result.Audios[0], nil
}

// runPlan is the precomputed language routing of one run.
type runPlan struct {
	sourceLang string
	// audioCodes and subtitleCodes exclude the source language and are
	// sorted for deterministic batch ordering.
	audioCodes    []string
	subtitleCodes []string
	// translated is the union of both sets, the codes every recognized
	// line is translated into.
	translated []string
	// sourceSubtitles is set when subtitles in the source language were
	// requested alongside the translated ones.
	sourceSubtitles bool

	audioSet    map[string]struct{}
	subtitleSet map[string]struct{}
}

func newPlan(sourceLang string, audioCodes, subtitleCodes []string) runPlan {
	plan := runPlan{
		sourceLang:  sourceLang,
		audioSet:    make(map[string]struct{}),
		subtitleSet: make(map[string]struct{}),
	}
	for _, code := range audioCodes {
		if code == sourceLang {
			continue
		}
		if _, ok := plan.audioSet[code]; ok {
			continue
		}
		plan.audioSet[code] = struct{}{}
		plan.audioCodes = append(plan.audioCodes, code)
	}
	for _, code := range subtitleCodes {
		if code == sourceLang {
			plan.sourceSubtitles = true
			continue
		}
		if _, ok := plan.subtitleSet[code]; ok {
			continue
		}
		plan.subtitleSet[code] = struct{}{}
		plan.subtitleCodes = append(plan.subtitleCodes, code)
	}
	sort.Strings(plan.audioCodes)
	sort.Strings(plan.subtitleCodes)

	union := make(map[string]struct{}, len(plan.audioCodes)+len(plan.subtitleCodes))
	for code := range plan.audioSet {
		union[code] = struct{}{}
	}
	for code := range plan.subtitleSet {
		union[code] = struct{}{}
	}
	plan.translated = make([]string, 0, len(union))
	for code := range union {
		plan.translated = append(plan.translated, code)
	}
	sort.Strings(plan.translated)
	return plan
}

func (p runPlan) wantsAudio(code string) bool {
	_, ok := p.audioSet[code]
	return ok
}

func (p runPlan) wantsSubtitle(code string) bool {
	_, ok := p.subtitleSet[code]
	return ok
}
