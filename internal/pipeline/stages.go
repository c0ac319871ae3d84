package pipeline

import (
	"context"

	"dubber/internal/media"
	"dubber/internal/subtitles"
	"dubber/internal/workspace"
)

// batch carries one recognized line's translations together with the
// voice-reference fragment sliced from the original audio. Keeping both
// in one value on one channel makes the 1:1 pairing structural: batch i
// can never meet fragment j.
type batch struct {
	lines    []subtitles.Line
	start    float64
	end      float64
	fragment string
}

// recognitionStage feeds the engine: it drains the recognizer's segment
// stream into the first queue and closes it as the sentinel.
type recognitionStage struct {
	orchestrator *Orchestrator
	audioPath    string
	out          chan<- subtitles.Line
	err          error
}

func (s *recognitionStage) run(ctx context.Context) {
	defer close(s.out)
	o := s.orchestrator
	count := 0
	s.err = o.recognizer.Recognize(ctx, s.audioPath, func(line subtitles.Line) error {
		select {
		case s.out <- line:
			count++
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	o.logger.Debug("recognition finished", "component", "recognize", "lines", count)
}

// translateStage consumes recognized lines one at a time. Each line is
// appended to the source-language sink when requested, translated into
// every other requested language, and paired with the waveform fragment
// spanning its time range before being pushed downstream.
//
// After an error the stage stops producing but keeps draining its input
// so the recognition stage never blocks on a full queue.
type translateStage struct {
	orchestrator *Orchestrator
	workspace    *workspace.Workspace
	audioPath    string
	plan         runPlan
	in           <-chan subtitles.Line
	out          chan<- batch

	lines       int
	sourceTrack *media.SubtitleTrack
	err         error
}

func (s *translateStage) run(ctx context.Context) {
	defer close(s.out)
	o := s.orchestrator

	var sink *subtitles.Sink
	if s.plan.sourceSubtitles {
		var err error
		sink, err = subtitles.NewSink(s.workspace.NewFile(subtitles.Extension))
		if err != nil {
			s.err = err
		}
	}

	for line := range s.in {
		if s.err != nil {
			continue
		}
		if sink != nil {
			if err := sink.Send(line); err != nil {
				s.err = err
				continue
			}
		}
		translated := make([]subtitles.Line, 0, len(s.plan.translated))
		for _, code := range s.plan.translated {
			text, err := o.translator.Translate(line.Text, code)
			if err != nil {
				s.err = err
				break
			}
			translated = append(translated, subtitles.Line{
				Start: line.Start,
				End:   line.End,
				Text:  text,
				Lang:  code,
			})
		}
		if s.err != nil {
			continue
		}
		fragment := s.workspace.NewFile(".wav")
		if err := o.tool.ExtractFragment(ctx, s.audioPath, line.Start, line.End, fragment); err != nil {
			s.err = err
			continue
		}
		s.lines++
		select {
		case s.out <- batch{lines: translated, start: line.Start, end: line.End, fragment: fragment}:
		case <-ctx.Done():
			s.err = ctx.Err()
		}
	}

	if sink != nil {
		if err := sink.Close(); err != nil && s.err == nil {
			s.err = err
			return
		}
		if s.err == nil {
			s.sourceTrack = &media.SubtitleTrack{TrackRef: media.TrackRef{
				Index:    0,
				Codec:    "subrip",
				Language: s.plan.sourceLang,
				Source:   sink.Path(),
			}}
		}
	}
	o.logger.Debug("translation finished", "component", "translate", "lines", s.lines)
}

// synthesisStage consumes batches strictly in production order. Subtitle
// cues are written immediately; synthesis runs one batch behind, because
// the silence that follows batch i-1 is current.start - previous.end and
// only known once batch i arrives. Each synthesized line yields two
// ordered segments: the spoken line, then the trailing silence.
type synthesisStage struct {
	orchestrator    *Orchestrator
	workspace       *workspace.Workspace
	plan            runPlan
	in              <-chan batch
	trailingSilence float64
	finalFlush      bool

	segments       map[string][]string
	subtitleTracks []media.SubtitleTrack
	err            error
}

func (s *synthesisStage) run(ctx context.Context) {
	o := s.orchestrator
	s.segments = make(map[string][]string)

	sinks := make(map[string]*subtitles.Sink, len(s.plan.subtitleCodes))
	for _, code := range s.plan.subtitleCodes {
		sink, err := subtitles.NewSink(s.workspace.NewFile(subtitles.Extension))
		if err != nil {
			s.err = err
			break
		}
		sinks[code] = sink
	}

	var previous *batch
	for b := range s.in {
		if s.err != nil {
			continue
		}
		for _, line := range b.lines {
			if sink, ok := sinks[line.Lang]; ok {
				if err := sink.Send(line); err != nil {
					s.err = err
					break
				}
			}
		}
		if s.err != nil {
			continue
		}
		if previous != nil {
			if err := s.synthesizeBatch(ctx, previous, b.start-previous.end); err != nil {
				s.err = err
				continue
			}
		}
		current := b
		previous = &current
	}

	if s.err == nil && previous != nil && s.finalFlush {
		s.err = s.synthesizeBatch(ctx, previous, s.trailingSilence)
	}

	for _, code := range s.plan.subtitleCodes {
		sink, ok := sinks[code]
		if !ok {
			continue
		}
		if err := sink.Close(); err != nil && s.err == nil {
			s.err = err
		}
		if s.err == nil {
			s.subtitleTracks = append(s.subtitleTracks, media.SubtitleTrack{TrackRef: media.TrackRef{
				Index:    0,
				Codec:    "subrip",
				Language: code,
				Source:   sink.Path(),
			}})
		}
	}
	o.logger.Debug("synthesis finished", "component", "synthesize", "languages", len(s.segments))
}

// synthesizeBatch voices every requested-audio line of one batch, using
// the batch's own fragment as the voice reference and gap as the silence
// that separates it from the following line.
func (s *synthesisStage) synthesizeBatch(ctx context.Context, b *batch, gap float64) error {
	o := s.orchestrator
	if gap < 0 {
		gap = 0
	}
	for _, line := range b.lines {
		if !s.plan.wantsAudio(line.Lang) {
			continue
		}
		speechPath := s.workspace.NewFile(".wav")
		silencePath := s.workspace.NewFile(".wav")
		err := o.synthesizer.Synthesize(ctx, speechRequest(line, b.fragment, gap, speechPath, silencePath))
		if err != nil {
			return err
		}
		s.segments[line.Lang] = append(s.segments[line.Lang], speechPath, silencePath)
	}
	return nil
}
