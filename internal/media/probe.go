package media

import (
	"fmt"
	"regexp"
	"strconv"
)

// ParseError reports a stream report line that does not satisfy the probe
// grammar, or one that claims a kind without the fields that kind requires.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("parse stream report: %s", e.Reason)
	}
	return fmt.Sprintf("parse stream report: %s: %q", e.Reason, e.Line)
}

// ProbeResult groups the tracks discovered in one source file.
type ProbeResult struct {
	Videos    []VideoTrack
	Audios    []AudioTrack
	Subtitles []SubtitleTrack
}

// Container flattens the result into an ordered container: videos first,
// then audios, then subtitles.
func (r ProbeResult) Container() *Container {
	c := &Container{}
	for _, t := range r.Videos {
		c.Add(t)
	}
	for _, t := range r.Audios {
		c.Add(t)
	}
	for _, t := range r.Subtitles {
		c.Add(t)
	}
	return c
}

var (
	streamPattern     = regexp.MustCompile(`Stream #0:(\d+)(\[[^\]]*\])?(?:\((\w+)\))?: (\w+): (\w+)[^,\n]*([^\n]*)`)
	bitratePattern    = regexp.MustCompile(` (\d+) kb/s`)
	resolutionPattern = regexp.MustCompile(`(\d+)x(\d+)`)
	fpsPattern        = regexp.MustCompile(`(\d+\.?\d*) fps`)
	sampleRatePattern = regexp.MustCompile(` (\d+) Hz`)
)

// ParseReport parses the external tool's textual stream report into typed
// tracks. Each stream line carries an index, optional bracketed marker,
// optional parenthesized language tag, a kind keyword, a codec token and a
// free trailer. Bitrate is optional for every kind; a Video line without
// resolution or frame rate, an Audio line without sample rate, and any
// unrecognized kind keyword are parse errors.
func ParseReport(report, source string) (ProbeResult, error) {
	var result ProbeResult
	for _, match := range streamPattern.FindAllStringSubmatch(report, -1) {
		index, err := strconv.Atoi(match[1])
		if err != nil {
			return ProbeResult{}, &ParseError{Line: match[0], Reason: "invalid stream index"}
		}
		ref := TrackRef{
			Index:    index,
			Codec:    match[5],
			Language: match[3],
			Source:   source,
		}
		trailer := match[6]
		bitrate := 0
		if m := bitratePattern.FindStringSubmatch(trailer); m != nil {
			bitrate, _ = strconv.Atoi(m[1])
		}

		switch match[4] {
		case "Video":
			res := resolutionPattern.FindStringSubmatch(trailer)
			if res == nil {
				return ProbeResult{}, &ParseError{Line: match[0], Reason: "video stream without resolution"}
			}
			fps := fpsPattern.FindStringSubmatch(trailer)
			if fps == nil {
				return ProbeResult{}, &ParseError{Line: match[0], Reason: "video stream without frame rate"}
			}
			width, _ := strconv.Atoi(res[1])
			height, _ := strconv.Atoi(res[2])
			rate, err := strconv.ParseFloat(fps[1], 64)
			if err != nil {
				return ProbeResult{}, &ParseError{Line: match[0], Reason: "invalid frame rate"}
			}
			result.Videos = append(result.Videos, VideoTrack{
				TrackRef: ref,
				Width:    width,
				Height:   height,
				FPS:      rate,
				BitRate:  bitrate,
			})
		case "Audio":
			hz := sampleRatePattern.FindStringSubmatch(trailer)
			if hz == nil {
				return ProbeResult{}, &ParseError{Line: match[0], Reason: "audio stream without sample rate"}
			}
			sampleRate, _ := strconv.Atoi(hz[1])
			result.Audios = append(result.Audios, AudioTrack{
				TrackRef:   ref,
				SampleRate: sampleRate,
				BitRate:    bitrate,
			})
		case "Subtitle":
			result.Subtitles = append(result.Subtitles, SubtitleTrack{TrackRef: ref})
		default:
			return ProbeResult{}, &ParseError{Line: match[0], Reason: fmt.Sprintf("unrecognized stream kind %q", match[4])}
		}
	}
	return result, nil
}
