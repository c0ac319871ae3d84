package media

import (
	"errors"
	"testing"
)

const sampleReport = `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'movie.mp4':
  Duration: 00:42:10.05, start: 0.000000, bitrate: 5210 kb/s
  Stream #0:0[0x1](und): Video: h264 (High) (avc1 / 0x31637661), yuv420p, 1920x1080, 5000 kb/s, 30 fps, 30 tbr, 15360 tbn
  Stream #0:1[0x2](rus): Audio: aac (LC) (mp4a / 0x6134706D), 48000 Hz, stereo, fltp, 128 kb/s
  Stream #0:2(eng): Subtitle: subrip
`

func TestParseReport(t *testing.T) {
	result, err := ParseReport(sampleReport, "movie.mp4")
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if len(result.Videos) != 1 || len(result.Audios) != 1 || len(result.Subtitles) != 1 {
		t.Fatalf("unexpected counts: %d video, %d audio, %d subtitle",
			len(result.Videos), len(result.Audios), len(result.Subtitles))
	}

	video := result.Videos[0]
	if video.Index != 0 || video.Codec != "h264" {
		t.Fatalf("unexpected video header: %+v", video.TrackRef)
	}
	if video.Width != 1920 || video.Height != 1080 {
		t.Fatalf("unexpected resolution: %dx%d", video.Width, video.Height)
	}
	if video.FPS != 30 {
		t.Fatalf("unexpected fps: %v", video.FPS)
	}
	if video.BitRate != 5000 {
		t.Fatalf("unexpected video bitrate: %d", video.BitRate)
	}

	audio := result.Audios[0]
	if audio.Index != 1 || audio.Codec != "aac" || audio.Language != "rus" {
		t.Fatalf("unexpected audio header: %+v", audio.TrackRef)
	}
	if audio.SampleRate != 48000 || audio.BitRate != 128 {
		t.Fatalf("unexpected audio fields: %d Hz, %d kb/s", audio.SampleRate, audio.BitRate)
	}

	subtitle := result.Subtitles[0]
	if subtitle.Index != 2 || subtitle.Codec != "subrip" || subtitle.Language != "eng" {
		t.Fatalf("unexpected subtitle header: %+v", subtitle.TrackRef)
	}
	if subtitle.Source != "movie.mp4" {
		t.Fatalf("unexpected source: %q", subtitle.Source)
	}
}

func TestParseReportOptionalBitrate(t *testing.T) {
	report := "  Stream #0:0: Audio: pcm_s16le, 44100 Hz, mono, s16\n"
	result, err := ParseReport(report, "audio.wav")
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if len(result.Audios) != 1 {
		t.Fatalf("expected 1 audio track, got %d", len(result.Audios))
	}
	if result.Audios[0].BitRate != 0 {
		t.Fatalf("expected zero bitrate, got %d", result.Audios[0].BitRate)
	}
	if result.Audios[0].SampleRate != 44100 {
		t.Fatalf("unexpected sample rate: %d", result.Audios[0].SampleRate)
	}
}

func TestParseReportErrors(t *testing.T) {
	tests := []struct {
		name   string
		report string
	}{
		{"video without resolution", "  Stream #0:0: Video: h264, yuv420p, 30 fps\n"},
		{"video without fps", "  Stream #0:0: Video: h264, yuv420p, 1920x1080\n"},
		{"audio without sample rate", "  Stream #0:0: Audio: aac, stereo\n"},
		{"unknown kind", "  Stream #0:0: Data: bin_data\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseReport(tc.report, "x")
			if err == nil {
				t.Fatal("expected parse error")
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %T", err)
			}
		})
	}
}

func TestParseReportDeterministic(t *testing.T) {
	first, err := ParseReport(sampleReport, "movie.mp4")
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	second, err := ParseReport(sampleReport, "movie.mp4")
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if len(first.Videos) != len(second.Videos) || first.Videos[0] != second.Videos[0] {
		t.Fatal("parse is not deterministic")
	}
}
