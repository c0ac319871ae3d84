package media

import "testing"

func TestContainerOrder(t *testing.T) {
	video := VideoTrack{TrackRef: TrackRef{Index: 0, Codec: "h264", Source: "a.mkv"}}
	audio := AudioTrack{TrackRef: TrackRef{Index: 1, Codec: "aac", Source: "a.mkv"}}
	subtitle := SubtitleTrack{TrackRef: TrackRef{Index: 0, Codec: "subrip", Source: "b.srt"}}

	c := NewContainer(video, audio)
	c.Add(subtitle)

	tracks := c.Tracks()
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(tracks))
	}
	if Kind(tracks[0]) != "video" || Kind(tracks[1]) != "audio" || Kind(tracks[2]) != "subtitle" {
		t.Fatalf("insertion order not preserved: %v %v %v",
			Kind(tracks[0]), Kind(tracks[1]), Kind(tracks[2]))
	}
}

func TestContainerConcat(t *testing.T) {
	left := NewContainer(VideoTrack{TrackRef: TrackRef{Codec: "h264", Source: "a"}})
	right := NewContainer(
		AudioTrack{TrackRef: TrackRef{Codec: "aac", Source: "b"}},
		SubtitleTrack{TrackRef: TrackRef{Codec: "subrip", Source: "c"}},
	)

	merged := left.Concat(right)
	if merged.Len() != 3 {
		t.Fatalf("expected 3 tracks, got %d", merged.Len())
	}
	tracks := merged.Tracks()
	if tracks[0].Ref().Source != "a" || tracks[1].Ref().Source != "b" || tracks[2].Ref().Source != "c" {
		t.Fatal("concat did not preserve left-then-right order")
	}
	if left.Len() != 1 || right.Len() != 2 {
		t.Fatal("concat mutated its operands")
	}
}

func TestProbeResultContainer(t *testing.T) {
	result := ProbeResult{
		Videos:    []VideoTrack{{TrackRef: TrackRef{Index: 0}}},
		Audios:    []AudioTrack{{TrackRef: TrackRef{Index: 1}}},
		Subtitles: []SubtitleTrack{{TrackRef: TrackRef{Index: 2}}},
	}
	c := result.Container()
	if c.Len() != 3 {
		t.Fatalf("expected 3 tracks, got %d", c.Len())
	}
	if Kind(c.Tracks()[0]) != "video" || Kind(c.Tracks()[2]) != "subtitle" {
		t.Fatal("flatten order wrong")
	}
}
