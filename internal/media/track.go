package media

// TrackRef is the shared header of one media stream: its position within
// the file that contains it, codec tag, optional language code, and the
// path to that file. A TrackRef is immutable once probed.
type TrackRef struct {
	Index    int
	Codec    string
	Language string
	Source   string
}

// Track is the tagged variant over video, audio and subtitle streams.
type Track interface {
	Ref() TrackRef
	trackKind() string
}

// VideoTrack describes a video stream.
type VideoTrack struct {
	TrackRef
	Width   int
	Height  int
	FPS     float64
	BitRate int // kb/s, 0 when the report omitted it
}

// AudioTrack describes an audio stream. SampleRate and BitRate may be zero
// on a freshly produced file that has not been re-probed yet; such a track
// is only valid as an intermediate.
type AudioTrack struct {
	TrackRef
	SampleRate int // Hz
	BitRate    int // kb/s, 0 when the report omitted it
}

// SubtitleTrack describes a subtitle stream. Only codec and language are
// meaningful beyond the shared header.
type SubtitleTrack struct {
	TrackRef
}

func (t VideoTrack) Ref() TrackRef    { return t.TrackRef }
func (t AudioTrack) Ref() TrackRef    { return t.TrackRef }
func (t SubtitleTrack) Ref() TrackRef { return t.TrackRef }

func (VideoTrack) trackKind() string    { return "video" }
func (AudioTrack) trackKind() string    { return "audio" }
func (SubtitleTrack) trackKind() string { return "subtitle" }

// Kind reports the variant of a track as a lowercase tag.
func Kind(t Track) string {
	if t == nil {
		return ""
	}
	return t.trackKind()
}
