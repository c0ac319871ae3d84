package media

// Container is an ordered sequence of tracks destined for one output file.
// Add appends; order is preserved through concatenation and drives input
// and stream-map selection at mux time. The container is assembled
// progressively during a run and handed once, complete, to the muxer.
type Container struct {
	tracks []Track
}

// NewContainer builds a container holding the given tracks in order.
func NewContainer(tracks ...Track) *Container {
	c := &Container{}
	for _, t := range tracks {
		c.Add(t)
	}
	return c
}

// Add appends one track.
func (c *Container) Add(t Track) {
	if t == nil {
		return
	}
	c.tracks = append(c.tracks, t)
}

// Tracks returns the tracks in insertion order.
func (c *Container) Tracks() []Track {
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// Len reports the number of tracks.
func (c *Container) Len() int {
	return len(c.tracks)
}

// Concat returns a new container holding c's tracks followed by other's.
func (c *Container) Concat(other *Container) *Container {
	merged := &Container{tracks: make([]Track, 0, len(c.tracks)+other.Len())}
	merged.tracks = append(merged.tracks, c.tracks...)
	if other != nil {
		merged.tracks = append(merged.tracks, other.tracks...)
	}
	return merged
}
