package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dubber/internal/media"
	"dubber/internal/services"
)

// subtitleContainers lists target extensions that can embed subtitle
// streams. Targets outside this set silently drop subtitle tracks from
// the stream map.
var subtitleContainers = map[string]struct{}{
	".mkv": {},
}

// Mux builds the final container at dest from the assembled track list.
// One input is added per distinct source file, in first-appearance order,
// and every remaining track contributes an explicit stream map pointing
// at its originating input and stream index. Streams are copied without
// re-encoding and trimmed to the shortest input.
//
// An existing dest is refused unless overwrite is set.
func (t *Tool) Mux(ctx context.Context, dest string, container *media.Container, overwrite bool) error {
	if container == nil || container.Len() == 0 {
		return services.Wrap(services.ErrValidation, "mux", "", "empty container", nil)
	}
	if err := ensureParent(dest); err != nil {
		return fmt.Errorf("ensure target directory: %w", err)
	}
	if _, err := os.Stat(dest); err == nil {
		if !overwrite {
			return services.Wrap(services.ErrValidation, "mux", "", fmt.Sprintf("target %q exists and overwrite not requested", dest), nil)
		}
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("remove existing target: %w", err)
		}
	}

	keepSubtitles := supportsSubtitles(dest)
	var inputs []string
	inputIndex := make(map[string]int)
	type streamMap struct {
		input  int
		stream int
	}
	var maps []streamMap

	for _, track := range container.Tracks() {
		if media.Kind(track) == "subtitle" && !keepSubtitles {
			continue
		}
		ref := track.Ref()
		index, seen := inputIndex[ref.Source]
		if !seen {
			index = len(inputs)
			inputs = append(inputs, ref.Source)
			inputIndex[ref.Source] = index
		}
		maps = append(maps, streamMap{input: index, stream: ref.Index})
	}
	if len(maps) == 0 {
		return services.Wrap(services.ErrValidation, "mux", "", "no mappable tracks for target", nil)
	}

	args := make([]string, 0, len(inputs)*2+len(maps)*2+4)
	for _, input := range inputs {
		args = append(args, "-i", input)
	}
	for _, m := range maps {
		args = append(args, "-map", fmt.Sprintf("%d:%d", m.input, m.stream))
	}
	args = append(args, "-c", "copy", "-shortest", dest)
	return t.run(ctx, "mux", args...)
}

func supportsSubtitles(dest string) bool {
	_, ok := subtitleContainers[strings.ToLower(filepath.Ext(dest))]
	return ok
}
