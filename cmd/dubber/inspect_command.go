package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dubber/internal/ffmpeg"
	"dubber/internal/language"
	"dubber/internal/media"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Probe media files and list their streams",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tool := ffmpeg.New(cfg.FFmpeg.Binary)
			for _, path := range args {
				result, err := tool.Probe(cmd.Context(), path)
				if err != nil {
					return err
				}

				var rows [][]string
				for _, track := range result.Container().Tracks() {
					ref := track.Ref()
					rows = append(rows, []string{
						strconv.Itoa(ref.Index),
						media.Kind(track),
						ref.Codec,
						language.DisplayName(ref.Language),
						trackDetail(track),
					})
				}
				if len(args) > 1 {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Stream", "Kind", "Codec", "Language", "Detail"}, rows, 1))
			}
			return nil
		},
	}
}

func trackDetail(track media.Track) string {
	switch t := track.(type) {
	case media.VideoTrack:
		detail := fmt.Sprintf("%dx%d @ %g fps", t.Width, t.Height, t.FPS)
		if t.BitRate > 0 {
			detail += fmt.Sprintf(", %d kb/s", t.BitRate)
		}
		return detail
	case media.AudioTrack:
		detail := fmt.Sprintf("%d Hz", t.SampleRate)
		if t.BitRate > 0 {
			detail += fmt.Sprintf(", %d kb/s", t.BitRate)
		}
		return detail
	default:
		return ""
	}
}
