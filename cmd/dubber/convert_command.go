package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/ffmpeg"
	"dubber/internal/history"
	"dubber/internal/language"
	"dubber/internal/pipeline"
	"dubber/internal/services"
	"dubber/internal/speech"
	"dubber/internal/translate"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		audioFlag     []string
		subtitlesFlag []string
		availableFlag bool
		overwriteFlag bool
		workDirFlag   string
		silenceFlag   float64
	)

	cmd := &cobra.Command{
		Use:   "convert SOURCE TARGET",
		Short: "Dub a video into the requested languages",
		Long: `Convert recognizes the speech in SOURCE, translates it, synthesizes
dubbed audio tracks and subtitle files for the requested languages, and
muxes everything into TARGET.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if availableFlag {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			translator, err := buildTranslator(cfg)
			if err != nil {
				return err
			}
			synthLanguages := language.NormalizeList(cfg.Speech.SynthesizerLanguages)
			offer := buildOffer(translator, synthLanguages)

			if availableFlag {
				fmt.Fprintln(cmd.OutOrStdout(), renderAvailability(offer))
				return exitWith(exitAvailabilityListed, nil)
			}

			if len(audioFlag) == 0 {
				return fmt.Errorf("at least one --audio language is required")
			}
			audioCodes, err := resolveCodes(audioFlag, offer.audio, exitUnsupportedAudio, "audio")
			if err != nil {
				return err
			}
			subtitleCodes, err := resolveCodes(subtitlesFlag, offer.subtitle, exitUnsupportedSubtitle, "subtitle")
			if err != nil {
				return err
			}

			source, target := args[0], args[1]
			if info, statErr := os.Stat(source); statErr != nil || info.IsDir() {
				return exitWith(exitSourceMissing, fmt.Errorf("source %q does not exist or is not a file", source))
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tool := ffmpeg.New(cfg.FFmpeg.Binary)
			if err := preflight(runCtx, cfg, tool); err != nil {
				return err
			}

			sourceLang := language.Normalize(cfg.Pipeline.SourceLanguage)
			recognizer := speech.NewCommandRecognizer(sourceLang, cfg.Speech.RecognizerCommand)
			synthesizer := speech.NewCommandSynthesizer(synthLanguages, cfg.Speech.SynthesizerCommand)

			trailing := cfg.Pipeline.TrailingSilence
			if cmd.Flags().Changed("trailing-silence") {
				trailing = silenceFlag
			}
			workDir := cfg.Paths.WorkDir
			if workDirFlag != "" {
				workDir = workDirFlag
			}

			opts := pipeline.Options{
				Source:          source,
				Target:          target,
				AudioCodes:      audioCodes,
				SubtitleCodes:   subtitleCodes,
				Overwrite:       overwriteFlag,
				WorkDir:         workDir,
				QueueDepth:      cfg.Pipeline.QueueDepth,
				TrailingSilence: trailing,
			}

			started := time.Now()
			result, runErr := pipeline.New(tool, translator, recognizer, synthesizer, logger).Run(runCtx, opts)
			recordRun(cfg, logger, opts, result, runErr, started)
			if runErr != nil {
				return runErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d lines, %d dubbed tracks, %d subtitle tracks\n",
				result.Target, result.Lines, len(result.Dubbed), len(result.Subtitles))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&audioFlag, "audio", nil, "Language codes to synthesize dubbed audio for")
	cmd.Flags().StringSliceVar(&subtitlesFlag, "subtitles", nil, "Language codes to write subtitle tracks for")
	cmd.Flags().BoolVar(&availableFlag, "available", false, "List the supported languages and exit")
	cmd.Flags().BoolVar(&overwriteFlag, "overwrite", false, "Replace TARGET if it already exists")
	cmd.Flags().StringVar(&workDirFlag, "work-dir", "", "Parent directory for the scratch workspace")
	cmd.Flags().Float64Var(&silenceFlag, "trailing-silence", 0, "Silence after the final line, in seconds")

	return cmd
}

// offer is what the installed capability set can deliver: audio requires
// a translation route and a synthesis voice, subtitles only a route. The
// source language itself is always subtitleable.
type offer struct {
	source   string
	audio    map[string]struct{}
	subtitle map[string]struct{}
}

func buildOffer(translator *translate.Service, synthLanguages []string) offer {
	o := offer{
		source:   translator.Source(),
		audio:    make(map[string]struct{}),
		subtitle: make(map[string]struct{}),
	}
	routed := make(map[string]struct{})
	for _, code := range translator.AvailableCodes() {
		routed[code] = struct{}{}
		o.subtitle[code] = struct{}{}
	}
	o.subtitle[o.source] = struct{}{}
	for _, code := range synthLanguages {
		if _, ok := routed[code]; ok {
			o.audio[code] = struct{}{}
		}
	}
	return o
}

// resolveCodes normalizes the requested codes and rejects anything the
// offer does not cover, with the contract's exit code.
func resolveCodes(requested []string, offered map[string]struct{}, failCode int, kind string) ([]string, error) {
	resolved := make([]string, 0, len(requested))
	for _, raw := range requested {
		code := language.Normalize(raw)
		if code == "" {
			return nil, exitWith(failCode, fmt.Errorf("unrecognized %s language %q", kind, raw))
		}
		if _, ok := offered[code]; !ok {
			return nil, exitWith(failCode, fmt.Errorf("%s language %q is not supported; run with --available", kind, raw))
		}
		resolved = append(resolved, code)
	}
	return resolved, nil
}

func renderAvailability(o offer) string {
	union := make(map[string]struct{}, len(o.subtitle))
	for code := range o.subtitle {
		union[code] = struct{}{}
	}
	for code := range o.audio {
		union[code] = struct{}{}
	}
	codes := make([]string, 0, len(union))
	for code := range union {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		_, audio := o.audio[code]
		_, subtitle := o.subtitle[code]
		rows = append(rows, []string{
			code,
			language.DisplayName(code),
			yesNo(audio),
			yesNo(subtitle),
		})
	}
	return renderTable([]string{"Code", "Language", "Audio", "Subtitles"}, rows)
}

func buildTranslator(cfg *config.Config) (*translate.Service, error) {
	source := language.Normalize(cfg.Pipeline.SourceLanguage)
	if source == "" {
		return nil, fmt.Errorf("unrecognized source language %q", cfg.Pipeline.SourceLanguage)
	}
	capabilities := make(map[translate.Pair]translate.Capability, len(cfg.Translation.Pairs))
	for _, pair := range cfg.Translation.Pairs {
		from := language.Normalize(pair.From)
		to := language.Normalize(pair.To)
		if from == "" || to == "" {
			return nil, fmt.Errorf("translation pair %s-%s uses unrecognized codes", pair.From, pair.To)
		}
		capabilities[translate.Pair{From: from, To: to}] = translate.NewCommandCapability(pair.Command)
	}
	return translate.NewService(source, capabilities), nil
}

// preflight verifies the external toolchain before any work starts: the
// transcoder banner and the presence of every required program.
func preflight(ctx context.Context, cfg *config.Config, tool *ffmpeg.Tool) error {
	if err := tool.Verify(ctx); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return exitWith(exitToolMissing, err)
		}
		return err
	}
	statuses := deps.Check(deps.Gather(cfg))
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			return exitWith(exitToolMissing, fmt.Errorf("%s: %s", status.Name, status.Detail))
		}
	}
	return nil
}

func recordRun(cfg *config.Config, logger *slog.Logger, opts pipeline.Options, result *pipeline.Result, runErr error, started time.Time) {
	if !cfg.History.Enabled {
		return
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		logger.Warn("history disabled", "component", "history", "error", err)
		return
	}
	store, err := history.Open(path)
	if err != nil {
		logger.Warn("history disabled", "component", "history", "error", err)
		return
	}
	defer store.Close()

	run := history.Run{
		Source:        opts.Source,
		Target:        opts.Target,
		AudioCodes:    opts.AudioCodes,
		SubtitleCodes: opts.SubtitleCodes,
		Status:        history.StatusCompleted,
		StartedAt:     started,
		FinishedAt:    time.Now(),
	}
	if runErr != nil {
		run.Status = history.StatusFailed
		run.Error = runErr.Error()
	} else if result != nil {
		run.Lines = result.Lines
	}
	if _, err := store.Record(context.Background(), run); err != nil {
		logger.Warn("history record failed", "component", "history", "error", err)
	}
}
