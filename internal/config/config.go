package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir     string `toml:"work_dir"`
	HistoryPath string `toml:"history_path"`
}

// FFmpeg selects the external transcoder binary.
type FFmpeg struct {
	Binary string `toml:"binary"`
}

// Pipeline tunes the staged engine.
type Pipeline struct {
	SourceLanguage  string  `toml:"source_language"`
	TrailingSilence float64 `toml:"trailing_silence"`
	QueueDepth      int     `toml:"queue_depth"`
}

// Speech configures the external recognition and synthesis programs.
type Speech struct {
	RecognizerCommand    []string `toml:"recognizer_command"`
	SynthesizerCommand   []string `toml:"synthesizer_command"`
	SynthesizerLanguages []string `toml:"synthesizer_languages"`
}

// TranslationPair declares one installed translation capability.
type TranslationPair struct {
	From    string   `toml:"from"`
	To      string   `toml:"to"`
	Command []string `toml:"command"`
}

// Translation lists the installed capabilities.
type Translation struct {
	Pairs []TranslationPair `toml:"pairs"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// History configures the run ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Config is the root configuration document.
type Config struct {
	Paths       Paths       `toml:"paths"`
	FFmpeg      FFmpeg      `toml:"ffmpeg"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Speech      Speech      `toml:"speech"`
	Translation Translation `toml:"translation"`
	Logging     Logging     `toml:"logging"`
	History     History     `toml:"history"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FFmpeg:   FFmpeg{Binary: "ffmpeg"},
		Pipeline: Pipeline{SourceLanguage: "ru", QueueDepth: 16},
		Logging:  Logging{Level: "info"},
		History:  History{Enabled: true},
	}
}

// Sample returns the annotated sample configuration document.
func Sample() string {
	return sampleConfig
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	if env := strings.TrimSpace(os.Getenv("DUBBER_CONFIG")); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "dubber", "config.toml")
}

// Load reads the configuration at path, falling back to defaults when the
// file does not exist and path was not explicitly requested.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Pipeline.SourceLanguage) == "" {
		return errors.New("pipeline.source_language must be set")
	}
	if c.Pipeline.TrailingSilence < 0 {
		return errors.New("pipeline.trailing_silence must not be negative")
	}
	if c.Pipeline.QueueDepth < 0 {
		return errors.New("pipeline.queue_depth must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	for i, pair := range c.Translation.Pairs {
		if pair.From == "" || pair.To == "" {
			return fmt.Errorf("translation.pairs[%d]: from and to must be set", i)
		}
		if len(pair.Command) == 0 {
			return fmt.Errorf("translation.pairs[%d]: command must be set", i)
		}
	}
	return nil
}

// HistoryPath resolves the run ledger location, defaulting to the user
// cache directory.
func (c *Config) HistoryPath() (string, error) {
	if c.Paths.HistoryPath != "" {
		return c.Paths.HistoryPath, nil
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(cache, "dubber", "history.db"), nil
}
