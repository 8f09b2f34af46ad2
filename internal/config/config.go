// Package config provides configuration management for clipforge using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultWorkerCount      = 4
	defaultProbeTimeout     = 10 * time.Second
	defaultEncodeTimeout    = time.Hour
	defaultSeparateTimeout  = 2 * time.Hour
	defaultNormalizeFPS     = 25
	defaultSampleRate       = 44100
	defaultAudioChannels    = 2
	defaultClipMinInterval  = 0.3
	defaultBlendWidth       = 150
	defaultMaxCharsPerLine  = 14
	defaultFrameSampleRate  = 2.0
	defaultKeepRecentTemps  = 3
	defaultHistoryRetention = 30 * 24 * time.Hour
)

// Config holds all configuration for the application.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	FFmpeg    FFmpegConfig    `mapstructure:"ffmpeg"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Subtitles SubtitleConfig  `mapstructure:"subtitles"`
	Cover     CoverConfig     `mapstructure:"cover"`
	History   HistoryConfig   `mapstructure:"history"`
	Watch     WatchConfig     `mapstructure:"watch"`
}

// StorageConfig holds output and scratch directory configuration.
type StorageConfig struct {
	// OutputDir is the root under which per-job output trees are created.
	// Empty means "next to the inputs" (each stage derives its own tree).
	OutputDir string `mapstructure:"output_dir"`

	// TempDir is the scratch root for per-task temp directories.
	// Empty means the OS default.
	TempDir string `mapstructure:"temp_dir"`

	// KeepFailedTemps retains the temp directory of a failed task for
	// debugging. Successful tasks always clean up unless KeepRecent > 0.
	KeepFailedTemps bool `mapstructure:"keep_failed_temps"`

	// KeepRecent keeps the N most recent successful temp directories.
	KeepRecent int `mapstructure:"keep_recent"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// FFmpegConfig holds FFmpeg binary and invocation configuration.
type FFmpegConfig struct {
	// BinaryPath is the explicit ffmpeg path (empty = auto-detect).
	BinaryPath string `mapstructure:"binary_path"`
	// ProbePath is the explicit ffprobe path (empty = auto-detect).
	ProbePath string `mapstructure:"probe_path"`
	// BundledDir is the directory holding bundled ffmpeg/ffprobe,
	// searched before PATH. Resolved binaries' directory is prepended
	// to PATH so children find matching helpers.
	BundledDir string `mapstructure:"bundled_dir"`
	// DevFallback allows resolving binaries from PATH. Also enabled by
	// the FFMPEG_DEV_FALLBACK=1 environment variable.
	DevFallback bool `mapstructure:"dev_fallback"`
	// HWAccelPriority is the preferred encoder vendor order.
	HWAccelPriority []string `mapstructure:"hwaccel_priority"`
	// ProbeTimeout bounds each ffprobe invocation.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	// EncodeTimeout bounds each ffmpeg encode invocation (0 = unbounded).
	EncodeTimeout time.Duration `mapstructure:"encode_timeout"`
	// SeparateTimeout bounds audio separation runs.
	SeparateTimeout time.Duration `mapstructure:"separate_timeout"`
}

// PipelineConfig holds orchestrator configuration.
type PipelineConfig struct {
	// WorkerCount is the bounded worker pool size (K >= 1).
	WorkerCount int `mapstructure:"worker_count"`
	// SkipExisting makes runs idempotent: tasks whose canonical output
	// already exists are reported ok without re-encoding.
	SkipExisting bool `mapstructure:"skip_existing"`
}

// AudioConfig holds the project-wide audio profile.
// The whole pipeline normalizes to one sample rate so concat-copy and
// remux stages never mix rates.
type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	Channels   int `mapstructure:"channels"`
}

// SubtitleConfig holds subtitle rendering configuration.
type SubtitleConfig struct {
	// MaxCharsPerLine is the per-line character budget used to infer the
	// ASS font size from the video width. Full-width runes count as two.
	MaxCharsPerLine int `mapstructure:"max_chars_per_line"`
	// FontsDir is an optional fonts directory passed to the subtitles
	// filter.
	FontsDir string `mapstructure:"fonts_dir"`
	// HighlightColor is the keyword highlight color as RRGGBB hex.
	HighlightColor string `mapstructure:"highlight_color"`
}

// CoverConfig holds cover stitching configuration.
type CoverConfig struct {
	// BlendWidth is the linear blend seam width in pixels.
	BlendWidth int `mapstructure:"blend_width"`
	// Padding is the per-side padding of the active 16:9 rectangle,
	// as a ratio of the stitched image (clamped to 0.2) when <= 1,
	// otherwise a pixel count.
	Padding float64 `mapstructure:"padding"`
}

// HistoryConfig holds job-history persistence configuration.
type HistoryConfig struct {
	// Enabled turns on the sqlite job-history store.
	Enabled bool `mapstructure:"enabled"`
	// DSN is the sqlite database path.
	DSN string `mapstructure:"dsn"`
	// Retention is how long completed job rows are kept.
	Retention time.Duration `mapstructure:"retention"`
}

// WatchConfig holds scheduled library rescan configuration.
type WatchConfig struct {
	// Enabled turns on cron-driven rescans in `clipforge watch`.
	Enabled bool `mapstructure:"enabled"`
	// Cron is a standard 5-field cron expression.
	Cron string `mapstructure:"cron"`
	// InboxDir is the directory rescanned for new media.
	InboxDir string `mapstructure:"inbox_dir"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with CLIPFORGE_ and use underscores
// for nesting. Example: CLIPFORGE_PIPELINE_WORKER_COUNT=8.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/clipforge")
		v.AddConfigPath("$HOME/.clipforge")
	}

	v.SetEnvPrefix("CLIPFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SetDefaults sets the default configuration values on a viper instance.
func SetDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.output_dir", "")
	v.SetDefault("storage.temp_dir", "")
	v.SetDefault("storage.keep_failed_temps", true)
	v.SetDefault("storage.keep_recent", 0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// FFmpeg defaults
	v.SetDefault("ffmpeg.binary_path", "")
	v.SetDefault("ffmpeg.probe_path", "")
	v.SetDefault("ffmpeg.bundled_dir", "")
	v.SetDefault("ffmpeg.dev_fallback", false)
	v.SetDefault("ffmpeg.hwaccel_priority", []string{"nvidia", "videotoolbox", "intel", "amd"})
	v.SetDefault("ffmpeg.probe_timeout", defaultProbeTimeout)
	v.SetDefault("ffmpeg.encode_timeout", defaultEncodeTimeout)
	v.SetDefault("ffmpeg.separate_timeout", defaultSeparateTimeout)

	// Pipeline defaults
	v.SetDefault("pipeline.worker_count", defaultWorkerCount)
	v.SetDefault("pipeline.skip_existing", true)

	// Audio defaults
	v.SetDefault("audio.sample_rate", defaultSampleRate)
	v.SetDefault("audio.channels", defaultAudioChannels)

	// Subtitle defaults
	v.SetDefault("subtitles.max_chars_per_line", defaultMaxCharsPerLine)
	v.SetDefault("subtitles.fonts_dir", "")
	v.SetDefault("subtitles.highlight_color", "FFD700")

	// Cover defaults
	v.SetDefault("cover.blend_width", defaultBlendWidth)
	v.SetDefault("cover.padding", 0.05)

	// History defaults
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dsn", "clipforge.db")
	v.SetDefault("history.retention", defaultHistoryRetention)

	// Watch defaults
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.cron", "*/10 * * * *")
	v.SetDefault("watch.inbox_dir", "")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Pipeline.WorkerCount < 1 {
		return fmt.Errorf("pipeline.worker_count must be >= 1, got %d", c.Pipeline.WorkerCount)
	}
	switch c.Audio.SampleRate {
	case 44100, 48000:
	default:
		return fmt.Errorf("audio.sample_rate must be 44100 or 48000, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	if c.Subtitles.MaxCharsPerLine < 4 {
		return fmt.Errorf("subtitles.max_chars_per_line must be >= 4, got %d", c.Subtitles.MaxCharsPerLine)
	}
	if c.Cover.BlendWidth < 0 {
		return fmt.Errorf("cover.blend_width must be >= 0, got %d", c.Cover.BlendWidth)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
