package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Pipeline.WorkerCount)
	assert.True(t, cfg.Pipeline.SkipExisting)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 2, cfg.Audio.Channels)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10*time.Second, cfg.FFmpeg.ProbeTimeout)
	assert.Equal(t, time.Hour, cfg.FFmpeg.EncodeTimeout)
	assert.Equal(t, 2*time.Hour, cfg.FFmpeg.SeparateTimeout)
	assert.Equal(t, []string{"nvidia", "videotoolbox", "intel", "amd"}, cfg.FFmpeg.HWAccelPriority)
	assert.Equal(t, 14, cfg.Subtitles.MaxCharsPerLine)
	assert.Equal(t, "FFD700", cfg.Subtitles.HighlightColor)
	assert.Equal(t, 150, cfg.Cover.BlendWidth)
	assert.InDelta(t, 0.05, cfg.Cover.Padding, 1e-9)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "clipforge.db", cfg.History.DSN)
	assert.Equal(t, 30*24*time.Hour, cfg.History.Retention)
	assert.Equal(t, "*/10 * * * *", cfg.Watch.Cron)
	assert.False(t, cfg.Watch.Enabled)
	assert.True(t, cfg.Storage.KeepFailedTemps)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
pipeline:
  worker_count: 8
audio:
  sample_rate: 48000
logging:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Pipeline.WorkerCount)
	assert.Equal(t, 48000, cfg.Audio.SampleRate)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2, cfg.Audio.Channels)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CLIPFORGE_PIPELINE_WORKER_COUNT", "6")
	t.Setenv("CLIPFORGE_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Pipeline.WorkerCount)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Pipeline:  PipelineConfig{WorkerCount: 4},
			Audio:     AudioConfig{SampleRate: 44100, Channels: 2},
			Subtitles: SubtitleConfig{MaxCharsPerLine: 14},
			Cover:     CoverConfig{BlendWidth: 150},
			Logging:   LoggingConfig{Level: "info"},
		}
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Pipeline.WorkerCount = 0 }},
		{"odd sample rate", func(c *Config) { c.Audio.SampleRate = 22050 }},
		{"too many channels", func(c *Config) { c.Audio.Channels = 6 }},
		{"tiny line budget", func(c *Config) { c.Subtitles.MaxCharsPerLine = 2 }},
		{"negative blend", func(c *Config) { c.Cover.BlendWidth = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
