// Package ffmpeg provides FFmpeg/FFprobe location, invocation, probing and
// hardware-encoder detection for the pipeline.
package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmylchreest/clipforge/internal/config"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/util"
)

// Environment variables honored by the locator.
const (
	// EnvFFmpegBinary overrides the ffmpeg path.
	EnvFFmpegBinary = "CLIPFORGE_FFMPEG_BINARY"
	// EnvFFprobeBinary overrides the ffprobe path.
	EnvFFprobeBinary = "CLIPFORGE_FFPROBE_BINARY"
	// EnvDevFallback enables resolving binaries from PATH when set to "1".
	EnvDevFallback = "FFMPEG_DEV_FALLBACK"
)

// Tools holds the resolved paths to the external binaries.
type Tools struct {
	FFmpeg  string `json:"ffmpeg"`
	FFprobe string `json:"ffprobe"`
}

// Locator resolves ffmpeg and ffprobe once and caches the result.
//
// Search order per binary: explicit config path, environment override,
// bundled directory, then PATH only when dev fallback is enabled. On
// success the chosen directory is prepended to PATH so child processes
// find matching helpers.
type Locator struct {
	cfg config.FFmpegConfig

	mu    sync.Mutex
	tools *Tools
}

// NewLocator creates a locator for the given FFmpeg configuration.
func NewLocator(cfg config.FFmpegConfig) *Locator {
	return &Locator{cfg: cfg}
}

// Resolve locates ffmpeg and ffprobe. The result is memoized.
func (l *Locator) Resolve() (*Tools, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tools != nil {
		return l.tools, nil
	}

	devFallback := l.cfg.DevFallback || os.Getenv(EnvDevFallback) == "1"
	bundled := []string{l.cfg.BundledDir}

	ffmpegPath, err := l.resolveOne("ffmpeg", l.cfg.BinaryPath, EnvFFmpegBinary, bundled, devFallback)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %v", mediaerr.ErrToolNotFound, err)
	}

	ffprobePath, err := l.resolveOne("ffprobe", l.cfg.ProbePath, EnvFFprobeBinary, bundled, devFallback)
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe: %v", mediaerr.ErrToolNotFound, err)
	}

	// Children spawned by ffmpeg (and any helpers next to it) must see
	// the same tool directory first on PATH.
	if dir := filepath.Dir(ffmpegPath); dir != "." {
		if err := util.PrependPath(dir); err != nil {
			return nil, fmt.Errorf("prepending tool dir to PATH: %w", err)
		}
	}

	l.tools = &Tools{FFmpeg: ffmpegPath, FFprobe: ffprobePath}
	return l.tools, nil
}

// resolveOne resolves a single binary honoring the explicit path first.
func (l *Locator) resolveOne(name, explicit, envVar string, bundled []string, devFallback bool) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("configured path %s: %w", explicit, err)
		}
		return explicit, nil
	}
	return util.FindBinary(name, envVar, bundled, devFallback)
}
