package subtitle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/util"
)

// EscapeFilterPath makes a path safe inside a filtergraph argument:
// backslashes become forward slashes, quotes and colons are escaped.
func EscapeFilterPath(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	p = strings.ReplaceAll(p, "'", "\\'")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}

// BurnOptions controls subtitle burn-in.
type BurnOptions struct {
	// Width and Height feed the original_size hint.
	Width  int
	Height int
	// FontsDir optionally points the renderer at bundled fonts.
	FontsDir string
	// UseGPU enables hardware encoding.
	UseGPU bool
}

// Burner burns subtitle files into video.
type Burner struct {
	tools  *ffmpeg.Tools
	runner *ffmpeg.Runner
	hw     *ffmpeg.HWProbe
	logger *slog.Logger
}

// NewBurner creates a Burner.
func NewBurner(tools *ffmpeg.Tools, runner *ffmpeg.Runner, hw *ffmpeg.HWProbe, logger *slog.Logger) *Burner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Burner{tools: tools, runner: runner, hw: hw, logger: logger}
}

// Burn renders subPath (ASS or SRT) into the video. The subtitles filter
// is tried with the original_size hint first, then without, then the
// plain ass filter as a last resort.
func (b *Burner) Burn(ctx context.Context, video, subPath, out string, opts BurnOptions) error {
	escaped := EscapeFilterPath(subPath)

	filters := []string{}
	if opts.Width > 0 && opts.Height > 0 {
		f := fmt.Sprintf("subtitles=filename='%s':original_size=%dx%d", escaped, opts.Width, opts.Height)
		if opts.FontsDir != "" {
			f += ":fontsdir='" + EscapeFilterPath(opts.FontsDir) + "'"
		}
		filters = append(filters, f)
	}
	noSize := fmt.Sprintf("subtitles=filename='%s'", escaped)
	if opts.FontsDir != "" {
		noSize += ":fontsdir='" + EscapeFilterPath(opts.FontsDir) + "'"
	}
	filters = append(filters, noSize, fmt.Sprintf("ass='%s'", escaped))

	var lastErr error
	for i, filter := range filters {
		if err := b.burnWith(ctx, video, filter, out, opts.UseGPU); err != nil {
			lastErr = err
			b.logger.Debug("subtitle filter variant failed",
				slog.Int("variant", i),
				slog.String("error", err.Error()))
			continue
		}
		return nil
	}
	return lastErr
}

func (b *Burner) burnWith(ctx context.Context, video, filter, out string, useGPU bool) error {
	cb := ffmpeg.NewCommandBuilder().
		Input(util.ToFFmpegPath(video)).
		VideoFilter(filter)

	encoder := ffmpeg.VideoEncoder(b.hw.Vendor(ctx), useGPU)
	cb.VideoCodec(encoder)
	if encoder == "h264_nvenc" {
		cb.OutputArgs("-preset", "p5", "-cq", "23")
	} else if encoder == "libx264" {
		cb.OutputArgs("-preset", "medium", "-crf", "20")
	}
	cb.OutputArgs("-pix_fmt", "yuv420p")
	cb.AudioCodec("copy")
	cb.FastStart()
	cb.Output(out)

	_, err := b.runner.Run(ctx, b.tools.FFmpeg, cb.Build())
	return err
}
