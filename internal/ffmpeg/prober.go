package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	// Image decoders for probing still-image resolution.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/util"
)

// ProbeResult contains the ffprobe output the pipeline consumes.
type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// ProbeFormat contains container format information.
type ProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// ProbeStream contains stream information.
type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"` // video, audio
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	PixFmt     string `json:"pix_fmt,omitempty"`
	RFrameRate string `json:"r_frame_rate,omitempty"`
	SampleRate string `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// StreamInfo is the simplified view used by normalization and grouping.
type StreamInfo struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Codec      string  `json:"codec"`
	PixFmt     string  `json:"pix_fmt"`
	RFrameRate string  `json:"r_frame_rate"`
	FPS        float64 `json:"fps"`
	Duration   float64 `json:"duration"`
}

// Prober handles ffprobe operations. All probes tolerate non-ASCII paths
// by passing the file: prefixed forward-slash form to the tool.
type Prober struct {
	ffprobePath string
	runner      *Runner
	timeout     time.Duration
}

// NewProber creates a media prober.
func NewProber(ffprobePath string, runner *Runner) *Prober {
	return &Prober{
		ffprobePath: ffprobePath,
		runner:      runner,
		timeout:     10 * time.Second,
	}
}

// WithTimeout sets the per-probe timeout.
func (p *Prober) WithTimeout(timeout time.Duration) *Prober {
	p.timeout = timeout
	return p
}

// Probe runs ffprobe against the path and returns parsed output.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		util.ToFFmpegPath(path),
	}

	res, err := p.runner.Run(ctx, p.ffprobePath, args, WithTimeout(p.timeout))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", mediaerr.ErrProbeFailure, filepath.Base(path), err)
	}

	var result ProbeResult
	if err := json.Unmarshal(res.Stdout, &result); err != nil {
		return nil, fmt.Errorf("%w: parsing ffprobe output for %s: %v", mediaerr.ErrProbeFailure, filepath.Base(path), err)
	}

	return &result, nil
}

// Duration returns the media duration in seconds, or 0 when it cannot be
// determined. Never returns an error for soft probe failures.
func (p *Prober) Duration(ctx context.Context, path string) float64 {
	result, err := p.Probe(ctx, path)
	if err != nil {
		return 0
	}
	if d := parseSeconds(result.Format.Duration); d > 0 {
		return d
	}
	// Some containers only carry per-stream durations.
	for _, s := range result.Streams {
		if d := parseSeconds(s.Duration); d > 0 {
			return d
		}
	}
	return 0
}

// Resolution returns the pixel dimensions of a video or image, or
// (0, 0, false) when the file cannot be read. Images are decoded locally;
// videos go through ffprobe.
func (p *Prober) Resolution(ctx context.Context, path string) (int, int, bool) {
	if w, h, ok := imageResolution(path); ok {
		return w, h, true
	}

	result, err := p.Probe(ctx, path)
	if err != nil {
		return 0, 0, false
	}
	if vs := result.VideoStream(); vs != nil && vs.Width > 0 && vs.Height > 0 {
		return vs.Width, vs.Height, true
	}
	return 0, 0, false
}

// StreamInfo returns the simplified video stream description.
func (p *Prober) StreamInfo(ctx context.Context, path string) (*StreamInfo, error) {
	result, err := p.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	vs := result.VideoStream()
	if vs == nil {
		return nil, fmt.Errorf("%w: no video stream in %s", mediaerr.ErrProbeFailure, filepath.Base(path))
	}

	info := &StreamInfo{
		Width:      vs.Width,
		Height:     vs.Height,
		Codec:      vs.CodecName,
		PixFmt:     vs.PixFmt,
		RFrameRate: vs.RFrameRate,
		FPS:        ParseFramerate(vs.RFrameRate),
		Duration:   parseSeconds(result.Format.Duration),
	}
	return info, nil
}

// VideoStream returns the first video stream, or nil.
func (r *ProbeResult) VideoStream() *ProbeStream {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "video" {
			return &r.Streams[i]
		}
	}
	return nil
}

// AudioStream returns the first audio stream, or nil.
func (r *ProbeResult) AudioStream() *ProbeStream {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "audio" {
			return &r.Streams[i]
		}
	}
	return nil
}

// ParseFramerate parses a framerate string like "30000/1001" or "25/1".
func ParseFramerate(fr string) float64 {
	parts := strings.Split(fr, "/")
	if len(parts) != 2 {
		if f, err := strconv.ParseFloat(fr, 64); err == nil {
			return f
		}
		return 0
	}

	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}

	return num / den
}

// parseSeconds parses an ffprobe duration field.
func parseSeconds(s string) float64 {
	if s == "" {
		return 0
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// imageResolution decodes just the header of a still image.
func imageResolution(path string) (int, int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
