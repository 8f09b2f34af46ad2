package frames

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/util"
)

// SampleFPS is how many frames per second of source are evaluated.
const SampleFPS = 2

// Request describes one frame pick.
type Request struct {
	// Input is the source video.
	Input string
	// Output is the destination image (.jpg or .png decides the format).
	Output string
	// Start and End restrict the sampled range; End 0 means full length.
	Start float64
	End   float64
	// Quality is the internal 1..31 quality scale (1 best). Zero means 2.
	Quality int
}

// Pick is the chosen frame.
type Pick struct {
	Output     string
	Score      float64
	FrameIndex int
}

// Picker evaluates sampled frames and keeps the sharpest.
type Picker struct {
	tools  *ffmpeg.Tools
	runner *ffmpeg.Runner
	prober *ffmpeg.Prober
	logger *slog.Logger
}

// New creates a Picker.
func New(tools *ffmpeg.Tools, runner *ffmpeg.Runner, prober *ffmpeg.Prober, logger *slog.Logger) *Picker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Picker{tools: tools, runner: runner, prober: prober, logger: logger}
}

// strideFor thins the sampled sequence: high-resolution sources are
// costlier to decode, so they keep every 3rd sample instead of every 2nd.
func strideFor(width, height int) int {
	long := width
	if height > long {
		long = height
	}
	if long >= 1920 {
		return 3
	}
	return 2
}

// JPEGQuality maps the internal 1..31 scale (1 best) onto the encoder's
// 60..100 range.
func JPEGQuality(q int) int {
	if q < 1 {
		q = 1
	}
	if q > 31 {
		q = 31
	}
	return 100 - (q-1)*40/30
}

// Run samples the video, scores each frame and writes the sharpest to
// req.Output. A zero best score means no usable frame; nothing is saved
// and an error is returned.
func (p *Picker) Run(ctx context.Context, req Request) (*Pick, error) {
	w, h, ok := p.prober.Resolution(ctx, req.Input)
	if !ok {
		return nil, fmt.Errorf("%w: %s", mediaerr.ErrProbeFailure, filepath.Base(req.Input))
	}

	work, err := os.MkdirTemp("", "clipforge-frames-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(work)

	if err := p.extractSamples(ctx, req, work); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(work)
	if err != nil {
		return nil, err
	}
	var sampled []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			sampled = append(sampled, filepath.Join(work, e.Name()))
		}
	}
	sort.Strings(sampled)
	if len(sampled) == 0 {
		return nil, fmt.Errorf("%w: no frames sampled from %s", mediaerr.ErrBadInputKind, filepath.Base(req.Input))
	}

	stride := strideFor(w, h)
	var best image.Image
	bestScore, bestIdx := 0.0, -1
	for i := 0; i < len(sampled); i += stride {
		img, err := loadImage(sampled[i])
		if err != nil {
			p.logger.Debug("skipping undecodable sample",
				slog.String("path", sampled[i]),
				slog.String("error", err.Error()))
			continue
		}
		score := SharpnessScore(img)
		if score > bestScore {
			best, bestScore, bestIdx = img, score, i
		}
	}

	if best == nil || bestScore <= 0 {
		return nil, fmt.Errorf("%w: no frame with positive sharpness in %s", mediaerr.ErrBadInputKind, filepath.Base(req.Input))
	}

	if err := SaveImage(req.Output, best, req.Quality); err != nil {
		return nil, err
	}
	return &Pick{Output: req.Output, Score: bestScore, FrameIndex: bestIdx}, nil
}

// extractSamples dumps the sampled frames as a PNG sequence.
func (p *Picker) extractSamples(ctx context.Context, req Request, work string) error {
	b := ffmpeg.NewCommandBuilder()
	var inputArgs []string
	if req.Start > 0 {
		inputArgs = append(inputArgs, "-ss", fmt.Sprintf("%.3f", req.Start))
	}
	b.Input(util.ToFFmpegPath(req.Input), inputArgs...)
	if req.End > req.Start {
		b.OutputArgs("-t", fmt.Sprintf("%.3f", req.End-req.Start))
	}
	b.VideoFilter(fmt.Sprintf("fps=%d", SampleFPS))
	b.Output(filepath.Join(work, "sample_%05d.png"))

	_, err := p.runner.Run(ctx, p.tools.FFmpeg, b.Build())
	return err
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// SaveImage writes the image as JPEG or PNG depending on the output
// extension. JPEG encode failures fall back to PNG alongside.
func SaveImage(path string, img image.Image, quality int) error {
	if quality <= 0 {
		quality = 2
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	f, err := os.Create(longPath(path))
	if err != nil {
		return err
	}

	switch ext {
	case ".png":
		err = png.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: JPEGQuality(quality)})
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		return nil
	}
	if ext == ".png" {
		return err
	}

	// JPEG writer failed; retry as PNG next to the requested path.
	os.Remove(longPath(path))
	alt := strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	af, aerr := os.Create(longPath(alt))
	if aerr != nil {
		return err
	}
	if perr := png.Encode(af, img); perr != nil {
		af.Close()
		os.Remove(longPath(alt))
		return err
	}
	return af.Close()
}

// longPath prefixes absolute Windows paths with \\?\ so writes survive
// the legacy MAX_PATH limit.
func longPath(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}
	if strings.HasPrefix(path, `\\?\`) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return `\\?\` + abs
}
