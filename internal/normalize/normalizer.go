// Package normalize re-encodes arbitrary source media into the uniform
// profile that makes downstream concatenation safe: H.264, yuv420p,
// constant 25 fps, even dimensions, MP4 with faststart, and one audio
// profile per run.
package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/media"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/util"
)

// Mode selects the encoder quality profile.
type Mode string

const (
	// ModeLossless is the highest-quality profile.
	ModeLossless Mode = "lossless"
	// ModeRelease is the standard delivery profile.
	ModeRelease Mode = "release"
	// ModePreview is the fast low-bitrate profile for rough cuts.
	ModePreview Mode = "preview"
)

// TargetFPS is the constant frame rate all normalized clips share.
const TargetFPS = 25

// qualityParams maps a mode to its encoder parameters.
type qualityParams struct {
	x264CRF     int
	x264Preset  string
	nvencCQ     int
	nvencPreset string
	audioRate   string
}

var qualityTable = map[Mode]qualityParams{
	ModeLossless: {x264CRF: 20, x264Preset: "slow", nvencCQ: 19, nvencPreset: "p7", audioRate: "192k"},
	ModeRelease:  {x264CRF: 24, x264Preset: "slower", nvencCQ: 27, nvencPreset: "p6", audioRate: "128k"},
	ModePreview:  {x264CRF: 28, x264Preset: "fast", nvencCQ: 30, nvencPreset: "p3", audioRate: "96k"},
}

// rateCap is a maxrate/bufsize pair scaled by resolution.
type rateCap struct {
	minLongSide int
	maxrate     string
	bufsize     string
}

// Largest-first; matched on the longer side of the frame.
var rateCaps = []rateCap{
	{3840, "12M", "24M"},
	{2560, "10M", "20M"},
	{1920, "8M", "16M"},
	{1280, "5M", "10M"},
	{0, "3M", "6M"},
}

// RateCapFor returns the maxrate/bufsize for a frame size.
func RateCapFor(width, height int) (string, string) {
	long := width
	if height > long {
		long = height
	}
	for _, rc := range rateCaps {
		if long >= rc.minLongSide {
			return rc.maxrate, rc.bufsize
		}
	}
	return "3M", "6M"
}

// Request describes one normalization.
type Request struct {
	// Input is the source video path.
	Input string
	// Root is the directory under which normalized/<WxH>/ is created.
	Root string
	// Mode selects the quality profile (default ModeRelease).
	Mode Mode
	// UseGPU enables hardware encoding when a vendor is available.
	UseGPU bool
	// TrimHead skips the first N seconds (fast-seek before input).
	TrimHead float64
	// TrimTail drops the last N seconds; requires a duration probe.
	TrimTail float64
}

// Result describes the produced clip.
type Result struct {
	Output  string
	Width   int
	Height  int
	Skipped bool
}

// Normalizer re-encodes sources into the uniform profile.
type Normalizer struct {
	tools      *ffmpeg.Tools
	runner     *ffmpeg.Runner
	prober     *ffmpeg.Prober
	hw         *ffmpeg.HWProbe
	logger     *slog.Logger
	sampleRate int
	channels   int
}

// New creates a Normalizer.
func New(tools *ffmpeg.Tools, runner *ffmpeg.Runner, prober *ffmpeg.Prober, hw *ffmpeg.HWProbe, sampleRate, channels int, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		tools:      tools,
		runner:     runner,
		prober:     prober,
		hw:         hw,
		logger:     logger,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// OutputPath returns the canonical output path for a source of the given
// resolution: <root>/normalized/<WxH>/<stem>.mp4.
func OutputPath(root, input string, width, height int) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	group := media.Resolution{Width: width, Height: height}
	return filepath.Join(root, "normalized", group.String(), stem+".mp4")
}

// Normalize re-encodes one source. If the canonical output already
// exists the call is a no-op (idempotent, skip-existing).
func (n *Normalizer) Normalize(ctx context.Context, req Request) (*Result, error) {
	if media.Classify(req.Input) != media.KindVideo {
		return nil, fmt.Errorf("%w: %s is not a video", mediaerr.ErrBadInputKind, filepath.Base(req.Input))
	}
	if req.Mode == "" {
		req.Mode = ModeRelease
	}
	params, ok := qualityTable[req.Mode]
	if !ok {
		return nil, fmt.Errorf("%w: unknown quality mode %q", mediaerr.ErrBadInputKind, req.Mode)
	}

	info, err := n.prober.StreamInfo(ctx, req.Input)
	if err != nil {
		return nil, err
	}

	out := OutputPath(req.Root, req.Input, info.Width, info.Height)
	if fileExists(out) {
		n.logger.Debug("normalized output exists, skipping",
			slog.String("output", out))
		return &Result{Output: out, Width: info.Width, Height: info.Height, Skipped: true}, nil
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	args, err := n.buildArgs(ctx, req, params, info, out)
	if err != nil {
		return nil, err
	}

	if _, err := n.runner.Run(ctx, n.tools.FFmpeg, args); err != nil {
		// Leave no truncated artifact behind for skip-existing to trust.
		os.Remove(out)
		return nil, err
	}
	if !fileNonEmpty(out) {
		os.Remove(out)
		return nil, mediaerr.NewEncodeError(0, "output missing or empty after encode")
	}

	return &Result{Output: out, Width: info.Width, Height: info.Height}, nil
}

// buildArgs assembles the ffmpeg invocation for one normalization.
func (n *Normalizer) buildArgs(ctx context.Context, req Request, params qualityParams, info *ffmpeg.StreamInfo, out string) ([]string, error) {
	b := ffmpeg.NewCommandBuilder()

	var inputArgs []string
	if req.TrimHead > 0 {
		// -ss before the input for fast seek.
		inputArgs = append(inputArgs, "-ss", formatSeconds(req.TrimHead))
	}
	b.Input(util.ToFFmpegPath(req.Input), inputArgs...)

	if req.TrimTail > 0 {
		// -t (duration) rather than -to: unambiguous with a head trim.
		total := info.Duration
		if total <= 0 {
			total = n.prober.Duration(ctx, req.Input)
		}
		keep := total - req.TrimHead - req.TrimTail
		if keep <= 0 {
			return nil, fmt.Errorf("%w: trim larger than duration (%0.2fs)", mediaerr.ErrBadInputKind, total)
		}
		b.OutputArgs("-t", formatSeconds(keep))
	}

	// Even dimensions are mandatory for yuv420p.
	b.VideoFilter("pad=ceil(iw/2)*2:ceil(ih/2)*2")

	encoder := ffmpeg.VideoEncoder(n.hw.Vendor(ctx), req.UseGPU)
	b.VideoCodec(encoder)
	switch encoder {
	case "h264_nvenc":
		b.OutputArgs("-preset", params.nvencPreset, "-cq", strconv.Itoa(params.nvencCQ))
	case "h264_videotoolbox":
		// videotoolbox has no CQ; steer quality with the x264-equivalent
		// constant-quality knob.
		b.OutputArgs("-q:v", strconv.Itoa(100-params.x264CRF*2))
	case "h264_qsv":
		b.OutputArgs("-global_quality", strconv.Itoa(params.x264CRF))
	case "h264_amf":
		b.OutputArgs("-quality", "balanced", "-qp_i", strconv.Itoa(params.x264CRF), "-qp_p", strconv.Itoa(params.x264CRF))
	default:
		b.OutputArgs("-preset", params.x264Preset, "-crf", strconv.Itoa(params.x264CRF))
	}

	maxrate, bufsize := RateCapFor(info.Width, info.Height)
	b.OutputArgs(
		"-maxrate", maxrate,
		"-bufsize", bufsize,
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(TargetFPS),
		"-vsync", "1",
	)

	b.AudioCodec("aac")
	b.OutputArgs(
		"-b:a", params.audioRate,
		"-ar", strconv.Itoa(n.sampleRate),
		"-ac", strconv.Itoa(n.channels),
	)

	b.StripMetadata()
	b.FastStart()
	b.Output(out)
	return b.Build(), nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func fileNonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
