// Package bgmreplace swaps a video's background music while preserving
// its vocals, with gain staging adapted to how loud the vocals are.
package bgmreplace

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmylchreest/clipforge/internal/beats"
	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/media"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/util"
)

// Strategy selects what the separator extracts.
type Strategy string

const (
	StrategyVocalsOnly     Strategy = "vocals_only"
	StrategyVocalsAndOther Strategy = "vocals_and_other"
	StrategyCustomMix      Strategy = "custom_mix"
	StrategyAdaptive       Strategy = "adaptive"
)

// Separation is the separator's output stems.
type Separation struct {
	// VocalsPath is the isolated vocal track (WAV).
	VocalsPath string
	// OtherPath is the residual; may be empty for vocals-only output.
	OtherPath string
}

// AudioSeparator isolates vocals from a mixed track. Implementations
// wrap an external source-separation model.
type AudioSeparator interface {
	Separate(ctx context.Context, audioPath string, strategy Strategy, workDir string) (*Separation, error)
}

// Gains is one row of the adaptive gain table.
type Gains struct {
	Vocal float64
	BGM   float64
	Total float64
}

// GainsForVocalRMS maps vocal loudness onto mix gains: loud vocals get
// quieter BGM, quiet vocals get boosted over louder BGM.
func GainsForVocalRMS(rms float64) Gains {
	switch {
	case rms > 0.15:
		return Gains{Vocal: 1.4, BGM: 0.12, Total: 0.75}
	case rms > 0.08:
		return Gains{Vocal: 1.3, BGM: 0.18, Total: 0.80}
	case rms > 0.03:
		return Gains{Vocal: 1.5, BGM: 0.25, Total: 0.80}
	default:
		return Gains{Vocal: 1.6, BGM: 0.35, Total: 0.85}
	}
}

// Request describes one replacement.
type Request struct {
	// Video is the source whose BGM gets replaced.
	Video string
	// BGM is the new background track.
	BGM string
	// Output is the destination MP4.
	Output string
	// Strategy is forwarded to the separator (default adaptive).
	Strategy Strategy
}

// Replacer performs BGM replacement.
type Replacer struct {
	tools      *ffmpeg.Tools
	runner     *ffmpeg.Runner
	prober     *ffmpeg.Prober
	separator  AudioSeparator
	logger     *slog.Logger
	sampleRate int
}

// New creates a Replacer.
func New(tools *ffmpeg.Tools, runner *ffmpeg.Runner, prober *ffmpeg.Prober, separator AudioSeparator, sampleRate int, logger *slog.Logger) *Replacer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replacer{
		tools:      tools,
		runner:     runner,
		prober:     prober,
		separator:  separator,
		logger:     logger,
		sampleRate: sampleRate,
	}
}

// Run replaces the BGM of one video.
func (r *Replacer) Run(ctx context.Context, req Request) error {
	if media.Classify(req.Video) != media.KindVideo {
		return fmt.Errorf("%w: %s is not a video", mediaerr.ErrBadInputKind, filepath.Base(req.Video))
	}
	if r.separator == nil {
		return fmt.Errorf("%w: no audio separator configured", mediaerr.ErrModelLoadFailure)
	}
	if req.Strategy == "" {
		req.Strategy = StrategyAdaptive
	}

	work, err := os.MkdirTemp("", "clipforge-bgm-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	source := filepath.Join(work, "source.wav")
	if err := r.demuxAudio(ctx, req.Video, source); err != nil {
		return err
	}

	sep, err := r.separator.Separate(ctx, source, req.Strategy, work)
	if err != nil {
		return err
	}

	samples, _, err := beats.DecodeMono(ctx, r.tools, r.runner, sep.VocalsPath)
	if err != nil {
		return err
	}
	rms := trackRMS(samples)
	gains := GainsForVocalRMS(rms)

	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return err
	}
	if err := r.mixAndRemux(ctx, req, sep.VocalsPath, gains); err != nil {
		os.Remove(req.Output)
		return err
	}
	if info, err := os.Stat(req.Output); err != nil || info.Size() == 0 {
		os.Remove(req.Output)
		return mediaerr.NewEncodeError(0, "remux output missing or empty")
	}

	r.logger.Info("replaced bgm",
		slog.String("video", filepath.Base(req.Video)),
		slog.Float64("vocal_rms", rms),
		slog.Float64("vocal_gain", gains.Vocal),
		slog.Float64("bgm_gain", gains.BGM))
	return nil
}

// demuxAudio extracts the source audio as PCM WAV.
func (r *Replacer) demuxAudio(ctx context.Context, video, out string) error {
	args := ffmpeg.NewCommandBuilder().
		Input(util.ToFFmpegPath(video)).
		OutputArgs("-vn", "-c:a", "pcm_s16le", "-ar", strconv.Itoa(r.sampleRate), "-ac", "2").
		Output(out).
		Build()
	_, err := r.runner.Run(ctx, r.tools.FFmpeg, args)
	return err
}

// mixAndRemux loops the BGM under the vocals with the adaptive gains and
// remuxes against the untouched video stream in one pass.
func (r *Replacer) mixAndRemux(ctx context.Context, req Request, vocals string, g Gains) error {
	filter := fmt.Sprintf(
		"[1:a]volume=%s[v];[2:a]volume=%s[b];[v][b]amix=inputs=2:duration=first:normalize=0,volume=%s[out]",
		formatGain(g.Vocal), formatGain(g.BGM), formatGain(g.Total))

	args := ffmpeg.NewCommandBuilder().
		Input(util.ToFFmpegPath(req.Video)).
		Input(vocals).
		Input(util.ToFFmpegPath(req.BGM), "-stream_loop", "-1").
		OutputArgs("-filter_complex", filter).
		Map("0:v:0").
		Map("[out]").
		OutputArgs(
			"-c:v", "copy",
			"-c:a", "aac",
			"-ar", strconv.Itoa(r.sampleRate),
			"-ac", "2",
			"-shortest",
		).
		FastStart().
		Output(req.Output).
		Build()
	_, err := r.runner.Run(ctx, r.tools.FFmpeg, args)
	return err
}

func trackRMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func formatGain(g float64) string {
	return strconv.FormatFloat(g, 'f', 2, 64)
}
