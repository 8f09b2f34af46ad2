// Package concat splices pre-normalized clips of one resolution group
// into a single MP4 via the concat demuxer, with optional BGM remapping.
package concat

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/media"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/util"
)

// OutputSubdir is the well-known subdirectory concatenated videos land in.
const OutputSubdir = "混剪"

// Quality selects the delivery preset.
type Quality string

const (
	QualityBalanced Quality = "balanced"
	QualityCompact  Quality = "compact"
	QualityTiny     Quality = "tiny"
)

// preset is the (NVENC CQ, x264 CRF, AAC bitrate) tuple for a quality.
type preset struct {
	nvencCQ int
	x264CRF int
	aacRate string
}

var presets = map[Quality]preset{
	QualityBalanced: {nvencCQ: 27, x264CRF: 22, aacRate: "128k"},
	QualityCompact:  {nvencCQ: 29, x264CRF: 24, aacRate: "96k"},
	QualityTiny:     {nvencCQ: 31, x264CRF: 26, aacRate: "80k"},
}

// PresetFor returns the preset tuple, falling back to balanced for
// unknown qualities.
func PresetFor(q Quality) (int, int, string) {
	p, ok := presets[q]
	if !ok {
		p = presets[QualityBalanced]
	}
	return p.nvencCQ, p.x264CRF, p.aacRate
}

// Job is a request to produce one concatenated video.
type Job struct {
	// Clips is the ordered list of normalized inputs; all must share one
	// resolution group.
	Clips []string
	// OutputDir receives the list file and the final MP4 (a 混剪
	// subdirectory is created beneath it).
	OutputDir string
	// Index numbers the output within a batch (1-based).
	Index int
	// BGM is an audio file, or a directory to pick one from at random.
	// Empty keeps the concatenated stream's own audio.
	BGM string
	// Quality selects the encode preset.
	Quality Quality
	// UseGPU enables NVENC-class encoding when available.
	UseGPU bool
	// Seed makes the BGM directory pick reproducible. Zero means
	// non-deterministic.
	Seed int64
}

// Concatenator runs concat jobs.
type Concatenator struct {
	tools      *ffmpeg.Tools
	runner     *ffmpeg.Runner
	prober     *ffmpeg.Prober
	hw         *ffmpeg.HWProbe
	logger     *slog.Logger
	sampleRate int
}

// New creates a Concatenator.
func New(tools *ffmpeg.Tools, runner *ffmpeg.Runner, prober *ffmpeg.Prober, hw *ffmpeg.HWProbe, sampleRate int, logger *slog.Logger) *Concatenator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Concatenator{
		tools:      tools,
		runner:     runner,
		prober:     prober,
		hw:         hw,
		logger:     logger,
		sampleRate: sampleRate,
	}
}

// WriteListFile writes the concat-demuxer list: one `file '<path>'` line
// per clip, forward-slash normalized.
func WriteListFile(path string, clips []string) error {
	var b strings.Builder
	for _, clip := range clips {
		abs, err := filepath.Abs(clip)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", filepath.ToSlash(abs))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Run produces the concatenated output and returns its path.
func (c *Concatenator) Run(ctx context.Context, job Job) (string, error) {
	if len(job.Clips) == 0 {
		return "", fmt.Errorf("%w: no clips to concatenate", mediaerr.ErrBadInputKind)
	}

	group, err := c.verifyGroup(ctx, job.Clips)
	if err != nil {
		return "", err
	}

	outDir := filepath.Join(job.OutputDir, OutputSubdir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	index := job.Index
	if index <= 0 {
		index = 1
	}
	token := strings.Split(uuid.NewString(), "-")[0]
	out := filepath.Join(outDir, fmt.Sprintf("concat_%d_%s_%s.mp4", index, token, group.String()))
	listPath := filepath.Join(outDir, fmt.Sprintf("concat_%d_%s.txt", index, token))
	if err := WriteListFile(listPath, job.Clips); err != nil {
		return "", fmt.Errorf("writing concat list: %w", err)
	}
	defer os.Remove(listPath)

	bgm, err := c.pickBGM(job.BGM, job.Seed)
	if err != nil {
		return "", err
	}

	args := c.buildArgs(ctx, listPath, bgm, job)
	args = append(args, out)

	if _, err := c.runner.Run(ctx, c.tools.FFmpeg, args); err != nil {
		os.Remove(out)
		return "", err
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		os.Remove(out)
		return "", mediaerr.NewEncodeError(0, "concat output missing or empty")
	}

	c.logger.Info("concatenated clips",
		slog.Int("clips", len(job.Clips)),
		slog.String("group", group.String()),
		slog.String("output", out))
	return out, nil
}

// verifyGroup probes every clip and ensures they share one resolution.
func (c *Concatenator) verifyGroup(ctx context.Context, clips []string) (media.Resolution, error) {
	var group media.Resolution
	for i, clip := range clips {
		w, h, ok := c.prober.Resolution(ctx, clip)
		if !ok {
			return group, fmt.Errorf("%w: unreadable clip %s", mediaerr.ErrBadInputKind, filepath.Base(clip))
		}
		res := media.Resolution{Width: w, Height: h}
		if i == 0 {
			group = res
			continue
		}
		if res != group {
			return group, fmt.Errorf("%w: %s is %s, group is %s",
				mediaerr.ErrBadInputKind, filepath.Base(clip), res.String(), group.String())
		}
	}
	return group, nil
}

// pickBGM resolves the BGM argument: empty stays empty, a file is used
// as-is, a directory yields one random audio file.
func (c *Concatenator) pickBGM(bgm string, seed int64) (string, error) {
	if bgm == "" {
		return "", nil
	}
	info, err := os.Stat(bgm)
	if err != nil {
		return "", fmt.Errorf("%w: bgm %s: %v", mediaerr.ErrBadInputKind, bgm, err)
	}
	if !info.IsDir() {
		return bgm, nil
	}

	items, err := media.List(bgm, media.ListOptions{Kinds: []media.Kind{media.KindAudio}})
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", fmt.Errorf("%w: no audio files in %s", mediaerr.ErrBadInputKind, bgm)
	}

	rng := rand.New(rand.NewSource(seed))
	if seed == 0 {
		rng = rand.New(rand.NewSource(int64(uuid.New().ID())))
	}
	return items[rng.Intn(len(items))].Path, nil
}

// buildArgs assembles the concat invocation.
//
// Known trade-off: -stream_loop -1 on the BGM input combined with
// -shortest can truncate early on unusual inputs; the loop is capped by
// the video duration in the common case.
func (c *Concatenator) buildArgs(ctx context.Context, listPath, bgm string, job Job) []string {
	b := ffmpeg.NewCommandBuilder()
	b.Input(listPath, "-f", "concat", "-safe", "0")
	if bgm != "" {
		b.Input(util.ToFFmpegPath(bgm), "-stream_loop", "-1")
	}

	cq, crf, aacRate := PresetFor(job.Quality)
	encoder := ffmpeg.VideoEncoder(c.hw.Vendor(ctx), job.UseGPU)
	b.VideoCodec(encoder)
	if encoder == "h264_nvenc" {
		b.OutputArgs("-preset", "p5", "-cq", strconv.Itoa(cq))
	} else {
		b.OutputArgs("-preset", "medium", "-crf", strconv.Itoa(crf))
	}
	b.OutputArgs("-pix_fmt", "yuv420p")

	b.AudioCodec("aac")
	b.OutputArgs("-b:a", aacRate, "-ar", strconv.Itoa(c.sampleRate), "-ac", "2")

	if bgm != "" {
		b.Map("0:v:0")
		b.Map("1:a:0")
		b.OutputArgs("-shortest")
	}

	b.StripMetadata()
	b.FastStart()
	return b.Build()
}
