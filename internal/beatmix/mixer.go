// Package beatmix renders beat-synchronized mixes: every inter-beat
// interval is filled with a random slice of the media pool, the segments
// are concat-copied and remuxed with the matching audio slice.
package beatmix

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/jmylchreest/clipforge/internal/beats"
	"github.com/jmylchreest/clipforge/internal/concat"
	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/media"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/normalize"
	"github.com/jmylchreest/clipforge/internal/util"
)

// DefaultClipMinInterval is the shortest segment the mixer will cut.
const DefaultClipMinInterval = 0.3

// Window is a half-open time range within the audio track.
type Window struct {
	Start float64
	End   float64
}

func (w Window) valid() bool { return w.End > w.Start && w.Start >= 0 }

// Interval is one video segment to render, [Start, Start+Duration) on
// the audio timeline.
type Interval struct {
	Start    float64
	Duration float64
}

// Request describes one beat mix.
type Request struct {
	// Audio is the BGM track driving the cut points.
	Audio string
	// MediaDir is the pool of videos and images to slice from.
	MediaDir string
	// OutputDir receives the final MP4 and the working directory.
	OutputDir string
	// Window restricts the mix to a part of the track. Zero value means
	// use the sidecar suggestion, then the whole track.
	Window Window
	// ClipMinInterval is the shortest allowed segment; beats closer than
	// this merge forward. Zero means DefaultClipMinInterval.
	ClipMinInterval float64
	// Mode selects the beat extraction strategy when no sidecar exists.
	Mode beats.Mode
	// UseGPU enables hardware encoding for segment renders.
	UseGPU bool
	// Seed makes pool picks reproducible. Zero means non-deterministic.
	Seed int64
}

// Result describes the produced mix.
type Result struct {
	Output   string
	Segments int
	Window   Window
}

// Mixer renders beat mixes.
type Mixer struct {
	tools      *ffmpeg.Tools
	runner     *ffmpeg.Runner
	prober     *ffmpeg.Prober
	hw         *ffmpeg.HWProbe
	extractor  beats.Extractor
	logger     *slog.Logger
	sampleRate int
}

// New creates a Mixer.
func New(tools *ffmpeg.Tools, runner *ffmpeg.Runner, prober *ffmpeg.Prober, hw *ffmpeg.HWProbe, extractor beats.Extractor, sampleRate int, logger *slog.Logger) *Mixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mixer{
		tools:      tools,
		runner:     runner,
		prober:     prober,
		hw:         hw,
		extractor:  extractor,
		logger:     logger,
		sampleRate: sampleRate,
	}
}

// ResolveWindow picks the effective window: the user's if valid, else the
// sidecar suggestion, else the whole track. The result is clamped to
// [0, duration].
func ResolveWindow(user Window, meta *beats.BeatsMeta) Window {
	w := user
	if !w.valid() {
		h := meta.Suggestion.Highlight
		w = Window{Start: h.StartTime, End: h.EndTime}
	}
	if !w.valid() {
		w = Window{Start: 0, End: meta.Meta.Duration}
	}
	if w.Start < 0 {
		w.Start = 0
	}
	if meta.Meta.Duration > 0 && w.End > meta.Meta.Duration {
		w.End = meta.Meta.Duration
	}
	return w
}

// BuildIntervals turns the beats inside the window into cut intervals.
// Consecutive beats closer than minInterval merge forward until the
// accumulated duration satisfies the minimum. The window bounds act as
// implicit first and last cut points.
func BuildIntervals(grid []float64, w Window, minInterval float64) []Interval {
	if minInterval <= 0 {
		minInterval = DefaultClipMinInterval
	}

	points := []float64{w.Start}
	for _, b := range grid {
		if b > w.Start && b < w.End {
			points = append(points, b)
		}
	}
	points = append(points, w.End)

	var intervals []Interval
	segStart := points[0]
	for i := 1; i < len(points); i++ {
		d := points[i] - segStart
		if d < minInterval-1e-9 && i < len(points)-1 {
			continue // merge forward
		}
		if d <= 0 {
			continue
		}
		intervals = append(intervals, Interval{Start: segStart, Duration: d})
		segStart = points[i]
	}
	return intervals
}

// Run produces one beat mix and returns its path.
func (m *Mixer) Run(ctx context.Context, req Request) (*Result, error) {
	meta, err := m.loadOrExtract(ctx, req)
	if err != nil {
		return nil, err
	}

	window := ResolveWindow(req.Window, meta)
	intervals := BuildIntervals(meta.BeatsInWindow(window.Start, window.End), window, req.ClipMinInterval)
	if len(intervals) == 0 {
		return nil, fmt.Errorf("%w: window [%0.2f, %0.2f] yields no intervals", mediaerr.ErrBadInputKind, window.Start, window.End)
	}

	pool, err := media.List(req.MediaDir, media.ListOptions{Kinds: []media.Kind{media.KindVideo, media.KindImage}})
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: no videos or images in %s", mediaerr.ErrBadInputKind, req.MediaDir)
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	// The working directory is retained on failure for inspection.
	work, err := os.MkdirTemp(req.OutputDir, ".beatmix-*")
	if err != nil {
		return nil, err
	}

	target, err := m.targetResolution(ctx, pool)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(req.Seed))
	if req.Seed == 0 {
		rng = rand.New(rand.NewSource(int64(uuid.New().ID())))
	}

	segments := make([]string, 0, len(intervals))
	for i, iv := range intervals {
		seg := filepath.Join(work, fmt.Sprintf("seg_%04d.mp4", i))
		if err := m.renderSegment(ctx, pool, iv, target, seg, req.UseGPU, rng); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segments = append(segments, seg)
	}

	silent := filepath.Join(work, "video.mp4")
	if err := m.concatCopy(ctx, work, segments, silent); err != nil {
		return nil, err
	}

	audioSlice := filepath.Join(work, "audio.m4a")
	if err := m.extractAudio(ctx, req.Audio, window, audioSlice); err != nil {
		return nil, err
	}

	token := uuid.NewString()[:8]
	out := filepath.Join(req.OutputDir, fmt.Sprintf("beats_mixed_%s.mp4", token))
	if err := m.remux(ctx, silent, audioSlice, out); err != nil {
		os.Remove(out)
		return nil, err
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		os.Remove(out)
		return nil, mediaerr.NewEncodeError(0, "mix output missing or empty")
	}

	os.RemoveAll(work)
	m.logger.Info("rendered beat mix",
		slog.Int("segments", len(segments)),
		slog.String("output", out))
	return &Result{Output: out, Segments: len(segments), Window: window}, nil
}

// loadOrExtract returns the sidecar beats, extracting and saving them
// when no sidecar exists yet.
func (m *Mixer) loadOrExtract(ctx context.Context, req Request) (*beats.BeatsMeta, error) {
	sidecar := beats.SidecarPath(req.Audio)
	if meta, err := beats.Load(sidecar); err == nil {
		return meta, nil
	}
	meta, err := m.extractor.Extract(ctx, req.Audio, req.Mode)
	if err != nil {
		return nil, err
	}
	if err := meta.Save(sidecar); err != nil {
		m.logger.Warn("could not save beats sidecar",
			slog.String("path", sidecar),
			slog.String("error", err.Error()))
	}
	return meta, nil
}

// targetResolution picks the dominant pool video resolution so every
// segment shares codec parameters (required for concat-copy). A pool of
// only images falls back to 1080p landscape.
func (m *Mixer) targetResolution(ctx context.Context, pool []*media.Item) (media.Resolution, error) {
	var videos []*media.Item
	for _, item := range pool {
		if item.Kind == media.KindVideo {
			videos = append(videos, item)
		}
	}
	if len(videos) == 0 {
		return media.Resolution{Width: 1920, Height: 1080}, nil
	}
	groups := media.GroupItems(ctx, m.prober, videos)
	if len(groups) == 0 {
		return media.Resolution{}, fmt.Errorf("%w: no probeable videos in pool", mediaerr.ErrBadInputKind)
	}
	return groups[0].Resolution, nil
}

// renderSegment cuts one interval from a random pool item, re-encoded to
// the uniform profile. Video items get a random start offset; images are
// looped for the interval duration.
func (m *Mixer) renderSegment(ctx context.Context, pool []*media.Item, iv Interval, target media.Resolution, out string, useGPU bool, rng *rand.Rand) error {
	item := pool[rng.Intn(len(pool))]

	b := ffmpeg.NewCommandBuilder()
	switch item.Kind {
	case media.KindVideo:
		dur := item.Duration
		if dur == 0 {
			dur = m.prober.Duration(ctx, item.Path)
		}
		start := 0.0
		if slack := dur - iv.Duration; slack > 0 {
			start = rng.Float64() * slack
		}
		b.Input(util.ToFFmpegPath(item.Path), "-ss", formatSeconds(start))
	case media.KindImage:
		b.Input(util.ToFFmpegPath(item.Path), "-loop", "1")
	default:
		return fmt.Errorf("%w: %s", mediaerr.ErrBadInputKind, filepath.Base(item.Path))
	}
	b.OutputArgs("-t", formatSeconds(iv.Duration))

	// Identical codec parameters across segments, or concat-copy breaks.
	b.VideoFilter(fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		target.Width, target.Height, target.Width, target.Height))

	encoder := ffmpeg.VideoEncoder(m.hw.Vendor(ctx), useGPU)
	b.VideoCodec(encoder)
	if encoder == "h264_nvenc" {
		b.OutputArgs("-preset", "p5", "-cq", "23")
	} else if encoder == "libx264" {
		b.OutputArgs("-preset", "medium", "-crf", "20")
	}
	b.OutputArgs(
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(normalize.TargetFPS),
		"-vsync", "1",
		"-an",
	)
	b.StripMetadata()
	b.Output(out)

	_, err := m.runner.Run(ctx, m.tools.FFmpeg, b.Build())
	return err
}

// concatCopy splices the segments without re-encoding.
func (m *Mixer) concatCopy(ctx context.Context, work string, segments []string, out string) error {
	listPath := filepath.Join(work, "segments.txt")
	if err := concat.WriteListFile(listPath, segments); err != nil {
		return err
	}
	args := ffmpeg.NewCommandBuilder().
		Input(listPath, "-f", "concat", "-safe", "0").
		OutputArgs("-c", "copy").
		Output(out).
		Build()
	_, err := m.runner.Run(ctx, m.tools.FFmpeg, args)
	return err
}

// extractAudio slices the window from the original track as AAC.
func (m *Mixer) extractAudio(ctx context.Context, audio string, w Window, out string) error {
	args := ffmpeg.NewCommandBuilder().
		Input(util.ToFFmpegPath(audio), "-ss", formatSeconds(w.Start)).
		OutputArgs(
			"-t", formatSeconds(w.End-w.Start),
			"-vn",
			"-c:a", "aac",
			"-b:a", "192k",
			"-ar", strconv.Itoa(m.sampleRate),
			"-ac", "2",
		).
		Output(out).
		Build()
	_, err := m.runner.Run(ctx, m.tools.FFmpeg, args)
	return err
}

// remux joins the silent video with the audio slice.
func (m *Mixer) remux(ctx context.Context, video, audio, out string) error {
	args := ffmpeg.NewCommandBuilder().
		Input(video).
		Input(audio).
		OutputArgs("-c", "copy").
		Map("0:v:0").
		Map("1:a:0").
		OutputArgs("-shortest").
		FastStart().
		Output(out).
		Build()
	_, err := m.runner.Run(ctx, m.tools.FFmpeg, args)
	return err
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
