package slicer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jmylchreest/clipforge/internal/beats"
	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/media"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/subtitle"
	"github.com/jmylchreest/clipforge/internal/util"
)

// Request describes one slicing run over a single source video.
type Request struct {
	// Input is the source video.
	Input string
	// OutputDir receives the rendered slices.
	OutputDir string
	// Profile names the scene profile (ecommerce, game, entertainment,
	// jumpcut).
	Profile string
	// Language hints the ASR language; empty means auto-detect.
	Language string
	// UseGPU enables hardware encoding.
	UseGPU bool
	// WithSubtitles burns a transcript into each slice.
	WithSubtitles bool
	// VisionFilter gates windows through the captioner. Ignored when no
	// captioner is configured.
	VisionFilter bool
	// SubtitleKeywords get color-highlighted in burned subtitles; empty
	// falls back to the profile's high keywords.
	SubtitleKeywords []string
}

// Result describes the rendered slices.
type Result struct {
	Slices  []string
	Windows []Window
}

// Slicer cuts highlight scenes from source video.
type Slicer struct {
	tools       *ffmpeg.Tools
	runner      *ffmpeg.Runner
	prober      *ffmpeg.Prober
	hw          *ffmpeg.HWProbe
	transcriber Transcriber
	captioner   VisionCaptioner
	burner      *subtitle.Burner
	logger      *slog.Logger
}

// New creates a Slicer. captioner may be nil; the vision filter is then
// skipped.
func New(tools *ffmpeg.Tools, runner *ffmpeg.Runner, prober *ffmpeg.Prober, hw *ffmpeg.HWProbe, transcriber Transcriber, captioner VisionCaptioner, logger *slog.Logger) *Slicer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slicer{
		tools:       tools,
		runner:      runner,
		prober:      prober,
		hw:          hw,
		transcriber: transcriber,
		captioner:   captioner,
		burner:      subtitle.NewBurner(tools, runner, hw, logger),
		logger:      logger,
	}
}

// Run slices one source according to the requested profile.
func (s *Slicer) Run(ctx context.Context, req Request) (*Result, error) {
	if media.Classify(req.Input) != media.KindVideo {
		return nil, fmt.Errorf("%w: %s is not a video", mediaerr.ErrBadInputKind, filepath.Base(req.Input))
	}
	profile, err := ProfileFor(req.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mediaerr.ErrBadInputKind, err)
	}
	if s.transcriber == nil {
		return nil, fmt.Errorf("%w: no transcriber configured", mediaerr.ErrModelLoadFailure)
	}

	transcript, err := s.transcriber.Transcribe(ctx, req.Input, TranscribeOptions{
		Language:  req.Language,
		VADFilter: true,
	})
	if err != nil {
		return nil, err
	}

	if profile.Jumpcut {
		return s.runJumpcut(ctx, req, profile, transcript)
	}

	duration := s.prober.Duration(ctx, req.Input)

	var peaks []float64
	if profile.EnergyAnchors {
		samples, rate, err := beats.DecodeMono(ctx, s.tools, s.runner, req.Input)
		if err != nil {
			s.logger.Warn("energy analysis failed, using keyword anchors only",
				slog.String("error", err.Error()))
		} else {
			peaks = EnergyPeaks(samples, rate)
		}
	}

	windows := DetectWindows(transcript, peaks, duration, profile)
	if len(windows) == 0 {
		return &Result{}, nil
	}

	if req.VisionFilter && s.captioner != nil {
		windows, err = s.visionFilter(ctx, req.Input, windows, profile)
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(req.Input), filepath.Ext(req.Input))
	result := &Result{Windows: windows}
	for i, w := range windows {
		token := uuid.NewString()[:8]
		out := filepath.Join(req.OutputDir, fmt.Sprintf("%s_slice_%02d_%s.mp4", stem, i+1, token))
		if err := s.encodeSlice(ctx, req.Input, w, out, req.UseGPU); err != nil {
			return nil, fmt.Errorf("slice %d: %w", i+1, err)
		}
		if req.WithSubtitles {
			if err := s.burnSubtitles(ctx, out, req, profile); err != nil {
				return nil, fmt.Errorf("slice %d subtitles: %w", i+1, err)
			}
		}
		result.Slices = append(result.Slices, out)
	}

	s.logger.Info("sliced scenes",
		slog.String("profile", profile.Name),
		slog.Int("windows", len(windows)),
		slog.Int("slices", len(result.Slices)))
	return result, nil
}

// visionFilter keeps only windows whose mid-frame caption mentions a
// visual keyword.
func (s *Slicer) visionFilter(ctx context.Context, input string, windows []Window, p Profile) ([]Window, error) {
	if len(p.VisualKeywords) == 0 {
		return windows, nil
	}
	work, err := os.MkdirTemp("", "clipforge-vision-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(work)

	var kept []Window
	for i, w := range windows {
		frame := filepath.Join(work, fmt.Sprintf("win_%02d.jpg", i))
		mid := w.Start + w.Duration()/2
		if err := s.extractFrame(ctx, input, mid, frame); err != nil {
			return nil, err
		}
		caption, err := s.captioner.Caption(ctx, frame)
		if err != nil {
			return nil, err
		}
		if matchesAny(caption, p.VisualKeywords) {
			kept = append(kept, w)
		} else {
			s.logger.Debug("vision filter dropped window",
				slog.Float64("start", w.Start),
				slog.String("caption", caption))
		}
	}
	return kept, nil
}

// extractFrame grabs one frame at the given timestamp.
func (s *Slicer) extractFrame(ctx context.Context, input string, at float64, out string) error {
	args := ffmpeg.NewCommandBuilder().
		Input(util.ToFFmpegPath(input), "-ss", formatSeconds(at)).
		OutputArgs("-frames:v", "1", "-q:v", "2").
		Output(out).
		Build()
	_, err := s.runner.Run(ctx, s.tools.FFmpeg, args)
	return err
}

// encodeSlice renders one window with -ss/-t and the uniform profile.
func (s *Slicer) encodeSlice(ctx context.Context, input string, w Window, out string, useGPU bool) error {
	b := ffmpeg.NewCommandBuilder().
		Input(util.ToFFmpegPath(input), "-ss", formatSeconds(w.Start)).
		OutputArgs("-t", formatSeconds(w.Duration()))

	encoder := ffmpeg.VideoEncoder(s.hw.Vendor(ctx), useGPU)
	b.VideoCodec(encoder)
	if encoder == "h264_nvenc" {
		b.OutputArgs("-preset", "p5", "-cq", "23")
	} else if encoder == "libx264" {
		b.OutputArgs("-preset", "medium", "-crf", "20")
	}
	b.OutputArgs("-pix_fmt", "yuv420p")
	b.AudioCodec("aac")
	b.OutputArgs("-b:a", "128k")
	b.StripMetadata()
	b.FastStart()
	b.Output(out)

	if _, err := s.runner.Run(ctx, s.tools.FFmpeg, b.Build()); err != nil {
		os.Remove(out)
		return err
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		os.Remove(out)
		return mediaerr.NewEncodeError(0, "slice output missing or empty")
	}
	return nil
}

// burnSubtitles transcribes one rendered slice and burns the captions
// in-place (via a temp output swapped over the original).
func (s *Slicer) burnSubtitles(ctx context.Context, slicePath string, req Request, p Profile) error {
	transcript, err := s.transcriber.Transcribe(ctx, slicePath, TranscribeOptions{
		Language:  req.Language,
		VADFilter: true,
	})
	if err != nil {
		return err
	}
	if len(transcript.Segments) == 0 {
		return nil
	}

	cues := make([]subtitle.Cue, 0, len(transcript.Segments))
	for _, seg := range transcript.Segments {
		cues = append(cues, subtitle.Cue{Start: seg.Start, End: seg.End, Text: seg.Text})
	}

	w, h, ok := s.prober.Resolution(ctx, slicePath)
	if !ok {
		return fmt.Errorf("%w: unreadable slice %s", mediaerr.ErrProbeFailure, filepath.Base(slicePath))
	}

	keywords := req.SubtitleKeywords
	if len(keywords) == 0 {
		keywords = p.HighKeywords
	}

	assPath := strings.TrimSuffix(slicePath, filepath.Ext(slicePath)) + ".ass"
	if err := subtitle.WriteASS(assPath, cues, subtitle.ASSOptions{
		Width:    w,
		Height:   h,
		Keywords: keywords,
	}); err != nil {
		return err
	}
	defer os.Remove(assPath)

	burned := strings.TrimSuffix(slicePath, filepath.Ext(slicePath)) + ".sub.mp4"
	if err := s.burner.Burn(ctx, slicePath, assPath, burned, subtitle.BurnOptions{
		Width:  w,
		Height: h,
		UseGPU: req.UseGPU,
	}); err != nil {
		os.Remove(burned)
		return err
	}
	return os.Rename(burned, slicePath)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
