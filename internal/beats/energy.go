package beats

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-audio/wav"

	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/util"
)

// Analysis parameters. The decode rate keeps analysis cheap while leaving
// plenty of bandwidth for onset detection.
const (
	analysisRate   = 22050
	frameSize      = 1024
	hopSize        = 512
	minBeatGapSec  = 0.25
	highlightSpan  = 15.0
	highlightStep  = 0.5
	fluxThreshBias = 1.5
)

// EnergyExtractor detects beats from short-time energy flux of the
// decoded waveform. It satisfies Extractor.
type EnergyExtractor struct {
	tools  *ffmpeg.Tools
	runner *ffmpeg.Runner
}

// NewEnergyExtractor creates the default beat extractor.
func NewEnergyExtractor(tools *ffmpeg.Tools, runner *ffmpeg.Runner) *EnergyExtractor {
	return &EnergyExtractor{tools: tools, runner: runner}
}

// Extract decodes the track to mono PCM and derives the beat grid and a
// highlight suggestion.
func (e *EnergyExtractor) Extract(ctx context.Context, audioPath string, mode Mode) (*BeatsMeta, error) {
	samples, rate, err := DecodeMono(ctx, e.tools, e.runner, audioPath)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s decoded to zero samples", mediaerr.ErrBadInputKind, filepath.Base(audioPath))
	}

	duration := float64(len(samples)) / float64(rate)
	energies := frameEnergies(samples)
	flux := energyFlux(energies)

	var grid []float64
	switch mode {
	case ModeUniform:
		grid = uniformGrid(flux, rate, duration)
	default:
		grid = peakPick(flux, rate)
	}

	meta := &BeatsMeta{
		Meta:  Meta{Duration: duration},
		Beats: grid,
		Suggestion: Suggestion{
			Highlight: suggestHighlight(energies, rate, duration),
		},
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return meta, nil
}

// DecodeMono renders the track to a temp mono WAV at the analysis rate
// and loads its normalized samples. Video inputs work too; only the
// audio stream is decoded.
func DecodeMono(ctx context.Context, tools *ffmpeg.Tools, runner *ffmpeg.Runner, audioPath string) ([]float64, int, error) {
	tmp, err := os.CreateTemp("", "clipforge-beats-*.wav")
	if err != nil {
		return nil, 0, err
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	args := ffmpeg.NewCommandBuilder().
		Input(util.ToFFmpegPath(audioPath)).
		OutputArgs("-vn", "-ac", "1", "-ar", fmt.Sprint(analysisRate), "-c:a", "pcm_s16le").
		Output(tmp.Name()).
		Build()
	if _, err := runner.Run(ctx, tools.FFmpeg, args); err != nil {
		return nil, 0, err
	}

	f, err := os.Open(tmp.Name())
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: decoding wav: %v", mediaerr.ErrBadInputKind, err)
	}

	scale := math.Pow(2, float64(buf.SourceBitDepth-1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}
	return samples, buf.Format.SampleRate, nil
}

// frameEnergies computes per-frame RMS energy with a fixed hop.
func frameEnergies(samples []float64) []float64 {
	if len(samples) < frameSize {
		return []float64{rms(samples)}
	}
	n := 1 + (len(samples)-frameSize)/hopSize
	energies := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hopSize
		energies[i] = rms(samples[start : start+frameSize])
	}
	return energies
}

func rms(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, s := range window {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(window)))
}

// energyFlux is the half-wave rectified frame-to-frame energy increase.
func energyFlux(energies []float64) []float64 {
	flux := make([]float64, len(energies))
	for i := 1; i < len(energies); i++ {
		if d := energies[i] - energies[i-1]; d > 0 {
			flux[i] = d
		}
	}
	return flux
}

// peakPick selects flux peaks above an adaptive threshold with a minimum
// inter-beat gap.
func peakPick(flux []float64, rate int) []float64 {
	if len(flux) == 0 {
		return nil
	}
	mean, std := meanStd(flux)
	threshold := mean + fluxThreshBias*std

	hopSec := float64(hopSize) / float64(rate)
	minGapFrames := int(minBeatGapSec / hopSec)

	var beats []float64
	last := -minGapFrames
	for i := 1; i < len(flux)-1; i++ {
		if flux[i] < threshold {
			continue
		}
		if flux[i] < flux[i-1] || flux[i] < flux[i+1] {
			continue
		}
		if i-last < minGapFrames {
			continue
		}
		beats = append(beats, float64(i)*hopSec)
		last = i
	}
	sort.Float64s(beats)
	return beats
}

// uniformGrid estimates the dominant inter-beat interval from detected
// peaks and lays a fixed grid across the track.
func uniformGrid(flux []float64, rate int, duration float64) []float64 {
	peaks := peakPick(flux, rate)
	interval := medianInterval(peaks)
	if interval <= 0 {
		interval = 0.5 // 120 BPM default
	}

	start := 0.0
	if len(peaks) > 0 {
		start = math.Mod(peaks[0], interval)
	}
	var grid []float64
	for t := start; t <= duration; t += interval {
		grid = append(grid, t)
	}
	return grid
}

func medianInterval(beats []float64) float64 {
	if len(beats) < 2 {
		return 0
	}
	intervals := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		intervals = append(intervals, beats[i]-beats[i-1])
	}
	sort.Float64s(intervals)
	return intervals[len(intervals)/2]
}

// suggestHighlight finds the highest-energy window of highlightSpan
// seconds (the whole track when shorter).
func suggestHighlight(energies []float64, rate int, duration float64) Highlight {
	if duration <= highlightSpan {
		return Highlight{StartTime: 0, EndTime: duration}
	}

	hopSec := float64(hopSize) / float64(rate)
	spanFrames := int(highlightSpan / hopSec)
	stepFrames := int(highlightStep / hopSec)
	if stepFrames < 1 {
		stepFrames = 1
	}

	// Prefix sums for O(1) window energy.
	prefix := make([]float64, len(energies)+1)
	for i, e := range energies {
		prefix[i+1] = prefix[i] + e
	}

	bestStart, bestSum := 0, -1.0
	for start := 0; start+spanFrames <= len(energies); start += stepFrames {
		sum := prefix[start+spanFrames] - prefix[start]
		if sum > bestSum {
			bestSum = sum
			bestStart = start
		}
	}

	startSec := float64(bestStart) * hopSec
	endSec := math.Min(startSec+highlightSpan, duration)
	return Highlight{StartTime: startSec, EndTime: endSec}
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var varSum float64
	for _, v := range values {
		d := v - mean
		varSum += d * d
	}
	return mean, math.Sqrt(varSum / float64(len(values)))
}
