package beats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clicks synthesizes a silent track with short loud bursts at the given
// times, the simplest possible signal with unambiguous onsets.
func clicks(duration float64, times []float64) []float64 {
	samples := make([]float64, int(duration*analysisRate))
	for _, t := range times {
		start := int(t * analysisRate)
		for i := start; i < start+2048 && i < len(samples); i++ {
			samples[i] = 0.9
		}
	}
	return samples
}

func TestPeakPickFindsClicks(t *testing.T) {
	want := []float64{1.0, 2.0, 3.0, 4.0}
	samples := clicks(5, want)

	energies := frameEnergies(samples)
	beats := peakPick(energyFlux(energies), analysisRate)

	require.Len(t, beats, len(want))
	for i, b := range beats {
		assert.InDelta(t, want[i], b, 0.1, "beat %d", i)
	}
}

func TestPeakPickMinGap(t *testing.T) {
	// Two clicks 0.1s apart collapse into one: below the minimum gap.
	samples := clicks(2, []float64{1.0, 1.1})

	beats := peakPick(energyFlux(frameEnergies(samples)), analysisRate)
	assert.Len(t, beats, 1)
}

func TestPeakPickSilence(t *testing.T) {
	samples := make([]float64, 2*analysisRate)
	beats := peakPick(energyFlux(frameEnergies(samples)), analysisRate)
	assert.Empty(t, beats)
}

func TestUniformGrid(t *testing.T) {
	samples := clicks(4, []float64{0.5, 1.0, 1.5, 2.0})

	grid := uniformGrid(energyFlux(frameEnergies(samples)), analysisRate, 4)
	require.NotEmpty(t, grid)

	// Grid spacing should match the click interval.
	for i := 1; i < len(grid); i++ {
		assert.InDelta(t, 0.5, grid[i]-grid[i-1], 0.1)
	}
	assert.LessOrEqual(t, grid[len(grid)-1], 4.0)
}

func TestMedianInterval(t *testing.T) {
	assert.Equal(t, 0.0, medianInterval(nil))
	assert.Equal(t, 0.0, medianInterval([]float64{1}))
	assert.InDelta(t, 0.5, medianInterval([]float64{0, 0.5, 1.0, 1.5}), 1e-9)
	// Outlier gap does not move the median.
	assert.InDelta(t, 0.5, medianInterval([]float64{0, 0.5, 1.0, 1.5, 5.0}), 1e-9)
}

func TestSuggestHighlightShortTrack(t *testing.T) {
	h := suggestHighlight([]float64{0.1, 0.2}, analysisRate, 10)
	assert.Equal(t, 0.0, h.StartTime)
	assert.Equal(t, 10.0, h.EndTime)
}

func TestSuggestHighlightPicksLoudStretch(t *testing.T) {
	// 60s track, loud between 30s and 50s.
	samples := make([]float64, 60*analysisRate)
	for i := 30 * analysisRate; i < 50*analysisRate; i++ {
		samples[i] = 0.8
	}

	energies := frameEnergies(samples)
	h := suggestHighlight(energies, analysisRate, 60)

	assert.GreaterOrEqual(t, h.StartTime, 29.0)
	assert.LessOrEqual(t, h.EndTime, 51.0)
	assert.InDelta(t, highlightSpan, h.EndTime-h.StartTime, 0.6)
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, std, 1e-9)

	mean, std = meanStd(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, std)
}

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, rms(nil))
	assert.InDelta(t, 0.5, rms([]float64{0.5, -0.5, 0.5, -0.5}), 1e-9)
	assert.InDelta(t, math.Sqrt(0.5), rms([]float64{1, 0, -1, 0}), 1e-9)
}
