package bgmreplace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGainsForVocalRMS(t *testing.T) {
	tests := []struct {
		name string
		rms  float64
		want Gains
	}{
		{"loud vocals", 0.20, Gains{Vocal: 1.4, BGM: 0.12, Total: 0.75}},
		{"medium vocals", 0.10, Gains{Vocal: 1.3, BGM: 0.18, Total: 0.80}},
		{"quiet vocals", 0.05, Gains{Vocal: 1.5, BGM: 0.25, Total: 0.80}},
		{"near silence", 0.01, Gains{Vocal: 1.6, BGM: 0.35, Total: 0.85}},
		{"boundary 0.15 falls to medium", 0.15, Gains{Vocal: 1.3, BGM: 0.18, Total: 0.80}},
		{"boundary 0.08 falls to quiet", 0.08, Gains{Vocal: 1.5, BGM: 0.25, Total: 0.80}},
		{"boundary 0.03 falls to silence", 0.03, Gains{Vocal: 1.6, BGM: 0.35, Total: 0.85}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GainsForVocalRMS(tt.rms))
		})
	}
}

func TestTrackRMS(t *testing.T) {
	assert.Zero(t, trackRMS(nil))
	assert.Zero(t, trackRMS([]float64{0, 0, 0}))
	assert.InDelta(t, 0.5, trackRMS([]float64{0.5, -0.5, 0.5, -0.5}), 1e-9)
	assert.InDelta(t, math.Sqrt(0.5), trackRMS([]float64{1, 0, -1, 0}), 1e-9)
}

func TestFormatGain(t *testing.T) {
	assert.Equal(t, "1.40", formatGain(1.4))
	assert.Equal(t, "0.12", formatGain(0.12))
	assert.Equal(t, "0.80", formatGain(0.8))
}
