package slicer

import "math"

// energyWindowSec is the RMS window for peak detection.
const energyWindowSec = 0.5

// energyPeakFactor is the threshold multiplier over the track average.
const energyPeakFactor = 1.8

// EnergyPeaks returns timestamps of 500 ms windows whose RMS exceeds the
// track average by the peak factor. Consecutive hot windows collapse to
// the first one.
func EnergyPeaks(samples []float64, rate int) []float64 {
	if len(samples) == 0 || rate <= 0 {
		return nil
	}
	win := int(float64(rate) * energyWindowSec)
	if win <= 0 || len(samples) < win {
		return nil
	}

	n := len(samples) / win
	rms := make([]float64, n)
	var total float64
	for i := 0; i < n; i++ {
		var sum float64
		for _, s := range samples[i*win : (i+1)*win] {
			sum += s * s
		}
		rms[i] = math.Sqrt(sum / float64(win))
		total += rms[i]
	}
	avg := total / float64(n)
	threshold := avg * energyPeakFactor

	var peaks []float64
	prevHot := false
	for i, v := range rms {
		hot := v > threshold
		if hot && !prevHot {
			peaks = append(peaks, float64(i)*energyWindowSec)
		}
		prevHot = hot
	}
	return peaks
}
