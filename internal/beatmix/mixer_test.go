package beatmix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/clipforge/internal/beats"
)

func metaWith(duration, hStart, hEnd float64) *beats.BeatsMeta {
	return &beats.BeatsMeta{
		Meta: beats.Meta{Duration: duration},
		Suggestion: beats.Suggestion{
			Highlight: beats.Highlight{StartTime: hStart, EndTime: hEnd},
		},
	}
}

func TestResolveWindowUserWins(t *testing.T) {
	w := ResolveWindow(Window{Start: 5, End: 15}, metaWith(60, 20, 40))
	assert.Equal(t, Window{Start: 5, End: 15}, w)
}

func TestResolveWindowFallsBackToSuggestion(t *testing.T) {
	w := ResolveWindow(Window{}, metaWith(60, 20, 40))
	assert.Equal(t, Window{Start: 20, End: 40}, w)
}

func TestResolveWindowFallsBackToFullTrack(t *testing.T) {
	w := ResolveWindow(Window{}, metaWith(60, 0, 0))
	assert.Equal(t, Window{Start: 0, End: 60}, w)
}

func TestResolveWindowClamps(t *testing.T) {
	w := ResolveWindow(Window{Start: -2, End: 120}, metaWith(60, 0, 0))
	assert.Equal(t, Window{Start: 0, End: 60}, w)
}

func TestBuildIntervalsSimple(t *testing.T) {
	grid := []float64{1.0, 2.0, 3.0}
	intervals := BuildIntervals(grid, Window{Start: 0, End: 4}, 0.3)

	require.Len(t, intervals, 4)
	assert.Equal(t, Interval{Start: 0, Duration: 1}, intervals[0])
	assert.Equal(t, Interval{Start: 1, Duration: 1}, intervals[1])
	assert.Equal(t, Interval{Start: 2, Duration: 1}, intervals[2])
	assert.Equal(t, Interval{Start: 3, Duration: 1}, intervals[3])
}

func TestBuildIntervalsBoundaryBeats(t *testing.T) {
	// Beats on the window edges collapse into the implicit bounds: three
	// interior gaps, three intervals.
	grid := []float64{0, 0.33, 0.66, 1.0}
	intervals := BuildIntervals(grid, Window{Start: 0, End: 1}, 0.33)

	require.Len(t, intervals, 3)
	var total float64
	for _, iv := range intervals {
		assert.GreaterOrEqual(t, iv.Duration, 0.33-1e-6)
		total += iv.Duration
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestBuildIntervalsMergesShortGaps(t *testing.T) {
	// 0.1s apart with a 0.5s minimum: beats merge forward until the
	// accumulated duration clears the bar.
	grid := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	intervals := BuildIntervals(grid, Window{Start: 0, End: 1}, 0.5)

	require.Len(t, intervals, 2)
	assert.InDelta(t, 0.5, intervals[0].Duration, 1e-9)
	assert.InDelta(t, 0.5, intervals[1].Duration, 1e-9)
}

func TestBuildIntervalsTrailingShortGapJoinsLast(t *testing.T) {
	// The final gap is under the minimum but has nothing to merge into;
	// it still becomes an interval so the window is fully covered.
	grid := []float64{0.9}
	intervals := BuildIntervals(grid, Window{Start: 0, End: 1}, 0.3)

	require.Len(t, intervals, 2)
	assert.InDelta(t, 0.9, intervals[0].Duration, 1e-9)
	assert.InDelta(t, 0.1, intervals[1].Duration, 1e-9)
}

func TestBuildIntervalsEmptyGrid(t *testing.T) {
	intervals := BuildIntervals(nil, Window{Start: 2, End: 5}, 0.3)
	require.Len(t, intervals, 1)
	assert.Equal(t, Interval{Start: 2, Duration: 3}, intervals[0])
}

func TestBuildIntervalsDefaultMinimum(t *testing.T) {
	// Zero minInterval falls back to the package default.
	grid := []float64{0.1}
	intervals := BuildIntervals(grid, Window{Start: 0, End: 1}, 0)

	require.Len(t, intervals, 1)
	assert.InDelta(t, 1.0, intervals[0].Duration, 1e-9)
}

func TestBuildIntervalsEmptyWindow(t *testing.T) {
	assert.Empty(t, BuildIntervals(nil, Window{Start: 3, End: 3}, 0.3))
}
