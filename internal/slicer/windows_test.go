package slicer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entertainmentProfile(t *testing.T) Profile {
	t.Helper()
	p, err := ProfileFor("entertainment")
	require.NoError(t, err)
	return p
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, matchesAny("这也太好笑了吧", []string{"好笑"}))
	assert.True(t, matchesAny("That was INSANE", []string{"insane"}))
	assert.False(t, matchesAny("nothing here", []string{"好笑", "insane"}))
	assert.False(t, matchesAny("anything", []string{""}))
}

func TestCountMatches(t *testing.T) {
	assert.Equal(t, 2, countMatches("真的好笑，太经典了", []string{"好笑", "经典", "震惊"}))
	assert.Equal(t, 0, countMatches("plain", []string{"好笑"}))
}

func TestNearestSegment(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 2},
		{Start: 5, End: 8},
		{Start: 10, End: 12},
	}

	assert.Equal(t, 0, nearestSegment(segments, 1))   // inside
	assert.Equal(t, 0, nearestSegment(segments, 3))   // closer to first
	assert.Equal(t, 1, nearestSegment(segments, 4.5)) // closer to second
	assert.Equal(t, 2, nearestSegment(segments, 99))  // past the end
	assert.Equal(t, -1, nearestSegment(nil, 1))
}

func TestDetectWindowsAnchorsAndExpansion(t *testing.T) {
	p := entertainmentProfile(t) // pre 5, post 10, min 10, hits 1
	transcript := &Transcript{Segments: []Segment{
		{Start: 10, End: 12, Text: "开场白"},
		{Start: 30, End: 33, Text: "这段真的笑死我了"},
		{Start: 100, End: 102, Text: "结尾"},
	}}

	windows := DetectWindows(transcript, nil, 200, p)
	require.Len(t, windows, 1)
	assert.InDelta(t, 25, windows[0].Start, 1e-9)
	assert.InDelta(t, 43, windows[0].End, 1e-9)
	assert.GreaterOrEqual(t, windows[0].Hits, 1)
}

func TestDetectWindowsClampsToTrack(t *testing.T) {
	p := entertainmentProfile(t)
	transcript := &Transcript{Segments: []Segment{
		{Start: 1, End: 3, Text: "开头就高能"},
	}}

	windows := DetectWindows(transcript, nil, 11, p)
	require.Len(t, windows, 1)
	assert.Equal(t, 0.0, windows[0].Start)
	assert.Equal(t, 11.0, windows[0].End)
}

func TestDetectWindowsMergesOverlaps(t *testing.T) {
	p := entertainmentProfile(t)
	transcript := &Transcript{Segments: []Segment{
		{Start: 20, End: 22, Text: "名场面来了"},
		{Start: 25, End: 27, Text: "又一个名场面"},
	}}

	windows := DetectWindows(transcript, nil, 100, p)
	require.Len(t, windows, 1)
	assert.InDelta(t, 15, windows[0].Start, 1e-9)
	assert.InDelta(t, 37, windows[0].End, 1e-9)
}

func TestDetectWindowsTruncatesLong(t *testing.T) {
	p := entertainmentProfile(t)
	// A chain of overlapping anchors spanning well past MaxHard.
	var segments []Segment
	for i := 0; i < 10; i++ {
		start := float64(i) * 12
		segments = append(segments, Segment{Start: start, End: start + 2, Text: "高能片段"})
	}

	windows := DetectWindows(&Transcript{Segments: segments}, nil, 500, p)
	require.NotEmpty(t, windows)
	for _, w := range windows {
		assert.LessOrEqual(t, w.Duration(), p.MaxHard+1e-9)
	}
}

func TestDetectWindowsHitGate(t *testing.T) {
	p := entertainmentProfile(t)
	p.MinHits = 3
	transcript := &Transcript{Segments: []Segment{
		{Start: 30, End: 33, Text: "笑死"},
	}}

	windows := DetectWindows(transcript, nil, 100, p)
	assert.Empty(t, windows)
}

func TestDetectWindowsNoAnchors(t *testing.T) {
	p := entertainmentProfile(t)
	transcript := &Transcript{Segments: []Segment{
		{Start: 10, End: 12, Text: "平平无奇"},
	}}

	assert.Empty(t, DetectWindows(transcript, nil, 100, p))
	assert.Empty(t, DetectWindows(&Transcript{}, nil, 100, p))
}

func TestDetectWindowsEnergyAnchors(t *testing.T) {
	p, err := ProfileFor("game")
	require.NoError(t, err)

	// No keyword matches at all; the energy peak alone must anchor a
	// window, and the unmatched peak counts as its one hit.
	transcript := &Transcript{Segments: []Segment{
		{Start: 28, End: 32, Text: "正常游戏画面"},
		{Start: 60, End: 62, Text: "日常对话"},
	}}

	windows := DetectWindows(transcript, []float64{30}, 200, p)
	require.Len(t, windows, 1)
	assert.InDelta(t, 20, windows[0].Start, 1e-9) // 28 - 8 pre-roll
	assert.GreaterOrEqual(t, windows[0].Hits, 1)
}

func TestDetectWindowsEnergyIgnoredWithoutFlag(t *testing.T) {
	p := entertainmentProfile(t)
	transcript := &Transcript{Segments: []Segment{
		{Start: 28, End: 32, Text: "正常内容"},
	}}

	assert.Empty(t, DetectWindows(transcript, []float64{30}, 200, p))
}
