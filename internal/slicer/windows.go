package slicer

import (
	"sort"
	"strings"
)

// Window is a candidate scene on the source timeline.
type Window struct {
	Start float64
	End   float64
	// Hits counts keyword matches (and unmatched energy peaks) inside.
	Hits int
}

// Duration returns the window length in seconds.
func (w Window) Duration() float64 { return w.End - w.Start }

// matchesAny reports whether text contains any keyword, case-folded.
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// countMatches counts keywords occurring in text, case-folded.
func countMatches(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

// nearestSegment maps a timestamp to the index of the closest segment.
func nearestSegment(segments []Segment, t float64) int {
	best, bestDist := -1, 0.0
	for i, s := range segments {
		var d float64
		switch {
		case t < s.Start:
			d = s.Start - t
		case t > s.End:
			d = t - s.End
		default:
			return i
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// DetectWindows runs anchor detection, expansion, merging and the
// hit/duration gates for one transcript. energyPeaks may be nil for
// profiles without energy anchors.
func DetectWindows(transcript *Transcript, energyPeaks []float64, duration float64, p Profile) []Window {
	segments := transcript.Segments
	if len(segments) == 0 {
		return nil
	}

	anchorSet := make(map[int]bool)
	for i, s := range segments {
		if matchesAny(s.Text, p.HighKeywords) {
			anchorSet[i] = true
		}
	}

	// Energy peaks become anchors on their nearest segment; peaks whose
	// segment has no keyword match count as one hit later.
	unmatchedPeaks := make([]float64, 0, len(energyPeaks))
	if p.EnergyAnchors {
		for _, t := range energyPeaks {
			idx := nearestSegment(segments, t)
			if idx < 0 {
				continue
			}
			if !matchesAny(segments[idx].Text, p.HighKeywords) && !matchesAny(segments[idx].Text, p.MidKeywords) {
				unmatchedPeaks = append(unmatchedPeaks, t)
			}
			anchorSet[idx] = true
		}
	}
	if len(anchorSet) == 0 {
		return nil
	}

	anchors := make([]int, 0, len(anchorSet))
	for i := range anchorSet {
		anchors = append(anchors, i)
	}
	sort.Ints(anchors)

	// Expand and merge.
	var windows []Window
	for _, idx := range anchors {
		s := segments[idx]
		w := Window{Start: s.Start - p.PreRoll, End: s.End + p.PostRoll}
		if w.Start < 0 {
			w.Start = 0
		}
		if duration > 0 && w.End > duration {
			w.End = duration
		}
		if n := len(windows); n > 0 && w.Start <= windows[n-1].End {
			if w.End > windows[n-1].End {
				windows[n-1].End = w.End
			}
			continue
		}
		windows = append(windows, w)
	}

	// Gate by duration and hits.
	var out []Window
	for _, w := range windows {
		if w.Duration() > p.MaxHard {
			w.End = w.Start + p.MaxHard
		}
		if w.Duration() < p.MinDur {
			continue
		}
		w.Hits = windowHits(segments, unmatchedPeaks, w, p)
		if w.Hits < p.MinHits {
			continue
		}
		out = append(out, w)
	}
	return out
}

// windowHits counts high+mid keyword matches in segments overlapping the
// window, plus unmatched energy peaks falling inside it.
func windowHits(segments []Segment, unmatchedPeaks []float64, w Window, p Profile) int {
	hits := 0
	for _, s := range segments {
		if s.End < w.Start || s.Start > w.End {
			continue
		}
		hits += countMatches(s.Text, p.HighKeywords)
		hits += countMatches(s.Text, p.MidKeywords)
	}
	for _, t := range unmatchedPeaks {
		if t >= w.Start && t <= w.End {
			hits++
		}
	}
	return hits
}
