// Package beats provides beat-grid extraction and the BeatsMeta sidecar
// format consumed by the beat-synchronized mixer.
package beats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Meta carries track-level metadata.
type Meta struct {
	Duration float64 `json:"duration"`
}

// Highlight is a suggested window within the track.
type Highlight struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Suggestion wraps the suggested highlight window.
type Suggestion struct {
	Highlight Highlight `json:"highlight"`
}

// BeatsMeta is the beat grid plus suggestion for one audio track.
type BeatsMeta struct {
	Meta       Meta       `json:"meta"`
	Beats      []float64  `json:"beats"`
	Suggestion Suggestion `json:"suggestion"`
}

// Validate checks the structural invariants: beats sorted non-decreasing
// and the highlight window inside [0, duration].
func (m *BeatsMeta) Validate() error {
	if !sort.Float64sAreSorted(m.Beats) {
		return fmt.Errorf("beats are not sorted non-decreasing")
	}
	h := m.Suggestion.Highlight
	if h.StartTime < 0 || h.EndTime <= h.StartTime || (m.Meta.Duration > 0 && h.EndTime > m.Meta.Duration+1e-6) {
		return fmt.Errorf("highlight [%0.3f, %0.3f] outside [0, %0.3f]", h.StartTime, h.EndTime, m.Meta.Duration)
	}
	return nil
}

// BeatsInWindow returns the beats falling inside [start, end], sorted.
func (m *BeatsMeta) BeatsInWindow(start, end float64) []float64 {
	var out []float64
	for _, b := range m.Beats {
		if b >= start && b <= end {
			out = append(out, b)
		}
	}
	sort.Float64s(out)
	return out
}

// SidecarPath returns the canonical sidecar path for an audio file:
// <stem>.beats.json next to the track.
func SidecarPath(audioPath string) string {
	stem := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	return stem + ".beats.json"
}

// Save writes the metadata as indented JSON.
func (m *BeatsMeta) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads and validates a BeatsMeta sidecar.
func Load(path string) (*BeatsMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m BeatsMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &m, nil
}
