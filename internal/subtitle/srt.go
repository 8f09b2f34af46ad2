// Package subtitle renders transcripts as SRT and ASS and burns them
// into video via the subtitles/ass filters.
package subtitle

import (
	"fmt"
	"os"
	"strings"
)

// Cue is one timed caption.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// FormatSRTTime renders seconds as the SRT timestamp HH:MM:SS,mmm.
func FormatSRTTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int(sec*1000 + 0.5)
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// RenderSRT formats the cues as an SRT document.
func RenderSRT(cues []Cue) string {
	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, FormatSRTTime(c.Start), FormatSRTTime(c.End), strings.TrimSpace(c.Text))
	}
	return b.String()
}

// WriteSRT writes the cues to path as SRT.
func WriteSRT(path string, cues []Cue) error {
	return os.WriteFile(path, []byte(RenderSRT(cues)), 0o644)
}
