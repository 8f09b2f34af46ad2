package subtitle

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/width"
)

// Font size clamps for burned-in captions.
const (
	MinFontSize = 18
	MaxFontSize = 96
)

// DefaultMaxCharsPerLine is the per-line budget in full-width characters.
const DefaultMaxCharsPerLine = 14

// ASSOptions controls ASS generation.
type ASSOptions struct {
	// Width and Height set PlayResX/Y and drive the font size.
	Width  int
	Height int
	// MaxCharsPerLine is the wrap budget in full-width characters
	// (default DefaultMaxCharsPerLine).
	MaxCharsPerLine int
	// FontName is the style font (default "Arial").
	FontName string
	// PrimaryColor and HighlightColor are "#RRGGBB" hex values.
	PrimaryColor   string
	HighlightColor string
	// Keywords are highlighted in HighlightColor, matched longest-first.
	Keywords []string
	// MarginV is the vertical margin in play-res pixels (default H/20).
	MarginV int
}

func (o *ASSOptions) withDefaults() ASSOptions {
	out := *o
	if out.MaxCharsPerLine <= 0 {
		out.MaxCharsPerLine = DefaultMaxCharsPerLine
	}
	if out.FontName == "" {
		out.FontName = "Arial"
	}
	if out.PrimaryColor == "" {
		out.PrimaryColor = "#FFFFFF"
	}
	if out.HighlightColor == "" {
		out.HighlightColor = "#FFD700"
	}
	if out.MarginV <= 0 && out.Height > 0 {
		out.MarginV = out.Height / 20
	}
	return out
}

// FontSizeFor derives the style font size from the video width and the
// per-line character budget, clamped to [MinFontSize, MaxFontSize].
func FontSizeFor(videoWidth, maxCharsPerLine int) int {
	if maxCharsPerLine <= 0 {
		maxCharsPerLine = DefaultMaxCharsPerLine
	}
	size := videoWidth / maxCharsPerLine
	if size < MinFontSize {
		return MinFontSize
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}

// ASSColor converts "#RRGGBB" to the ASS &HBBGGRR& form. Malformed
// input falls back to white.
func ASSColor(hex string) string {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return "&HFFFFFF&"
	}
	r, g, b := h[0:2], h[2:4], h[4:6]
	return "&H" + strings.ToUpper(b+g+r) + "&"
}

// DisplayWidth counts a string in full-width character units: East Asian
// wide and fullwidth runes count 1, everything else counts 0.5.
func DisplayWidth(s string) float64 {
	var total float64
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			total += 1
		default:
			total += 0.5
		}
	}
	return total
}

// WrapText splits text into lines not exceeding the full-width budget.
// Space-separated words wrap at word boundaries; CJK runs wrap per rune.
func WrapText(text string, budget int) []string {
	if budget <= 0 {
		budget = DefaultMaxCharsPerLine
	}
	var lines []string
	var line strings.Builder
	lineW := 0.0

	flush := func() {
		if line.Len() > 0 {
			lines = append(lines, line.String())
			line.Reset()
			lineW = 0
		}
	}

	for _, word := range splitWrapUnits(text) {
		w := DisplayWidth(word)
		if lineW > 0 && lineW+w > float64(budget) {
			flush()
		}
		if w > float64(budget) {
			// Oversized unit: hard-break per rune.
			for _, r := range word {
				rw := DisplayWidth(string(r))
				if lineW+rw > float64(budget) {
					flush()
				}
				line.WriteRune(r)
				lineW += rw
			}
			continue
		}
		if lineW > 0 && !isCJKStart(word) {
			line.WriteByte(' ')
			lineW += 0.5
		}
		line.WriteString(word)
		lineW += w
	}
	flush()
	return lines
}

// splitWrapUnits tokenizes into wrap units: whitespace-separated words,
// with CJK runes as individual units.
func splitWrapUnits(text string) []string {
	var units []string
	var word strings.Builder
	for _, r := range text {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			if word.Len() > 0 {
				units = append(units, word.String())
				word.Reset()
			}
		case isWideRune(r):
			if word.Len() > 0 {
				units = append(units, word.String())
				word.Reset()
			}
			units = append(units, string(r))
		default:
			word.WriteRune(r)
		}
	}
	if word.Len() > 0 {
		units = append(units, word.String())
	}
	return units
}

func isWideRune(r rune) bool {
	k := width.LookupRune(r).Kind()
	return k == width.EastAsianWide || k == width.EastAsianFullwidth
}

func isCJKStart(s string) bool {
	for _, r := range s {
		return isWideRune(r)
	}
	return false
}

// HighlightKeywords wraps keyword occurrences in ASS color overrides.
// Keywords are applied longest-first so a shorter keyword never splits a
// longer one's match.
func HighlightKeywords(text string, keywords []string, highlightColor, primaryColor string) string {
	if len(keywords) == 0 {
		return text
	}
	sorted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			sorted = append(sorted, k)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	open := "{\\c" + ASSColor(highlightColor) + "}"
	reset := "{\\c" + ASSColor(primaryColor) + "}"

	// Replace via a placeholder pass so later (shorter) keywords cannot
	// match inside an earlier replacement.
	type span struct{ start, end int }
	var spans []span
	lower := strings.ToLower(text)
	taken := make([]bool, len(text))
	for _, kw := range sorted {
		lkw := strings.ToLower(kw)
		from := 0
		for {
			idx := strings.Index(lower[from:], lkw)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(lkw)
			overlaps := false
			for i := start; i < end; i++ {
				if taken[i] {
					overlaps = true
					break
				}
			}
			if !overlaps {
				for i := start; i < end; i++ {
					taken[i] = true
				}
				spans = append(spans, span{start, end})
			}
			from = end
		}
	}
	if len(spans) == 0 {
		return text
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	pos := 0
	for _, sp := range spans {
		b.WriteString(text[pos:sp.start])
		b.WriteString(open)
		b.WriteString(text[sp.start:sp.end])
		b.WriteString(reset)
		pos = sp.end
	}
	b.WriteString(text[pos:])
	return b.String()
}

// RenderASS formats the cues as an ASS document sized for the video.
func RenderASS(cues []Cue, opts ASSOptions) string {
	o := opts.withDefaults()
	fontSize := FontSizeFor(o.Width, o.MaxCharsPerLine)

	var b strings.Builder
	fmt.Fprintf(&b, "[Script Info]\nScriptType: v4.00+\nPlayResX: %d\nPlayResY: %d\nWrapStyle: 0\nScaledBorderAndShadow: yes\n\n", o.Width, o.Height)
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, OutlineColour, BackColour, Bold, Outline, Shadow, Alignment, MarginL, MarginR, MarginV\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,&H000000&,&H000000&,0,2,0,2,10,10,%d\n\n",
		o.FontName, fontSize, ASSColor(o.PrimaryColor), o.MarginV)
	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Text\n")

	for _, c := range cues {
		lines := WrapText(strings.TrimSpace(c.Text), o.MaxCharsPerLine)
		for i, line := range lines {
			lines[i] = HighlightKeywords(line, o.Keywords, o.HighlightColor, o.PrimaryColor)
		}
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,%s\n",
			formatASSTime(c.Start), formatASSTime(c.End), strings.Join(lines, "\\N"))
	}
	return b.String()
}

// WriteASS writes the cues to path as ASS.
func WriteASS(path string, cues []Cue, opts ASSOptions) error {
	return os.WriteFile(path, []byte(RenderASS(cues, opts)), 0o644)
}

// formatASSTime renders seconds as the ASS timestamp H:MM:SS.cc.
func formatASSTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	cs := int(sec*100 + 0.5)
	h := cs / 360000
	cs -= h * 360000
	m := cs / 6000
	cs -= m * 6000
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}
