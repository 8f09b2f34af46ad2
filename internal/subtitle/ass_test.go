package subtitle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFontSizeFor(t *testing.T) {
	tests := []struct {
		width    int
		budget   int
		expected int
	}{
		{1920, 14, 96},  // 137 clamps to max
		{1080, 14, 77},  // within range
		{640, 14, 45},   //
		{200, 14, 18},   // 14 clamps to min
		{1080, 0, 77},   // zero budget falls back to default
		{0, 14, 18},     // degenerate width clamps to min
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FontSizeFor(tt.width, tt.budget),
			"width %d budget %d", tt.width, tt.budget)
	}
}

func TestASSColor(t *testing.T) {
	assert.Equal(t, "&H0000FF&", ASSColor("#FF0000"))
	assert.Equal(t, "&H00FF00&", ASSColor("#00FF00"))
	assert.Equal(t, "&HD7A000&", ASSColor("#00A0D7"))
	assert.Equal(t, "&HFFFFFF&", ASSColor("#FFFFFF"))
	assert.Equal(t, "&HFFFFFF&", ASSColor("garbage"))
	assert.Equal(t, "&HFFFFFF&", ASSColor(""))
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 2.0, DisplayWidth("abcd"))
	assert.Equal(t, 2.0, DisplayWidth("你好"))
	assert.Equal(t, 3.0, DisplayWidth("你好ab"))
	assert.Equal(t, 0.0, DisplayWidth(""))
}

func TestWrapTextLatin(t *testing.T) {
	lines := WrapText("the quick brown fox jumps over the lazy dog", 10)
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.LessOrEqual(t, DisplayWidth(line), 10.0, "line %q", line)
	}
	// Words stay intact.
	assert.Equal(t, "the quick brown fox jumps over the lazy dog",
		strings.Join(lines, " "))
}

func TestWrapTextCJK(t *testing.T) {
	lines := WrapText("这是一段需要换行的中文字幕文本内容", 6)
	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, DisplayWidth(line), 6.0, "line %q", line)
	}
	assert.Equal(t, "这是一段需要换行的中文字幕文本内容", strings.Join(lines, ""))
}

func TestWrapTextShort(t *testing.T) {
	assert.Equal(t, []string{"短句"}, WrapText("短句", 14))
	assert.Empty(t, WrapText("", 14))
}

func TestHighlightKeywords(t *testing.T) {
	out := HighlightKeywords("今天有优惠活动", []string{"优惠"}, "#FFD700", "#FFFFFF")
	assert.Equal(t, "今天有{\\c&H00D7FF&}优惠{\\c&HFFFFFF&}活动", out)
}

func TestHighlightKeywordsLongestFirst(t *testing.T) {
	// "优惠价格" wins over "优惠"; the shorter keyword must not split it.
	out := HighlightKeywords("优惠价格真不错", []string{"优惠", "优惠价格"}, "#FFD700", "#FFFFFF")
	assert.Equal(t, "{\\c&H00D7FF&}优惠价格{\\c&HFFFFFF&}真不错", out)
}

func TestHighlightKeywordsCaseFolded(t *testing.T) {
	out := HighlightKeywords("Big DEAL today", []string{"deal"}, "#FFD700", "#FFFFFF")
	assert.Contains(t, out, "{\\c&H00D7FF&}DEAL{\\c&HFFFFFF&}")
}

func TestHighlightKeywordsNoMatch(t *testing.T) {
	assert.Equal(t, "plain", HighlightKeywords("plain", []string{"优惠"}, "#FFD700", "#FFFFFF"))
	assert.Equal(t, "plain", HighlightKeywords("plain", nil, "#FFD700", "#FFFFFF"))
}

func TestFormatASSTime(t *testing.T) {
	assert.Equal(t, "0:00:00.00", formatASSTime(0))
	assert.Equal(t, "0:00:01.50", formatASSTime(1.5))
	assert.Equal(t, "0:01:02.34", formatASSTime(62.34))
	assert.Equal(t, "1:01:01.99", formatASSTime(3661.99))
	assert.Equal(t, "0:00:00.00", formatASSTime(-5))
}

func TestRenderASS(t *testing.T) {
	cues := []Cue{
		{Start: 0, End: 2.5, Text: "今天有优惠"},
		{Start: 2.5, End: 5, Text: "hello world"},
	}
	doc := RenderASS(cues, ASSOptions{
		Width:    1280,
		Height:   720,
		Keywords: []string{"优惠"},
	})

	assert.Contains(t, doc, "PlayResX: 1280")
	assert.Contains(t, doc, "PlayResY: 720")
	assert.Contains(t, doc, "Style: Default,Arial,91,")
	assert.Contains(t, doc, "Dialogue: 0,0:00:00.00,0:00:02.50,Default,")
	assert.Contains(t, doc, "{\\c&H00D7FF&}优惠{\\c&HFFFFFF&}")
	assert.Equal(t, 2, strings.Count(doc, "Dialogue:"))
}
