package cover

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// MinFontSize is the floor after widget-to-pixel scaling.
const MinFontSize = 8

// MaxPaddingRatio caps per-side padding given as a ratio.
const MaxPaddingRatio = 0.2

// Padding is per-side spacing around the active rectangle. Ratio fields
// win over pixel fields when both are set; ratios are clamped to
// MaxPaddingRatio.
type Padding struct {
	LeftRatio   float64
	RightRatio  float64
	TopRatio    float64
	BottomRatio float64
	LeftPx      int
	RightPx     int
	TopPx       int
	BottomPx    int
}

func (p Padding) resolve(side func() int, ratio float64, px int) int {
	if ratio > 0 {
		if ratio > MaxPaddingRatio {
			ratio = MaxPaddingRatio
		}
		return int(float64(side()) * ratio)
	}
	return px
}

// ActiveRect computes the largest 16:9 rectangle centered in the image
// after padding is removed from each side.
func ActiveRect(imgW, imgH int, pad Padding) image.Rectangle {
	left := pad.resolve(func() int { return imgW }, pad.LeftRatio, pad.LeftPx)
	right := pad.resolve(func() int { return imgW }, pad.RightRatio, pad.RightPx)
	top := pad.resolve(func() int { return imgH }, pad.TopRatio, pad.TopPx)
	bottom := pad.resolve(func() int { return imgH }, pad.BottomRatio, pad.BottomPx)

	availW := imgW - left - right
	availH := imgH - top - bottom
	if availW <= 0 || availH <= 0 {
		return image.Rect(0, 0, imgW, imgH)
	}

	w := availW
	h := w * 9 / 16
	if h > availH {
		h = availH
		w = h * 16 / 9
	}
	x0 := left + (availW-w)/2
	y0 := top + (availH-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// CaptionBlock is one text box in widget coordinates (ActiveW x ActiveH
// space).
type CaptionBlock struct {
	Text string
	// X, Y, W, H position the box in widget coordinates.
	X int
	Y int
	W int
	H int
	// FontSize is in widget units; it scales with the box.
	FontSize int
	// Color, StrokeColor and BGColor are "#RRGGBB" hex.
	Color       string
	StrokeColor string
	// BGAlpha in [0,255]; 0 disables the background fill.
	BGColor string
	BGAlpha uint8
}

// ComposeOptions maps widget space onto the stitched image.
type ComposeOptions struct {
	// ActiveW and ActiveH define the widget coordinate space.
	ActiveW int
	ActiveH int
	// Padding shapes the active rectangle.
	Padding Padding
	// FontPath points at a TTF/OTF file; empty falls back to the fixed
	// builtin face.
	FontPath string
}

// Compose draws the caption blocks onto the stitched image in place.
func Compose(img *image.RGBA, blocks []CaptionBlock, opts ComposeOptions) error {
	if opts.ActiveW <= 0 || opts.ActiveH <= 0 {
		return fmt.Errorf("active space must be positive, got %dx%d", opts.ActiveW, opts.ActiveH)
	}
	b := img.Bounds()
	active := ActiveRect(b.Dx(), b.Dy(), opts.Padding)

	// Uniform scale: widget space maps onto the active rect.
	scale := float64(active.Dx()) / float64(opts.ActiveW)
	if sy := float64(active.Dy()) / float64(opts.ActiveH); sy < scale {
		scale = sy
	}

	for i, block := range blocks {
		if err := drawBlock(img, block, active, scale, opts.FontPath); err != nil {
			return fmt.Errorf("caption block %d: %w", i, err)
		}
	}
	return nil
}

func drawBlock(img *image.RGBA, block CaptionBlock, active image.Rectangle, scale float64, fontPath string) error {
	x0 := active.Min.X + int(float64(block.X)*scale)
	y0 := active.Min.Y + int(float64(block.Y)*scale)
	w := int(float64(block.W) * scale)
	h := int(float64(block.H) * scale)
	box := image.Rect(x0, y0, x0+w, y0+h)

	fontSize := int(float64(block.FontSize) * scale)
	if fontSize < MinFontSize {
		fontSize = MinFontSize
	}

	if block.BGAlpha > 0 && block.BGColor != "" {
		bg := parseHexColor(block.BGColor, color.RGBA{0, 0, 0, 255})
		bg.A = block.BGAlpha
		xdraw.Draw(img, box, image.NewUniform(bg), image.Point{}, xdraw.Over)
	}
	if strings.TrimSpace(block.Text) == "" {
		return nil
	}

	face, err := loadFace(fontPath, float64(fontSize))
	if err != nil {
		return err
	}

	textColor := parseHexColor(block.Color, color.RGBA{255, 255, 255, 255})
	lines := wrapToWidth(block.Text, face, w)
	metrics := face.Metrics()
	lineH := metrics.Height.Ceil()
	y := y0 + metrics.Ascent.Ceil()

	for _, line := range lines {
		if y > box.Max.Y {
			break
		}
		if block.StrokeColor != "" {
			stroke := parseHexColor(block.StrokeColor, color.RGBA{0, 0, 0, 255})
			// Stroke: the same glyphs at the 8 surrounding offsets.
			for _, d := range [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
				drawLine(img, face, line, x0+d[0], y+d[1], stroke)
			}
		}
		drawLine(img, face, line, x0, y, textColor)
		y += lineH
	}
	return nil
}

func drawLine(img *image.RGBA, face font.Face, text string, x, y int, c color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// wrapToWidth word-wraps text so each line's advance fits maxWidth px.
// CJK runes break anywhere; latin words keep their boundaries.
func wrapToWidth(text string, face font.Face, maxWidth int) []string {
	limit := fixed.I(maxWidth)
	d := font.Drawer{Face: face}

	var lines []string
	var line strings.Builder
	for _, word := range splitUnits(text) {
		candidate := line.String()
		if candidate != "" && !startsWide(word) {
			candidate += " "
		}
		candidate += word
		if line.Len() > 0 && d.MeasureString(candidate) > limit {
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
			continue
		}
		line.Reset()
		line.WriteString(candidate)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func splitUnits(text string) []string {
	var units []string
	var word strings.Builder
	for _, r := range text {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			if word.Len() > 0 {
				units = append(units, word.String())
				word.Reset()
			}
		case r >= 0x2E80: // CJK and beyond wrap per rune
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

func startsWide(s string) bool {
	for _, r := range s {
		return r >= 0x2E80
	}
	return false
}

// loadFace opens a scalable face from fontPath, or the builtin fixed
// face when no font file is configured or loading fails.
func loadFace(fontPath string, size float64) (font.Face, error) {
	if fontPath == "" {
		return basicfont.Face7x13, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return basicfont.Face7x13, nil
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", fontPath, err)
	}
	return opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// parseHexColor parses "#RRGGBB", returning fallback on malformed input.
func parseHexColor(hex string, fallback color.RGBA) color.RGBA {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}
}
