// Package cover stitches sampled frames into one wide cover image and
// composes caption blocks onto it.
package cover

import (
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/jmylchreest/clipforge/internal/mediaerr"
)

// DefaultBlendWidth is the seam blend in pixels before clamping.
const DefaultBlendWidth = 150

// Stitch resizes all images to the minimum input height (widths scaled
// proportionally) and concatenates them horizontally with a linear alpha
// blend at each seam. blendWidth <= 0 uses DefaultBlendWidth.
func Stitch(images []image.Image, blendWidth int) (*image.RGBA, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images to stitch", mediaerr.ErrBadInputKind)
	}
	if blendWidth <= 0 {
		blendWidth = DefaultBlendWidth
	}

	minH := 0
	for _, img := range images {
		if h := img.Bounds().Dy(); minH == 0 || h < minH {
			minH = h
		}
	}
	if minH == 0 {
		return nil, fmt.Errorf("%w: zero-height input", mediaerr.ErrBadInputKind)
	}

	resized := make([]*image.RGBA, len(images))
	for i, img := range images {
		resized[i] = resizeToHeight(img, minH)
	}
	if len(resized) == 1 {
		return resized[0], nil
	}

	// Per-seam blend width is clamped to both neighbors.
	blends := make([]int, len(resized)-1)
	total := resized[0].Bounds().Dx()
	for i := 1; i < len(resized); i++ {
		b := blendWidth
		if wl := resized[i-1].Bounds().Dx(); b > wl {
			b = wl
		}
		if wr := resized[i].Bounds().Dx(); b > wr {
			b = wr
		}
		blends[i-1] = b
		total += resized[i].Bounds().Dx() - b
	}

	out := image.NewRGBA(image.Rect(0, 0, total, minH))
	x := 0
	for i, img := range resized {
		w := img.Bounds().Dx()
		if i == 0 {
			xdraw.Draw(out, image.Rect(0, 0, w, minH), img, img.Bounds().Min, xdraw.Src)
			x = w
			continue
		}
		blend := blends[i-1]
		start := x - blend
		blendSeam(out, img, start, blend, minH)
		if w > blend {
			xdraw.Draw(out, image.Rect(x, 0, start+w, minH), img,
				img.Bounds().Min.Add(image.Pt(blend, 0)), xdraw.Src)
		}
		x = start + w
	}
	return out, nil
}

// blendSeam writes the overlap columns as a linear mix of the existing
// pixels (left image) and the incoming right image.
func blendSeam(dst *image.RGBA, right *image.RGBA, startX, blend, height int) {
	for bx := 0; bx < blend; bx++ {
		t := float64(bx) / float64(blend)
		for y := 0; y < height; y++ {
			l := dst.RGBAAt(startX+bx, y)
			r := right.RGBAAt(right.Bounds().Min.X+bx, right.Bounds().Min.Y+y)
			dst.SetRGBA(startX+bx, y, mix(l, r, t))
		}
	}
}

func mix(l, r color.RGBA, t float64) color.RGBA {
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a)*(1-t) + float64(b)*t + 0.5)
	}
	return color.RGBA{
		R: lerp(l.R, r.R),
		G: lerp(l.G, r.G),
		B: lerp(l.B, r.B),
		A: 255,
	}
}

// resizeToHeight scales the image to the target height preserving aspect
// ratio.
func resizeToHeight(img image.Image, height int) *image.RGBA {
	b := img.Bounds()
	if b.Dy() == height {
		out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
		return out
	}
	w := b.Dx() * height / b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, height))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}
