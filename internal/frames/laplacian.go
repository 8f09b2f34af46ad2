// Package frames picks the sharpest frame of a video by Laplacian
// variance over sampled, center-cropped, downscaled frames.
package frames

import (
	"image"
	"image/color"
)

// CropRatio is the centered region of interest evaluated for sharpness.
const CropRatio = 0.6

// MaxAnalysisSide caps the longer side of the analyzed frame.
const MaxAnalysisSide = 512

// grayscale flattens an image to 8-bit luma.
func grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// laplacianVariance scores sharpness as the variance of the 3x3
// Laplacian response. Higher means sharper.
func laplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
	}

	n := 0
	var sum, sumSq float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			// 3x3 Laplacian: 4*center minus the 4-neighborhood.
			v := 4*at(x, y) - at(x-1, y) - at(x+1, y) - at(x, y-1) - at(x, y+1)
			sum += v
			sumSq += v * v
			n++
		}
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

// SharpnessScore evaluates one frame: center-crop, downscale, grayscale,
// Laplacian variance.
func SharpnessScore(img image.Image) float64 {
	cropped := centerCrop(img, CropRatio)
	scaled := downscale(cropped, MaxAnalysisSide)
	return laplacianVariance(grayscale(scaled))
}

// centerCrop returns the centered ratio*ratio sub-rectangle.
func centerCrop(img image.Image, ratio float64) image.Image {
	b := img.Bounds()
	cw := int(float64(b.Dx()) * ratio)
	ch := int(float64(b.Dy()) * ratio)
	x0 := b.Min.X + (b.Dx()-cw)/2
	y0 := b.Min.Y + (b.Dy()-ch)/2
	rect := image.Rect(x0, y0, x0+cw, y0+ch)

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	out := image.NewRGBA(image.Rect(0, 0, cw, ch))
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			out.Set(x, y, img.At(x0+x, y0+y))
		}
	}
	return out
}

// downscale shrinks the image so its longer side is at most maxSide,
// using nearest-neighbor sampling (adequate for variance scoring).
func downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	long := w
	if h > long {
		long = h
	}
	if long <= maxSide {
		return img
	}
	scale := float64(maxSide) / float64(long)
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)

	out := image.NewRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		sy := b.Min.Y + int(float64(y)/scale)
		for x := 0; x < nw; x++ {
			sx := b.Min.X + int(float64(x)/scale)
			out.Set(x, y, img.At(sx, sy))
		}
	}
	return out
}
