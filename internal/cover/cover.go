package cover

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmylchreest/clipforge/internal/frames"
	"github.com/jmylchreest/clipforge/internal/media"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
)

// Request describes one cover build.
type Request struct {
	// Inputs are videos (sharpest frame is picked) or images (used
	// directly), stitched left to right.
	Inputs []string
	// Output is the destination image path.
	Output string
	// BlendWidth is the seam blend in px; 0 means DefaultBlendWidth.
	BlendWidth int
	// Blocks are composed onto the stitched image.
	Blocks []CaptionBlock
	// Compose holds the widget-space mapping for Blocks.
	Compose ComposeOptions
	// Quality is the internal 1..31 JPEG scale.
	Quality int
}

// Builder produces cover images.
type Builder struct {
	picker *frames.Picker
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(picker *frames.Picker, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{picker: picker, logger: logger}
}

// Run builds one cover: pick/load source frames, stitch, compose, save.
func (b *Builder) Run(ctx context.Context, req Request) error {
	if len(req.Inputs) == 0 {
		return fmt.Errorf("%w: no cover inputs", mediaerr.ErrBadInputKind)
	}

	work, err := os.MkdirTemp("", "clipforge-cover-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	images := make([]image.Image, 0, len(req.Inputs))
	for i, input := range req.Inputs {
		img, err := b.sourceImage(ctx, input, work, i)
		if err != nil {
			return fmt.Errorf("input %s: %w", filepath.Base(input), err)
		}
		images = append(images, img)
	}

	stitched, err := Stitch(images, req.BlendWidth)
	if err != nil {
		return err
	}
	if len(req.Blocks) > 0 {
		if err := Compose(stitched, req.Blocks, req.Compose); err != nil {
			return err
		}
	}

	if err := frames.SaveImage(req.Output, stitched, req.Quality); err != nil {
		return err
	}
	b.logger.Info("built cover",
		slog.Int("inputs", len(req.Inputs)),
		slog.String("output", req.Output))
	return nil
}

// sourceImage resolves one input to a frame: images load directly,
// videos go through the sharpness picker.
func (b *Builder) sourceImage(ctx context.Context, input, work string, idx int) (image.Image, error) {
	switch media.Classify(input) {
	case media.KindImage:
		return loadImageFile(input)
	case media.KindVideo:
		picked := filepath.Join(work, fmt.Sprintf("pick_%02d.png", idx))
		if _, err := b.picker.Run(ctx, frames.Request{Input: input, Output: picked}); err != nil {
			return nil, err
		}
		return loadImageFile(picked)
	default:
		return nil, fmt.Errorf("%w: not an image or video", mediaerr.ErrBadInputKind)
	}
}

func loadImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
