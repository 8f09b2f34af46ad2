package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/clipforge/internal/cover"
	"github.com/jmylchreest/clipforge/internal/frames"
)

var (
	coverOut        string
	coverBlend      int
	coverTitle      string
	coverTitleSize  int
	coverTitleColor string
	coverStroke     string
	coverFont       string
	coverBlocksFile string
	coverQuality    int
)

// widget coordinate space for caption blocks
const (
	coverWidgetW = 1920
	coverWidgetH = 1080
)

var coverCmd = &cobra.Command{
	Use:   "cover <video-or-image>...",
	Short: "Stitch a multi-panel cover image",
	Long: `Build a cover by stitching one panel per input left to right.
Video inputs contribute their sharpest frame; image inputs are used as
is. Panels are resized to a common height and blended across seams.

Caption blocks are positioned in a 1920x1080 widget space mapped onto
the largest centered 16:9 region of the stitched image. Use --title for
a single centered caption, or --blocks for a YAML list of blocks with
full control over position, size and colors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCover,
}

func init() {
	coverCmd.Flags().StringVar(&coverOut, "out", "cover.jpg", "output image path (.jpg or .png)")
	coverCmd.Flags().IntVar(&coverBlend, "blend", 0, "seam blend width in pixels (0 = default)")
	coverCmd.Flags().StringVar(&coverTitle, "title", "", "caption drawn across the upper third")
	coverCmd.Flags().IntVar(&coverTitleSize, "title-size", 96, "title font size in widget units")
	coverCmd.Flags().StringVar(&coverTitleColor, "title-color", "#FFFFFF", "title color as #RRGGBB")
	coverCmd.Flags().StringVar(&coverStroke, "stroke", "#000000", "title stroke color as #RRGGBB")
	coverCmd.Flags().StringVar(&coverFont, "font", "", "TTF/OTF font file for captions")
	coverCmd.Flags().StringVar(&coverBlocksFile, "blocks", "", "YAML file with a list of caption blocks")
	coverCmd.Flags().IntVar(&coverQuality, "quality", 2, "JPEG quality on the 1..31 scale (1 best)")
	rootCmd.AddCommand(coverCmd)
}

func loadCaptionBlocks(path string) ([]cover.CaptionBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, usageErrorf("blocks file: %w", err)
	}
	var blocks []cover.CaptionBlock
	if err := yaml.Unmarshal(data, &blocks); err != nil {
		return nil, usageErrorf("blocks file %s: %w", path, err)
	}
	return blocks, nil
}

func runCover(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var blocks []cover.CaptionBlock
	if coverBlocksFile != "" {
		blocks, err = loadCaptionBlocks(coverBlocksFile)
		if err != nil {
			return err
		}
	}
	if coverTitle != "" {
		blocks = append(blocks, cover.CaptionBlock{
			Text:        coverTitle,
			X:           coverWidgetW / 8,
			Y:           coverWidgetH / 8,
			W:           coverWidgetW * 3 / 4,
			H:           coverWidgetH / 4,
			FontSize:    coverTitleSize,
			Color:       coverTitleColor,
			StrokeColor: coverStroke,
		})
	}

	blend := coverBlend
	if blend == 0 {
		blend = rt.cfg.Cover.BlendWidth
	}

	var padding cover.Padding
	if pad := rt.cfg.Cover.Padding; pad > 1 {
		px := int(pad)
		padding = cover.Padding{LeftPx: px, RightPx: px, TopPx: px, BottomPx: px}
	} else if pad > 0 {
		padding = cover.Padding{LeftRatio: pad, RightRatio: pad, TopRatio: pad, BottomRatio: pad}
	}

	ctx, cancel := signalContext()
	defer cancel()

	picker := frames.New(rt.tools, rt.runner, rt.prober, rt.logger)
	builder := cover.NewBuilder(picker, rt.logger)

	err = builder.Run(ctx, cover.Request{
		Inputs:     args,
		Output:     coverOut,
		BlendWidth: blend,
		Blocks:     blocks,
		Compose: cover.ComposeOptions{
			ActiveW:  coverWidgetW,
			ActiveH:  coverWidgetH,
			Padding:  padding,
			FontPath: coverFont,
		},
		Quality: coverQuality,
	})
	if err != nil {
		return err
	}

	fmt.Printf("saved %s (%d panel(s))\n", coverOut, len(args))
	return nil
}
