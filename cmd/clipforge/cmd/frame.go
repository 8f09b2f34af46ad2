package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/clipforge/internal/frames"
)

var (
	frameOut     string
	frameStart   float64
	frameEnd     float64
	frameQuality int
)

var frameCmd = &cobra.Command{
	Use:   "frame <video>",
	Short: "Extract the sharpest frame of a video",
	Long: `Sample the video at a low rate, score each candidate frame by
Laplacian variance over its center crop and save the sharpest one.
The output extension picks the format (.jpg or .png).`,
	Args: cobra.ExactArgs(1),
	RunE: runFrame,
}

func init() {
	frameCmd.Flags().StringVar(&frameOut, "out", "", "output image path (default: <stem>_frame.jpg)")
	frameCmd.Flags().Float64Var(&frameStart, "start", 0, "sample window start in seconds")
	frameCmd.Flags().Float64Var(&frameEnd, "end", 0, "sample window end in seconds (0 = full length)")
	frameCmd.Flags().IntVar(&frameQuality, "quality", 2, "JPEG quality on the 1..31 scale (1 best)")
	rootCmd.AddCommand(frameCmd)
}

func runFrame(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	input := args[0]
	out := frameOut
	if out == "" {
		stem := strings.TrimSuffix(input, filepath.Ext(input))
		out = stem + "_frame.jpg"
	}

	ctx, cancel := signalContext()
	defer cancel()

	picker := frames.New(rt.tools, rt.runner, rt.prober, rt.logger)
	pick, err := picker.Run(ctx, frames.Request{
		Input:   input,
		Output:  out,
		Start:   frameStart,
		End:     frameEnd,
		Quality: frameQuality,
	})
	if err != nil {
		return err
	}

	fmt.Printf("saved %s (frame %d, sharpness %.1f)\n", pick.Output, pick.FrameIndex, pick.Score)
	return nil
}
