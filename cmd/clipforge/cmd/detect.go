package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/media"
)

var detectRecursive bool

var detectCmd = &cobra.Command{
	Use:   "detect [dir]",
	Short: "Detect the toolchain and group a directory by resolution",
	Long: `Resolve ffmpeg/ffprobe, report the hardware encoder vendor, and
when a directory is given, enumerate its videos and print the resolution
groups (sorted by count, then pixel area).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().BoolVarP(&detectRecursive, "recursive", "r", false, "descend into subdirectories")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := cmd.Context()

	fmt.Println("ffmpeg: ", rt.tools.FFmpeg)
	fmt.Println("ffprobe:", rt.tools.FFprobe)

	vendor := rt.hw.Vendor(ctx)
	fmt.Println("hwaccel:", vendor)
	fmt.Println("encoder:", ffmpeg.VideoEncoder(vendor, true))

	if len(args) == 0 {
		return nil
	}

	groups, err := media.GroupByResolution(ctx, rt.prober, args[0], detectRecursive)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d resolution group(s):\n", len(groups))
	for _, g := range groups {
		fmt.Printf("  %-12s %d file(s)\n", g.Resolution.String(), g.Count)
	}
	return nil
}
