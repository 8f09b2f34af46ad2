package cmd

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/clipforge/internal/bgmreplace"
	"github.com/jmylchreest/clipforge/internal/orchestrator"
	"github.com/jmylchreest/clipforge/internal/registry"
)

var (
	bgmTrack     string
	bgmOut       string
	bgmStrategy  string
	bgmDevice    string
	bgmRecursive bool
)

var bgmCmd = &cobra.Command{
	Use:   "bgm <dir-or-file>...",
	Short: "Replace a video's background music, keeping the vocals",
	Long: `Separate each video's audio into vocals and residual with a
demucs-style CLI, measure the vocal loudness, then mix the vocals over
the new track with adaptive gains and remux. The video stream is copied
untouched. Set ` + bgmreplace.EnvSeparatorBinary + ` to point at the
separator binary.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBGM,
}

func init() {
	bgmCmd.Flags().StringVar(&bgmTrack, "track", "", "replacement BGM audio file (required)")
	bgmCmd.Flags().StringVar(&bgmOut, "out", "", "output directory (default: next to each input)")
	bgmCmd.Flags().StringVar(&bgmStrategy, "strategy", string(bgmreplace.StrategyAdaptive),
		"separation strategy (vocals_only, vocals_and_other, custom_mix, adaptive)")
	bgmCmd.Flags().StringVar(&bgmDevice, "device", "", "separator device (e.g. cuda, cpu; default auto)")
	bgmCmd.Flags().BoolVarP(&bgmRecursive, "recursive", "r", false, "descend into subdirectories")
	_ = bgmCmd.MarkFlagRequired("track")
	rootCmd.AddCommand(bgmCmd)
}

func runBGM(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	videos, err := collectVideos(args, bgmRecursive)
	if err != nil {
		return err
	}

	separator := bgmreplace.NewDemucsSeparator(rt.runner, registry.Default(), bgmDevice, rt.logger)
	replacer := bgmreplace.New(rt.tools, rt.runner, rt.prober, separator,
		rt.cfg.Audio.SampleRate, rt.logger)

	tasks := make([]*orchestrator.Task, 0, len(videos))
	for _, video := range videos {
		video := video
		stem := strings.TrimSuffix(filepath.Base(video), filepath.Ext(video))
		outDir := bgmOut
		if outDir == "" {
			outDir = filepath.Dir(video)
		}
		output := filepath.Join(outDir, stem+"_bgm.mp4")
		tasks = append(tasks, &orchestrator.Task{
			Name:   "bgm " + filepath.Base(video),
			Output: output,
			Run: func(ctx context.Context) (*orchestrator.Row, error) {
				ctx, cancel := context.WithTimeout(ctx, rt.cfg.FFmpeg.SeparateTimeout)
				defer cancel()
				err := replacer.Run(ctx, bgmreplace.Request{
					Video:    video,
					BGM:      bgmTrack,
					Output:   output,
					Strategy: bgmreplace.Strategy(bgmStrategy),
				})
				if err != nil {
					return nil, err
				}
				return artifactRow(ctx, rt, output), nil
			},
		})
	}

	ctx, cancel := signalContext()
	defer cancel()

	rt.orch.Phase("preprocess")
	_, err = rt.orch.Run(ctx, &orchestrator.Job{Name: "bgm", Tasks: tasks})
	return err
}
