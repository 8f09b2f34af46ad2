package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/clipforge/internal/concat"
	"github.com/jmylchreest/clipforge/internal/media"
	"github.com/jmylchreest/clipforge/internal/orchestrator"
)

var (
	concatBGM       string
	concatQuality   string
	concatGPU       bool
	concatRecursive bool
	concatGroups    int
	concatOut       string
	concatSeed      int64
)

var concatCmd = &cobra.Command{
	Use:   "concat <dir>",
	Short: "Concatenate same-resolution clips into delivery videos",
	Long: `Group the directory's videos by resolution and splice each group
into one MP4 via the concat demuxer. Clips must already share codec
parameters (run normalize first). With --bgm the concatenated stream's
audio is replaced by the given track or a random file from the given
directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runConcat,
}

func init() {
	concatCmd.Flags().StringVar(&concatBGM, "bgm", "", "BGM file, or directory to pick one from at random")
	concatCmd.Flags().StringVar(&concatQuality, "quality", "balanced", "encode preset (balanced, compact, tiny)")
	concatCmd.Flags().BoolVar(&concatGPU, "gpu", false, "use hardware encoding when available")
	concatCmd.Flags().BoolVarP(&concatRecursive, "recursive", "r", false, "descend into subdirectories")
	concatCmd.Flags().IntVar(&concatGroups, "groups", 0, "only concat the N largest resolution groups (0 = all)")
	concatCmd.Flags().StringVar(&concatOut, "out", "", "output directory (default: the input directory)")
	concatCmd.Flags().Int64Var(&concatSeed, "seed", 0, "seed for the random BGM pick (0 = non-deterministic)")
	rootCmd.AddCommand(concatCmd)
}

func runConcat(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()
	dir := args[0]

	ctx, cancel := signalContext()
	defer cancel()

	rt.orch.Phase("preprocess")
	groups, err := media.GroupByResolution(ctx, rt.prober, dir, concatRecursive)
	if err != nil {
		return err
	}
	groups = media.TopGroups(groups, concatGroups)
	if len(groups) == 0 {
		return usageErrorf("no videos found in %s", dir)
	}

	outDir := concatOut
	if outDir == "" {
		outDir = dir
	}

	cc := concat.New(rt.tools, rt.runner, rt.prober, rt.hw, rt.cfg.Audio.SampleRate, rt.logger)

	tasks := make([]*orchestrator.Task, 0, len(groups))
	for i, group := range groups {
		group := group
		index := i + 1
		tasks = append(tasks, &orchestrator.Task{
			Name: fmt.Sprintf("concat %s", group.Resolution.String()),
			Run: func(ctx context.Context) (*orchestrator.Row, error) {
				out, err := cc.Run(ctx, concat.Job{
					Clips:     group.Files,
					OutputDir: outDir,
					Index:     index,
					BGM:       concatBGM,
					Quality:   concat.Quality(concatQuality),
					UseGPU:    concatGPU,
					Seed:      concatSeed,
				})
				if err != nil {
					return nil, err
				}
				return artifactRow(ctx, rt, out), nil
			},
		})
	}

	rt.orch.Phase("concat")
	_, err = rt.orch.Run(ctx, &orchestrator.Job{Name: "concat", Tasks: tasks})
	return err
}
