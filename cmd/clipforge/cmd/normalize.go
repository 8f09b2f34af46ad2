package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/clipforge/internal/media"
	"github.com/jmylchreest/clipforge/internal/normalize"
	"github.com/jmylchreest/clipforge/internal/orchestrator"
)

var (
	normalizeMode      string
	normalizeGPU       bool
	normalizeRecursive bool
	normalizeRoot      string
	normalizeTrimHead  float64
	normalizeTrimTail  float64
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <dir-or-file>...",
	Short: "Re-encode sources into the uniform profile",
	Long: `Re-encode videos into the uniform delivery profile (H.264,
yuv420p, constant 25 fps, MP4 with faststart) under a resolution-keyed
output tree <root>/normalized/<WxH>/. Outputs that already exist are
skipped, so interrupted batches resume where they left off.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeMode, "mode", "release", "quality mode (lossless, release, preview)")
	normalizeCmd.Flags().BoolVar(&normalizeGPU, "gpu", false, "use hardware encoding when available")
	normalizeCmd.Flags().BoolVarP(&normalizeRecursive, "recursive", "r", false, "descend into subdirectories")
	normalizeCmd.Flags().StringVar(&normalizeRoot, "root", "", "output root (default: the input's directory)")
	normalizeCmd.Flags().Float64Var(&normalizeTrimHead, "trim-head", 0, "seconds to drop from the start")
	normalizeCmd.Flags().Float64Var(&normalizeTrimTail, "trim-tail", 0, "seconds to drop from the end")
	rootCmd.AddCommand(normalizeCmd)
}

// collectVideos expands the argument list into video paths.
func collectVideos(args []string, recursive bool) ([]string, error) {
	var videos []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, usageErrorf("input %s: %w", arg, err)
		}
		if !info.IsDir() {
			videos = append(videos, arg)
			continue
		}
		items, err := media.List(arg, media.ListOptions{Recursive: recursive, Kinds: []media.Kind{media.KindVideo}})
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			videos = append(videos, item.Path)
		}
	}
	if len(videos) == 0 {
		return nil, usageErrorf("no videos found in %v", args)
	}
	return videos, nil
}

func runNormalize(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	videos, err := collectVideos(args, normalizeRecursive)
	if err != nil {
		return err
	}

	norm := normalize.New(rt.tools, rt.runner, rt.prober, rt.hw,
		rt.cfg.Audio.SampleRate, rt.cfg.Audio.Channels, rt.logger)

	tasks := make([]*orchestrator.Task, 0, len(videos))
	for _, video := range videos {
		video := video
		root := normalizeRoot
		if root == "" {
			root = filepath.Dir(video)
		}
		tasks = append(tasks, &orchestrator.Task{
			Name: "normalize " + filepath.Base(video),
			Run: func(ctx context.Context) (*orchestrator.Row, error) {
				res, err := norm.Normalize(ctx, normalize.Request{
					Input:    video,
					Root:     root,
					Mode:     normalize.Mode(normalizeMode),
					UseGPU:   normalizeGPU,
					TrimHead: normalizeTrimHead,
					TrimTail: normalizeTrimTail,
				})
				if err != nil {
					return nil, err
				}
				return artifactRow(ctx, rt, res.Output), nil
			},
		})
	}

	ctx, cancel := signalContext()
	defer cancel()

	rt.orch.Phase("normalize")
	_, err = rt.orch.Run(ctx, &orchestrator.Job{Name: "normalize", Tasks: tasks})
	return err
}

// artifactRow builds a row for a produced file, probing its duration.
func artifactRow(ctx context.Context, rt *runtime, path string) *orchestrator.Row {
	row := &orchestrator.Row{Path: path}
	if info, err := os.Stat(path); err == nil {
		row.SizeBytes = info.Size()
	}
	row.Duration = rt.prober.Duration(ctx, path)
	return row
}
