package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/clipforge/internal/orchestrator"
	"github.com/jmylchreest/clipforge/internal/registry"
	"github.com/jmylchreest/clipforge/internal/slicer"
)

var (
	sliceProfile   string
	sliceOut       string
	sliceLanguage  string
	sliceGPU       bool
	sliceSubtitles bool
	sliceVision    bool
	sliceModelPath string
	sliceRecursive bool
)

var sliceCmd = &cobra.Command{
	Use:   "slice <dir-or-file>...",
	Short: "Cut highlight scenes by keyword and energy anchors",
	Long: fmt.Sprintf(`Transcribe each video, detect anchor segments matching the
profile's keywords (plus audio energy peaks for the game profile),
expand and merge them into windows, and encode each surviving window as
its own clip. Profiles: %s.

Transcription shells out to a whisper-style CLI; set %s
to point at the binary. The optional vision filter needs a caption CLI
via %s.`,
		strings.Join(slicer.ProfileNames(), ", "),
		slicer.EnvWhisperBinary, slicer.EnvCaptionBinary),
	Args: cobra.MinimumNArgs(1),
	RunE: runSlice,
}

func init() {
	sliceCmd.Flags().StringVar(&sliceProfile, "profile", "entertainment", "scene profile")
	sliceCmd.Flags().StringVar(&sliceOut, "out", "", "output directory (default: <input dir>/slices)")
	sliceCmd.Flags().StringVar(&sliceLanguage, "language", "", "ASR language hint (default: auto)")
	sliceCmd.Flags().BoolVar(&sliceGPU, "gpu", false, "use hardware encoding when available")
	sliceCmd.Flags().BoolVar(&sliceSubtitles, "subtitles", false, "burn transcripts into the slices")
	sliceCmd.Flags().BoolVar(&sliceVision, "vision", false, "filter windows through the vision captioner")
	sliceCmd.Flags().StringVar(&sliceModelPath, "model", "", "ASR model path passed to the whisper CLI")
	sliceCmd.Flags().BoolVarP(&sliceRecursive, "recursive", "r", false, "descend into subdirectories")
	rootCmd.AddCommand(sliceCmd)
}

func runSlice(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	videos, err := collectVideos(args, sliceRecursive)
	if err != nil {
		return err
	}
	if _, err := slicer.ProfileFor(sliceProfile); err != nil {
		return usageErrorf("%v", err)
	}

	transcriber := slicer.NewWhisperTranscriber(rt.runner, registry.Default(), sliceModelPath, rt.logger)
	var captioner slicer.VisionCaptioner
	if sliceVision {
		captioner = slicer.NewCommandCaptioner(rt.runner, registry.Default())
	}
	sl := slicer.New(rt.tools, rt.runner, rt.prober, rt.hw, transcriber, captioner, rt.logger)

	tasks := make([]*orchestrator.Task, 0, len(videos))
	for _, video := range videos {
		video := video
		outDir := sliceOut
		if outDir == "" {
			outDir = filepath.Join(filepath.Dir(video), "slices")
		}
		tasks = append(tasks, &orchestrator.Task{
			Name: "slice " + filepath.Base(video),
			Run: func(ctx context.Context) (*orchestrator.Row, error) {
				res, err := sl.Run(ctx, slicer.Request{
					Input:         video,
					OutputDir:     outDir,
					Profile:       sliceProfile,
					Language:      sliceLanguage,
					UseGPU:        sliceGPU,
					WithSubtitles: sliceSubtitles,
					VisionFilter:  sliceVision,
				})
				if err != nil {
					return nil, err
				}
				if len(res.Slices) == 0 {
					return nil, nil
				}
				return artifactRow(ctx, rt, res.Slices[0]), nil
			},
		})
	}

	ctx, cancel := signalContext()
	defer cancel()

	rt.orch.Phase("slicing")
	_, err = rt.orch.Run(ctx, &orchestrator.Job{Name: "slice", Tasks: tasks})
	return err
}
