package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/clipforge/internal/media"
	"github.com/jmylchreest/clipforge/internal/normalize"
	"github.com/jmylchreest/clipforge/internal/orchestrator"
	"github.com/jmylchreest/clipforge/internal/scheduler"
)

var (
	watchInbox string
	watchCron  string
	watchMode  string
	watchGPU   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescan an inbox directory on a cron schedule",
	Long: `Run until interrupted, rescanning the inbox directory on the
configured cron schedule and normalizing any videos found there into
<inbox>/normalized/<WxH>/. Already-normalized outputs are skipped, so
repeat scans only touch new arrivals.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchInbox, "inbox", "", "inbox directory (overrides watch.inbox_dir)")
	watchCmd.Flags().StringVar(&watchCron, "cron", "", "5-field cron expression (overrides watch.cron)")
	watchCmd.Flags().StringVar(&watchMode, "mode", "release", "normalize quality mode")
	watchCmd.Flags().BoolVar(&watchGPU, "gpu", false, "use hardware encoding when available")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	wcfg := rt.cfg.Watch
	if watchInbox != "" {
		wcfg.InboxDir = watchInbox
	}
	if watchCron != "" {
		wcfg.Cron = watchCron
	}
	if wcfg.InboxDir == "" {
		return usageErrorf("no inbox directory (set watch.inbox_dir or --inbox)")
	}

	norm := normalize.New(rt.tools, rt.runner, rt.prober, rt.hw,
		rt.cfg.Audio.SampleRate, rt.cfg.Audio.Channels, rt.logger)

	scan := func(ctx context.Context, inbox string) error {
		items, err := media.List(inbox, media.ListOptions{Kinds: []media.Kind{media.KindVideo}})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		tasks := make([]*orchestrator.Task, 0, len(items))
		for _, item := range items {
			video := item.Path
			tasks = append(tasks, &orchestrator.Task{
				Name: "normalize " + filepath.Base(video),
				Run: func(ctx context.Context) (*orchestrator.Row, error) {
					res, err := norm.Normalize(ctx, normalize.Request{
						Input:  video,
						Root:   inbox,
						Mode:   normalize.Mode(watchMode),
						UseGPU: watchGPU,
					})
					if err != nil {
						return nil, err
					}
					return artifactRow(ctx, rt, res.Output), nil
				},
			})
		}

		rt.orch.Phase("normalize")
		_, err = rt.orch.Run(ctx, &orchestrator.Job{Name: "watch", Tasks: tasks})
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	sched := scheduler.New(wcfg, scan, rt.logger)
	if err := sched.Start(ctx); err != nil {
		return usageErrorf("%v", err)
	}
	<-ctx.Done()
	sched.Stop()
	return nil
}
