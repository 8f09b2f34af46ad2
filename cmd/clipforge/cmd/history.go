package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJob   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent jobs from the history store",
	Long: `List recent jobs recorded in the sqlite history store, or the
tasks of one job with --job. Rows older than history.retention are
pruned on every invocation.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of jobs to list")
	historyCmd.Flags().StringVar(&historyJob, "job", "", "show the tasks of this job ID")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if rt.repo == nil {
		return usageErrorf("job history is disabled (set history.enabled: true)")
	}
	ctx := cmd.Context()

	if err := rt.repo.Prune(ctx, rt.cfg.History.Retention); err != nil {
		rt.logger.Warn("history prune failed", "error", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	defer w.Flush()

	if historyJob != "" {
		tasks, err := rt.repo.TasksForJob(ctx, historyJob)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "TASK\tSTATE\tOUTPUT\tERROR")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.State, t.Output, t.Error)
		}
		return nil
	}

	jobs, err := rt.repo.RecentJobs(ctx, historyLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "JOB\tNAME\tSTATUS\tTASKS\tOK\tFAILED\tSTARTED\tELAPSED")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			j.JobID, j.Name, j.Status, j.TotalTasks, j.OKTasks, j.Failed,
			j.StartedAt.Format(time.RFC3339),
			(time.Duration(j.ElapsedMS) * time.Millisecond).Round(time.Millisecond))
	}
	return nil
}
