package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/clipforge/internal/config"
	"github.com/jmylchreest/clipforge/internal/database"
	"github.com/jmylchreest/clipforge/internal/models"
	"github.com/jmylchreest/clipforge/internal/orchestrator"
)

func openRepo(t *testing.T) *JobRepository {
	t.Helper()
	db, err := database.Open(config.HistoryConfig{
		DSN: filepath.Join(t.TempDir(), "history.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewJobRepository(db)
}

func TestJobLifecycle(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.JobStarted("01JOB", "normalize", 3))
	require.NoError(t, repo.TaskFinished("01JOB", "01TASK1", "a.mp4", orchestrator.StateOK, "/out/a.mp4", ""))
	require.NoError(t, repo.TaskFinished("01JOB", "01TASK2", "b.mp4", orchestrator.StateOK, "/out/b.mp4", ""))
	require.NoError(t, repo.TaskFinished("01JOB", "01TASK3", "c.mp4", orchestrator.StateFailed, "", "encode failed"))
	require.NoError(t, repo.JobFinished("01JOB", orchestrator.Summary{
		JobID:   "01JOB",
		OK:      2,
		Failed:  1,
		Elapsed: 1500 * time.Millisecond,
	}))

	jobs, err := repo.RecentJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, "01JOB", job.JobID)
	assert.Equal(t, "normalize", job.Name)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, 3, job.TotalTasks)
	assert.Equal(t, 2, job.OKTasks)
	assert.Equal(t, 1, job.Failed)
	assert.Equal(t, int64(1500), job.ElapsedMS)
	require.NotNil(t, job.FinishedAt)

	tasks, err := repo.TasksForJob(ctx, "01JOB")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "ok", tasks[0].State)
	assert.Equal(t, "encode failed", tasks[2].Error)
}

func TestJobFinishedStatus(t *testing.T) {
	tests := []struct {
		name    string
		summary orchestrator.Summary
		status  models.JobStatus
	}{
		{"all ok", orchestrator.Summary{OK: 2}, models.JobStatusSucceeded},
		{"failure wins over ok", orchestrator.Summary{OK: 1, Failed: 1}, models.JobStatusFailed},
		{"cancellation wins over failure", orchestrator.Summary{Failed: 1, Cancelled: 1}, models.JobStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := openRepo(t)
			require.NoError(t, repo.JobStarted("01JOB", "concat", 2))
			require.NoError(t, repo.JobFinished("01JOB", tt.summary))

			jobs, err := repo.RecentJobs(context.Background(), 1)
			require.NoError(t, err)
			require.Len(t, jobs, 1)
			assert.Equal(t, tt.status, jobs[0].Status)
		})
	}
}

func TestRecentJobsOrderAndLimit(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.JobStarted("01OLD", "normalize", 1))
	// Distinct timestamps; sqlite stores sub-second precision but keep
	// the ordering unambiguous.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.JobStarted("01NEW", "concat", 1))

	jobs, err := repo.RecentJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "01NEW", jobs[0].JobID)

	limited, err := repo.RecentJobs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// Non-positive limit falls back to the default of 20.
	fallback, err := repo.RecentJobs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, fallback, 2)
}

func TestPrune(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.JobStarted("01KEEP", "normalize", 1))
	require.NoError(t, repo.JobStarted("01DROP", "normalize", 1))
	// Backdate the second job past the retention window.
	require.NoError(t, repo.db.Model(&models.JobRecord{}).
		Where("job_id = ?", "01DROP").
		Update("started_at", time.Now().Add(-48*time.Hour)).Error)

	require.NoError(t, repo.Prune(ctx, 24*time.Hour))

	jobs, err := repo.RecentJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "01KEEP", jobs[0].JobID)

	// Zero retention is a no-op.
	require.NoError(t, repo.Prune(ctx, 0))
	jobs, err = repo.RecentJobs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}
