// Package repository persists job history and satisfies the
// orchestrator's Recorder interface.
package repository

import (
	"context"
	"time"

	"github.com/jmylchreest/clipforge/internal/database"
	"github.com/jmylchreest/clipforge/internal/models"
	"github.com/jmylchreest/clipforge/internal/orchestrator"
)

// JobRepository stores job and task outcomes.
type JobRepository struct {
	db *database.DB
}

// NewJobRepository creates a JobRepository.
func NewJobRepository(db *database.DB) *JobRepository {
	return &JobRepository{db: db}
}

// JobStarted records a new running job.
func (r *JobRepository) JobStarted(jobID, name string, total int) error {
	rec := &models.JobRecord{
		JobID:      jobID,
		Name:       name,
		Status:     models.JobStatusRunning,
		TotalTasks: total,
		StartedAt:  time.Now(),
	}
	return r.db.Create(rec).Error
}

// TaskFinished records one task outcome.
func (r *JobRepository) TaskFinished(jobID, taskID, name string, state orchestrator.TaskState, output, errMsg string) error {
	rec := &models.TaskRecord{
		JobID:  jobID,
		TaskID: taskID,
		Name:   name,
		State:  string(state),
		Output: output,
		Error:  errMsg,
	}
	return r.db.Create(rec).Error
}

// JobFinished closes out a job row with its summary.
func (r *JobRepository) JobFinished(jobID string, summary orchestrator.Summary) error {
	status := models.JobStatusSucceeded
	switch {
	case summary.Cancelled > 0:
		status = models.JobStatusCancelled
	case summary.Failed > 0:
		status = models.JobStatusFailed
	}
	now := time.Now()
	return r.db.Model(&models.JobRecord{}).
		Where("job_id = ?", jobID).
		Updates(map[string]any{
			"status":      status,
			"ok_tasks":    summary.OK,
			"failed":      summary.Failed,
			"cancelled":   summary.Cancelled,
			"finished_at": &now,
			"elapsed_ms":  summary.Elapsed.Milliseconds(),
		}).Error
}

// RecentJobs lists the most recent jobs, newest first.
func (r *JobRepository) RecentJobs(ctx context.Context, limit int) ([]models.JobRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var jobs []models.JobRecord
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// TasksForJob lists the task outcomes of one job.
func (r *JobRepository) TasksForJob(ctx context.Context, jobID string) ([]models.TaskRecord, error) {
	var tasks []models.TaskRecord
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

// Prune deletes job and task rows older than the retention window.
func (r *JobRepository) Prune(ctx context.Context, retention time.Duration) error {
	if retention <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-retention)
	if err := r.db.WithContext(ctx).
		Where("started_at < ?", cutoff).
		Delete(&models.JobRecord{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.TaskRecord{}).Error
}
