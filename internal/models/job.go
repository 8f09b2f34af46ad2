package models

import "time"

// JobStatus is the terminal state of a recorded job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobRecord is one orchestrated batch in the history table.
type JobRecord struct {
	BaseModel
	// JobID is the orchestrator's ULID for the run.
	JobID string `gorm:"uniqueIndex;type:varchar(26)" json:"job_id"`
	// Name labels the batch (e.g. "normalize", "concat").
	Name       string     `json:"name"`
	Status     JobStatus  `gorm:"index" json:"status"`
	TotalTasks int        `json:"total_tasks"`
	OKTasks    int        `json:"ok_tasks"`
	Failed     int        `json:"failed_tasks"`
	Cancelled  int        `json:"cancelled_tasks"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	// ElapsedMS is the wall time of the whole run.
	ElapsedMS int64 `json:"elapsed_ms"`
}

// TableName overrides the table name.
func (JobRecord) TableName() string { return "jobs" }

// TaskRecord is one task outcome inside a job.
type TaskRecord struct {
	BaseModel
	JobID  string `gorm:"index;type:varchar(26)" json:"job_id"`
	TaskID string `gorm:"index;type:varchar(26)" json:"task_id"`
	Name   string `json:"name"`
	// State is the terminal task state (ok, failed, cancelled).
	State  string `gorm:"index" json:"state"`
	Output string `json:"output"`
	Error  string `json:"error"`
}

// TableName overrides the table name.
func (TaskRecord) TableName() string { return "job_tasks" }

// AllModels lists every model for auto-migration.
func AllModels() []any {
	return []any{&JobRecord{}, &TaskRecord{}}
}
