// Package orchestrator schedules independent tasks over a bounded worker
// pool with progress events, cancellation and per-item failure recovery.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/clipforge/internal/mediaerr"
)

// TaskState is the lifecycle of one task.
type TaskState string

const (
	StateQueued    TaskState = "queued"
	StateRunning   TaskState = "running"
	StateOK        TaskState = "ok"
	StateFailed    TaskState = "failed"
	StateCancelled TaskState = "cancelled"
)

// Row reports one produced artifact.
type Row struct {
	Path      string
	Duration  float64
	SizeBytes int64
}

// EventType tags orchestrator events.
type EventType string

const (
	EventPhase    EventType = "phase"
	EventProgress EventType = "progress"
	EventRow      EventType = "row"
	EventError    EventType = "error"
	EventFinished EventType = "finished"
)

// Event is one orchestrator notification. Fields are populated per type:
// Phase for phase, Done/Total for progress, Row for row, Kind/Message
// for error, OK for finished.
type Event struct {
	Type    EventType
	TaskID  string
	Phase   string
	Done    int
	Total   int
	Row     *Row
	Kind    string
	Message string
	OK      int
}

// EventFunc receives events. Calls are serialized.
type EventFunc func(Event)

// Task is one unit of work. Run produces the artifact row; stage order
// inside Run is the task's own business.
type Task struct {
	// ID is assigned at submit when empty.
	ID string
	// Name labels the task in logs.
	Name string
	// Output is the canonical output path. When it already exists the
	// task is skipped and counted as ok.
	Output string
	// Run does the work and reports the produced artifact.
	Run func(ctx context.Context) (*Row, error)

	state TaskState
}

// State returns the task's current state.
func (t *Task) State() TaskState { return t.state }

// Job groups independent tasks.
type Job struct {
	// ID is assigned at run when empty.
	ID string
	// Name labels the job.
	Name string
	// Tasks run in FIFO dispatch order; completion order is unspecified.
	Tasks []*Task
	// Workers overrides the orchestrator pool size when > 0.
	Workers int
}

// Summary is the job outcome.
type Summary struct {
	JobID     string
	OK        int
	Failed    int
	Cancelled int
	Elapsed   time.Duration
}

// Recorder persists job outcomes. Satisfied by the repository layer; a
// nil recorder disables history.
type Recorder interface {
	JobStarted(jobID, name string, total int) error
	TaskFinished(jobID, taskID, name string, state TaskState, output string, errMsg string) error
	JobFinished(jobID string, summary Summary) error
}

// Orchestrator runs jobs over a worker pool.
type Orchestrator struct {
	workers  int
	events   EventFunc
	recorder Recorder
	logger   *slog.Logger

	mu sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEvents installs the event callback.
func WithEvents(fn EventFunc) Option {
	return func(o *Orchestrator) { o.events = fn }
}

// WithRecorder installs the history recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// New creates an Orchestrator with the given default pool size.
func New(workers int, logger *slog.Logger, opts ...Option) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{workers: workers, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// emit serializes event delivery; progress counters are maintained under
// the same lock so Done is monotonically non-decreasing.
func (o *Orchestrator) emit(ev Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.events != nil {
		o.events(ev)
	}
}

// Phase announces a named phase transition for the job.
func (o *Orchestrator) Phase(name string) {
	o.emit(Event{Type: EventPhase, Phase: name})
}

// Run executes the job. Cancelling ctx stops dispatching new tasks;
// in-flight tasks see the cancellation through their own contexts. The
// returned error is non-nil only for cancellation; task failures are
// reported via events and the summary.
func (o *Orchestrator) Run(ctx context.Context, job *Job) (*Summary, error) {
	if job.ID == "" {
		job.ID = ulid.Make().String()
	}
	workers := o.workers
	if job.Workers > 0 {
		workers = job.Workers
	}
	total := len(job.Tasks)
	start := time.Now()

	if o.recorder != nil {
		if err := o.recorder.JobStarted(job.ID, job.Name, total); err != nil {
			o.logger.Warn("history record failed", slog.String("error", err.Error()))
		}
	}
	o.logger.Info("job started",
		slog.String("job_id", job.ID),
		slog.String("name", job.Name),
		slog.Int("tasks", total),
		slog.Int("workers", workers))

	queue := make(chan *Task)
	var wg sync.WaitGroup

	// Counter update and progress emission happen under the one event
	// lock, so Done never goes backwards across workers.
	var done, ok, failed, cancelled int
	advance := func(state TaskState) {
		o.mu.Lock()
		defer o.mu.Unlock()
		done++
		switch state {
		case StateOK:
			ok++
		case StateFailed:
			failed++
		case StateCancelled:
			cancelled++
		}
		if o.events != nil {
			o.events(Event{Type: EventProgress, Done: done, Total: total})
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				advance(o.runTask(ctx, job, task))
			}
		}()
	}

	for _, task := range job.Tasks {
		task.state = StateQueued
	}

	// FIFO dispatch; stop handing out work once cancelled.
dispatch:
	for _, task := range job.Tasks {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- task:
		}
	}
	close(queue)
	wg.Wait()

	// Tasks never dispatched count as cancelled.
	for _, task := range job.Tasks {
		if task.state == StateQueued {
			task.state = StateCancelled
			advance(StateCancelled)
		}
	}

	summary := &Summary{
		JobID:     job.ID,
		OK:        ok,
		Failed:    failed,
		Cancelled: cancelled,
		Elapsed:   time.Since(start),
	}
	o.emit(Event{Type: EventFinished, OK: ok})
	if o.recorder != nil {
		if err := o.recorder.JobFinished(job.ID, *summary); err != nil {
			o.logger.Warn("history record failed", slog.String("error", err.Error()))
		}
	}
	o.logger.Info("job finished",
		slog.String("job_id", job.ID),
		slog.Int("ok", ok),
		slog.Int("failed", failed),
		slog.Int("cancelled", cancelled),
		slog.Duration("elapsed", summary.Elapsed))

	if ctx.Err() != nil {
		return summary, mediaerr.ErrCancelled
	}
	return summary, nil
}

// runTask executes one task with skip-existing and failure isolation.
func (o *Orchestrator) runTask(ctx context.Context, job *Job, task *Task) TaskState {
	if task.ID == "" {
		task.ID = ulid.Make().String()
	}

	// Skip-existing: a present canonical output short-circuits the task.
	if task.Output != "" {
		if info, err := os.Stat(task.Output); err == nil && info.Size() > 0 {
			task.state = StateOK
			o.emit(Event{Type: EventRow, TaskID: task.ID, Row: &Row{
				Path:      task.Output,
				SizeBytes: info.Size(),
			}})
			o.record(job, task, "")
			return StateOK
		}
	}

	if ctx.Err() != nil {
		task.state = StateCancelled
		o.record(job, task, context.Cause(ctx).Error())
		return StateCancelled
	}

	task.state = StateRunning
	row, err := task.Run(ctx)
	switch {
	case err == nil:
		task.state = StateOK
		if row != nil {
			o.emit(Event{Type: EventRow, TaskID: task.ID, Row: row})
		}
		o.record(job, task, "")
	case errors.Is(err, mediaerr.ErrCancelled) || errors.Is(err, context.Canceled):
		task.state = StateCancelled
		o.record(job, task, err.Error())
	default:
		task.state = StateFailed
		o.emit(Event{
			Type:    EventError,
			TaskID:  task.ID,
			Kind:    mediaerr.Kind(err),
			Message: err.Error(),
		})
		o.logger.Error("task failed",
			slog.String("job_id", job.ID),
			slog.String("task", task.Name),
			slog.String("error", err.Error()))
		o.record(job, task, err.Error())
	}
	return task.state
}

func (o *Orchestrator) record(job *Job, task *Task, errMsg string) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.TaskFinished(job.ID, task.ID, task.Name, task.state, task.Output, errMsg); err != nil {
		o.logger.Warn("history record failed", slog.String("error", err.Error()))
	}
}
