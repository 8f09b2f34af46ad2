// Package mediaerr defines the error kinds shared across the pipeline.
//
// Per-item failures (encode, probe) are soft: the orchestrator reports them
// and continues with other items. Infrastructure failures (missing tools,
// model load) abort the whole job.
package mediaerr

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrToolNotFound indicates a required external binary (ffmpeg,
	// ffprobe) or model directory is missing. Aborts the job.
	ErrToolNotFound = errors.New("tool not found")

	// ErrBadInputKind indicates unusable input: mixed resolutions in a
	// concat request, an unreadable file, or a wrong media kind.
	ErrBadInputKind = errors.New("bad input kind")

	// ErrProbeFailure indicates ffprobe could not parse streams or
	// duration. Soft when the probe was optional.
	ErrProbeFailure = errors.New("probe failure")

	// ErrModelLoadFailure indicates an ASR/vision/separation model
	// failed to initialize. Aborts the job.
	ErrModelLoadFailure = errors.New("model load failure")

	// ErrOutOfMemory indicates GPU memory exhaustion. Triggers the
	// downgrade path (reduced segment size, then CPU).
	ErrOutOfMemory = errors.New("out of memory")

	// ErrCancelled indicates the task was cancelled. A terminal task
	// state, not a job-level error.
	ErrCancelled = errors.New("cancelled")
)

// StderrTailLimit caps the captured stderr tail attached to encode
// failures and surfaced in user-visible messages.
const StderrTailLimit = 800

// EncodeError is returned when ffmpeg exits non-zero. It carries the exit
// code and the tail of stderr for diagnostics.
type EncodeError struct {
	ExitCode int
	Tail     string
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	if e.Tail == "" {
		return fmt.Sprintf("encode failure: exit code %d", e.ExitCode)
	}
	return fmt.Sprintf("encode failure: exit code %d: %s", e.ExitCode, e.Tail)
}

// NewEncodeError builds an EncodeError, truncating the stderr tail to
// StderrTailLimit bytes.
func NewEncodeError(exitCode int, stderr string) *EncodeError {
	return &EncodeError{ExitCode: exitCode, Tail: Tail(stderr)}
}

// Tail returns the last StderrTailLimit bytes of s. The cut is advanced
// to the next rune boundary so a multi-byte sequence is never split.
func Tail(s string) string {
	if len(s) <= StderrTailLimit {
		return s
	}
	cut := len(s) - StderrTailLimit
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return s[cut:]
}

// IsFatal reports whether err should abort the whole job rather than just
// the current item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrToolNotFound) || errors.Is(err, ErrModelLoadFailure)
}

// Kind returns a short machine-readable label for the error, used in
// error events and job-history rows.
func Kind(err error) string {
	var encErr *EncodeError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrToolNotFound):
		return "tool_not_found"
	case errors.Is(err, ErrBadInputKind):
		return "bad_input_kind"
	case errors.As(err, &encErr):
		return "encode_failure"
	case errors.Is(err, ErrProbeFailure):
		return "probe_failure"
	case errors.Is(err, ErrModelLoadFailure):
		return "model_load_failure"
	case errors.Is(err, ErrOutOfMemory):
		return "out_of_memory"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	default:
		return "error"
	}
}
