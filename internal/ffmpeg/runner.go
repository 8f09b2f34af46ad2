package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jmylchreest/clipforge/internal/mediaerr"
)

// Result holds the outcome of one subprocess invocation.
type Result struct {
	ExitCode   int
	Stdout     []byte
	StderrTail string
	Duration   time.Duration
}

// RunOption customizes a single Run call.
type RunOption func(*runOptions)

type runOptions struct {
	timeout time.Duration
	env     map[string]string
	monitor bool
}

// WithTimeout bounds the subprocess runtime. Zero means unbounded.
func WithTimeout(d time.Duration) RunOption {
	return func(o *runOptions) { o.timeout = d }
}

// WithEnv adds per-process environment overrides without mutating the
// parent environment. Used to point TMPDIR/TEMP/TMP at a per-job scratch
// directory for the child's subprocess tree.
func WithEnv(env map[string]string) RunOption {
	return func(o *runOptions) {
		if o.env == nil {
			o.env = make(map[string]string, len(env))
		}
		for k, v := range env {
			o.env[k] = v
		}
	}
}

// WithMonitor samples CPU/RSS of the child while it runs.
func WithMonitor() RunOption {
	return func(o *runOptions) { o.monitor = true }
}

// Runner spawns external tools with list-form arguments, captured output,
// soft cancellation and a bounded stderr tail.
//
// Cancellation is soft: on context cancel the child receives an interrupt
// and is killed after the grace period elapses.
type Runner struct {
	logger *slog.Logger
	grace  time.Duration
}

// NewRunner creates a subprocess runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger: logger,
		grace:  5 * time.Second,
	}
}

// WithGracePeriod sets the terminate-to-kill grace period.
func (r *Runner) WithGracePeriod(d time.Duration) *Runner {
	r.grace = d
	return r
}

// Run executes bin with args and waits for completion. Arguments are
// always passed as a list; no shell is involved. On non-zero exit it
// returns an EncodeError carrying the exit code and stderr tail.
func (r *Runner) Run(ctx context.Context, bin string, args []string, opts ...RunOption) (*Result, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	// Soft-cancel: interrupt first, kill after the grace period.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.grace
	hideWindow(cmd)

	if len(o.env) > 0 {
		env := os.Environ()
		for k, v := range o.env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("spawning subprocess",
		slog.String("bin", bin),
		slog.Int("argc", len(args)))

	started := time.Now()

	var mon *Monitor
	if err := cmd.Start(); err != nil {
		return nil, fmtToolError(bin, err)
	}
	if o.monitor {
		mon = NewMonitor(cmd.Process.Pid)
		mon.Start()
	}

	waitErr := cmd.Wait()
	if mon != nil {
		mon.Stop()
	}

	res := &Result{
		Stdout:     stdout.Bytes(),
		StderrTail: mediaerr.Tail(decodeOutput(stderr.Bytes())),
		Duration:   time.Since(started),
	}

	if waitErr == nil {
		res.ExitCode = 0
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.Canceled) {
			return res, mediaerr.ErrCancelled
		}
		return res, timeoutError(bin, o.timeout, res.StderrTail)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, mediaerr.NewEncodeError(res.ExitCode, res.StderrTail)
	}

	return res, waitErr
}

// decodeOutput interprets subprocess output as UTF-8, replacing invalid
// byte sequences. Tool output on legacy-codepage systems is not always
// valid UTF-8; diagnostics must survive either way.
func decodeOutput(b []byte) string {
	return strings.ToValidUTF8(string(b), string('�'))
}

func fmtToolError(bin string, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s: %v", mediaerr.ErrToolNotFound, bin, err)
	}
	return fmt.Errorf("starting %s: %w", bin, err)
}

func timeoutError(bin string, timeout time.Duration, tail string) error {
	return fmt.Errorf("%s timed out after %v: %w", bin, timeout, mediaerr.NewEncodeError(-1, tail))
}
