package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/clipforge/internal/config"
	"github.com/jmylchreest/clipforge/internal/database"
	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/observability"
	"github.com/jmylchreest/clipforge/internal/orchestrator"
	"github.com/jmylchreest/clipforge/internal/repository"
	"github.com/jmylchreest/clipforge/pkg/bytesize"
)

// runtime bundles the shared pipeline dependencies every subcommand
// needs: resolved tools, runner, prober, hardware probe, orchestrator
// and the optional history store.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	tools  *ffmpeg.Tools
	runner *ffmpeg.Runner
	prober *ffmpeg.Prober
	hw     *ffmpeg.HWProbe
	orch   *orchestrator.Orchestrator
	db     *database.DB
	repo   *repository.JobRepository
}

// newRuntime loads config, resolves the ffmpeg toolchain and wires the
// orchestrator. Call close() when done.
func newRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	tools, err := ffmpeg.NewLocator(cfg.FFmpeg).Resolve()
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved ffmpeg toolchain",
		slog.String("ffmpeg", tools.FFmpeg),
		slog.String("ffprobe", tools.FFprobe))

	runner := ffmpeg.NewRunner(logger)
	prober := ffmpeg.NewProber(tools.FFprobe, runner).WithTimeout(cfg.FFmpeg.ProbeTimeout)
	hw := ffmpeg.NewHWProbe(tools.FFmpeg, runner)

	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		tools:  tools,
		runner: runner,
		prober: prober,
		hw:     hw,
	}

	opts := []orchestrator.Option{orchestrator.WithEvents(rt.printEvent)}
	if cfg.History.Enabled {
		db, err := database.Open(cfg.History, observability.WithComponent(logger, "history"))
		if err != nil {
			// History is best-effort; the pipeline works without it.
			logger.Warn("history store unavailable", slog.String("error", err.Error()))
		} else {
			rt.db = db
			rt.repo = repository.NewJobRepository(db)
			opts = append(opts, orchestrator.WithRecorder(rt.repo))
		}
	}
	rt.orch = orchestrator.New(cfg.Pipeline.WorkerCount, logger, opts...)
	return rt, nil
}

func (rt *runtime) close() {
	if rt.db != nil {
		_ = rt.db.Close()
	}
}

// printEvent renders orchestrator events for the terminal.
func (rt *runtime) printEvent(ev orchestrator.Event) {
	switch ev.Type {
	case orchestrator.EventPhase:
		rt.logger.Info("phase", slog.String("name", ev.Phase))
	case orchestrator.EventProgress:
		rt.logger.Info("progress",
			slog.Int("done", ev.Done),
			slog.Int("total", ev.Total))
	case orchestrator.EventRow:
		rt.logger.Info("produced",
			slog.String("path", ev.Row.Path),
			slog.Float64("duration_s", ev.Row.Duration),
			slog.String("size", bytesize.Format(bytesize.Size(ev.Row.SizeBytes))))
	case orchestrator.EventError:
		rt.logger.Error("item failed",
			slog.String("kind", ev.Kind),
			slog.String("error", ev.Message))
	case orchestrator.EventFinished:
		rt.logger.Info("finished", slog.Int("ok", ev.OK))
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
