// Package scheduler drives watch mode: cron-scheduled rescans of an
// inbox directory that feed new media into the pipeline.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jmylchreest/clipforge/internal/config"
)

// ScanFunc processes the inbox once. Errors are logged, not fatal; the
// next tick runs regardless.
type ScanFunc func(ctx context.Context, inboxDir string) error

// Scheduler runs the inbox scan on a cron schedule.
type Scheduler struct {
	cfg    config.WatchConfig
	scan   ScanFunc
	logger *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New creates a Scheduler.
func New(cfg config.WatchConfig, scan ScanFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cfg: cfg, scan: scan, logger: logger}
}

// Start validates the cron expression and begins scheduling. The scan
// also runs once immediately so a fresh start drains the inbox.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(s.cfg.Cron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cfg.Cron, err)
	}

	c := cron.New(cron.WithParser(parser))
	_, err := c.AddFunc(s.cfg.Cron, func() {
		s.runScan(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling scan: %w", err)
	}

	s.cron = c
	s.running = true
	c.Start()
	s.logger.Info("watch schedule started",
		slog.String("cron", s.cfg.Cron),
		slog.String("inbox", s.cfg.InboxDir))

	go s.runScan(ctx)
	return nil
}

// Stop halts scheduling and waits for a running scan to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false
	s.logger.Info("watch schedule stopped")
}

func (s *Scheduler) runScan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Debug("scanning inbox", slog.String("inbox", s.cfg.InboxDir))
	if err := s.scan(ctx, s.cfg.InboxDir); err != nil {
		s.logger.Error("inbox scan failed",
			slog.String("inbox", s.cfg.InboxDir),
			slog.String("error", err.Error()))
	}
}
