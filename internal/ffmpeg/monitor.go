package ffmpeg

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Stats contains resource usage for a monitored child process.
type Stats struct {
	PID         int       `json:"pid"`
	CPUPercent  float64   `json:"cpu_percent"`
	MemoryRSS   uint64    `json:"memory_rss_bytes"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Monitor samples CPU and memory usage of a child process while it runs.
type Monitor struct {
	pid       int
	interval  time.Duration
	startedAt time.Time

	mu    sync.RWMutex
	stats Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a monitor for the given PID.
func NewMonitor(pid int) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		pid:       pid,
		interval:  time.Second,
		startedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins sampling in the background.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.sample()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.sample()
			}
		}
	}()
}

// Stop halts sampling and waits for the sampler to exit.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

// Stats returns the latest sample.
func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

func (m *Monitor) sample() {
	proc, err := process.NewProcess(int32(m.pid))
	if err != nil {
		return // process exited
	}

	stats := Stats{
		PID:         m.pid,
		StartedAt:   m.startedAt,
		LastUpdated: time.Now(),
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
		stats.MemoryRSS = memInfo.RSS
	}

	m.mu.Lock()
	m.stats = stats
	m.mu.Unlock()
}

// AvailableMemory returns the system's available memory in bytes, or 0
// when it cannot be determined. Separation uses this to size its segments
// before falling back to CPU.
func AvailableMemory() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil {
		return 0
	}
	return vm.Available
}
