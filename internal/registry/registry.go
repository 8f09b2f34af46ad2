// Package registry caches process-wide ML model handles. Loading is at
// most once per (model, device, compute type) key; concurrent callers
// share one instance.
package registry

import (
	"log/slog"
	"os"
	"sync"
)

// EnvModelDir points the loaders at a models root directory.
const EnvModelDir = "WHISPER_MODEL_DIR"

// Key identifies one loaded model instance.
type Key struct {
	ModelID     string
	Device      string
	ComputeType string
}

// Registry is a keyed single-flight model cache.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]any
	logger  *slog.Logger
}

// New creates an empty Registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{entries: make(map[Key]any), logger: logger}
}

// Load returns the cached instance for key, invoking load under the lock
// when absent. A failed load caches nothing, so later callers retry.
func (r *Registry) Load(key Key, load func() (any, error)) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.entries[key]; ok {
		return inst, nil
	}

	r.logger.Info("loading model",
		slog.String("model", key.ModelID),
		slog.String("device", key.Device),
		slog.String("compute_type", key.ComputeType))
	inst, err := load()
	if err != nil {
		return nil, err
	}
	r.entries[key] = inst
	return inst, nil
}

// Evict drops one cached instance; used on device OOM downgrade.
func (r *Registry) Evict(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Len reports the number of cached instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ModelDir resolves the models root from the environment; empty when
// unset (loaders then use their own defaults).
func ModelDir() string {
	return os.Getenv(EnvModelDir)
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New(nil)
	})
	return defaultReg
}
