package beats

import "context"

// Mode selects the extraction strategy.
type Mode string

const (
	// ModeEnergy detects beats from short-time energy flux peaks.
	ModeEnergy Mode = "energy"
	// ModeUniform lays a fixed grid at the estimated tempo; useful for
	// tracks with weak transients.
	ModeUniform Mode = "uniform"
)

// Extractor produces a beat grid for an audio track. Implementations may
// shell out to external analyzers; the pipeline only depends on this
// interface.
type Extractor interface {
	Extract(ctx context.Context, audioPath string, mode Mode) (*BeatsMeta, error)
}
