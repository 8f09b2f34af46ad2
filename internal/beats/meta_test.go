package beats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		meta    BeatsMeta
		wantErr bool
	}{
		{
			name: "valid",
			meta: BeatsMeta{
				Meta:       Meta{Duration: 10},
				Beats:      []float64{0.5, 1.0, 1.5},
				Suggestion: Suggestion{Highlight: Highlight{StartTime: 1, EndTime: 5}},
			},
		},
		{
			name: "unsorted beats",
			meta: BeatsMeta{
				Meta:       Meta{Duration: 10},
				Beats:      []float64{1.5, 1.0},
				Suggestion: Suggestion{Highlight: Highlight{StartTime: 1, EndTime: 5}},
			},
			wantErr: true,
		},
		{
			name: "highlight past duration",
			meta: BeatsMeta{
				Meta:       Meta{Duration: 10},
				Beats:      []float64{1.0},
				Suggestion: Suggestion{Highlight: Highlight{StartTime: 8, EndTime: 12}},
			},
			wantErr: true,
		},
		{
			name: "empty highlight",
			meta: BeatsMeta{
				Meta:  Meta{Duration: 10},
				Beats: []float64{1.0},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBeatsInWindow(t *testing.T) {
	m := BeatsMeta{Beats: []float64{0.5, 1.0, 2.0, 3.5, 5.0}}

	assert.Equal(t, []float64{1.0, 2.0, 3.5}, m.BeatsInWindow(1.0, 3.5))
	assert.Empty(t, m.BeatsInWindow(6, 10))
	assert.Equal(t, []float64{0.5, 1.0, 2.0, 3.5, 5.0}, m.BeatsInWindow(0, 5))
}

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "track.beats.json"), SidecarPath(filepath.Join("a", "track.mp3")))
	assert.Equal(t, "noext.beats.json", SidecarPath("noext"))
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.beats.json")

	in := &BeatsMeta{
		Meta:       Meta{Duration: 30},
		Beats:      []float64{0.5, 1.1, 1.7},
		Suggestion: Suggestion{Highlight: Highlight{StartTime: 5, EndTime: 20}},
	}
	require.NoError(t, in.Save(path))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in.Meta.Duration, out.Meta.Duration)
	assert.Equal(t, in.Beats, out.Beats)
	assert.Equal(t, in.Suggestion, out.Suggestion)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.beats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"meta":{"duration":10},"beats":[2,1],"suggestion":{"highlight":{"start_time":0,"end_time":5}}}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.beats.json"))
	assert.Error(t, err)
}
