package bgmreplace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentForMemory(t *testing.T) {
	gib := func(n uint64) uint64 { return n << 30 }

	tests := []struct {
		available uint64
		segment   int
	}{
		{gib(16), 8},
		{gib(12), 8},
		{gib(10), 6},
		{gib(8), 6},
		{gib(7), 4},
		{gib(6), 4},
		{gib(5), 2},
		{gib(4), 2},
		{gib(3), 1},
		{0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.segment, segmentForMemory(tt.available), "available %d", tt.available)
	}
}

func TestFindStems(t *testing.T) {
	work := t.TempDir()
	trackDir := filepath.Join(work, "htdemucs", "source")
	require.NoError(t, os.MkdirAll(trackDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(trackDir, "vocals.wav"), []byte("v"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(trackDir, "no_vocals.wav"), []byte("o"), 0o644))

	vocals, other, err := findStems(work, "/tmp/source.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(trackDir, "vocals.wav"), vocals)
	assert.Equal(t, filepath.Join(trackDir, "no_vocals.wav"), other)
}

func TestFindStemsVocalsOnly(t *testing.T) {
	work := t.TempDir()
	trackDir := filepath.Join(work, "htdemucs", "clip")
	require.NoError(t, os.MkdirAll(trackDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(trackDir, "vocals.wav"), []byte("v"), 0o644))

	vocals, other, err := findStems(work, "clip.wav")
	require.NoError(t, err)
	assert.NotEmpty(t, vocals)
	assert.Empty(t, other)
}

func TestFindStemsMissingVocals(t *testing.T) {
	work := t.TempDir()
	_, _, err := findStems(work, "clip.wav")
	assert.Error(t, err)
}

func TestIsOOM(t *testing.T) {
	assert.True(t, isOOM(errors.New("CUDA out of memory. Tried to allocate")))
	assert.True(t, isOOM(errors.New("cuda oom")))
	assert.False(t, isOOM(errors.New("file not found")))
}
