package concat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteListFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("x"), 0o644))

	listPath := filepath.Join(dir, "list.txt")
	require.NoError(t, WriteListFile(listPath, []string{a, b}))

	data, err := os.ReadFile(listPath)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasSuffix(content, "\n"))
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	require.Len(t, lines, 2)
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, "file '"), "line %d: %q", i, line)
		assert.True(t, strings.HasSuffix(line, "'"), "line %d: %q", i, line)
		path := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
		assert.NotContains(t, path, "\\", "paths are forward-slash normalized")
		assert.True(t, filepath.IsAbs(filepath.FromSlash(path)), "line %d: %q", i, line)
	}
	assert.Contains(t, lines[0], "a.mp4")
	assert.Contains(t, lines[1], "b.mp4")
}

func TestWriteListFileRelativeInput(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.txt")

	// Relative clip paths are resolved against the working directory.
	require.NoError(t, WriteListFile(listPath, []string{"clip.mp4"}))

	data, err := os.ReadFile(listPath)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	path := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
	assert.True(t, filepath.IsAbs(filepath.FromSlash(path)))
}

func TestPresetFor(t *testing.T) {
	tests := []struct {
		quality Quality
		cq      int
		crf     int
		aac     string
	}{
		{QualityBalanced, 27, 22, "128k"},
		{QualityCompact, 29, 24, "96k"},
		{QualityTiny, 31, 26, "80k"},
		{Quality("nope"), 27, 22, "128k"}, // falls back to balanced
	}

	for _, tt := range tests {
		cq, crf, aac := PresetFor(tt.quality)
		assert.Equal(t, tt.cq, cq, string(tt.quality))
		assert.Equal(t, tt.crf, crf, string(tt.quality))
		assert.Equal(t, tt.aac, aac, string(tt.quality))
	}
}
