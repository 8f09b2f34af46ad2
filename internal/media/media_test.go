package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path     string
		expected Kind
	}{
		{"clip.mp4", KindVideo},
		{"CLIP.MOV", KindVideo},
		{"photo.jpg", KindImage},
		{"cover.PNG", KindImage},
		{"track.mp3", KindAudio},
		{"voice.m4a", KindAudio},
		{"readme.txt", KindUnknown},
		{"noext", KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Classify(tt.path), tt.path)
	}
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.mp4")
	touch(t, dir, "a.mp4")
	touch(t, dir, "cover.jpg")
	touch(t, dir, "notes.txt")

	items, err := List(dir, ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	// Sorted by path; unknown kinds dropped.
	assert.Equal(t, "a.mp4", filepath.Base(items[0].Path))
	assert.Equal(t, "b.mp4", filepath.Base(items[1].Path))
	assert.Equal(t, "cover.jpg", filepath.Base(items[2].Path))
}

func TestListKindFilter(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	touch(t, dir, "b.jpg")
	touch(t, dir, "c.mp3")

	items, err := List(dir, ListOptions{Kinds: []Kind{KindVideo, KindImage}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.NotEqual(t, KindAudio, item.Kind)
	}
}

func TestListRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	touch(t, dir, "top.mp4")
	touch(t, sub, "nested.mp4")

	flat, err := List(dir, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, flat, 1)

	deep, err := List(dir, ListOptions{Recursive: true})
	require.NoError(t, err)
	assert.Len(t, deep, 2)
}

func TestListMissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "nope"), ListOptions{})
	assert.Error(t, err)
}

func TestNewItem(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "clip.mp4")

	item, err := NewItem(filepath.Join(dir, "clip.mp4"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(item.Path))
	assert.Equal(t, KindVideo, item.Kind)
	assert.Equal(t, int64(1), item.SizeBytes)
}
