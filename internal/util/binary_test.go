package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestFindBinaryEnvVar(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	dir := t.TempDir()
	bin := writeExecutable(t, dir, "mytool")
	t.Setenv("MYTOOL_BINARY", bin)

	found, err := FindBinary("mytool", "MYTOOL_BINARY", nil, false)
	require.NoError(t, err)
	assert.Equal(t, bin, found)
}

func TestFindBinaryEnvVarNotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "mytool")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	t.Setenv("MYTOOL_BINARY", path)

	_, err := FindBinary("mytool", "MYTOOL_BINARY", nil, false)
	assert.Error(t, err)
}

func TestFindBinaryBundledDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	dir := t.TempDir()
	bin := writeExecutable(t, dir, "mytool")

	found, err := FindBinary("mytool", "", []string{"", dir}, false)
	require.NoError(t, err)
	assert.Equal(t, bin, found)
}

func TestFindBinaryNotFound(t *testing.T) {
	_, err := FindBinary("definitely-not-a-real-binary-name", "", nil, false)
	assert.Error(t, err)
}

func TestFindBinaryDevFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PATH semantics")
	}
	dir := t.TempDir()
	writeExecutable(t, dir, "mytool")
	t.Setenv("PATH", dir)

	found, err := FindBinary("mytool", "", nil, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mytool"), found)

	// Same lookup without the fallback fails.
	_, err = FindBinary("mytool", "", nil, false)
	assert.Error(t, err)
}

func TestPrependPath(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	require.NoError(t, PrependPath("/opt/tools"))
	assert.Equal(t, "/opt/tools"+string(os.PathListSeparator)+"/usr/bin", os.Getenv("PATH"))

	require.NoError(t, PrependPath(""))
	assert.Equal(t, "/opt/tools"+string(os.PathListSeparator)+"/usr/bin", os.Getenv("PATH"))
}

func TestToFFmpegPath(t *testing.T) {
	assert.Equal(t, "file:/videos/训练 01.mp4", ToFFmpegPath("/videos/训练 01.mp4"))
	if runtime.GOOS == "windows" {
		assert.Equal(t, "file:C:/videos/a.mp4", ToFFmpegPath(`C:\videos\a.mp4`))
	}
}
