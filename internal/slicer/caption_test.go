package slicer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/registry"
)

func TestCommandCaptionerTrimsOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "caption-cli")
	script := "#!/bin/sh\necho '  a cat sitting on a sofa  '\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	t.Setenv(EnvCaptionBinary, bin)

	c := NewCommandCaptioner(ffmpeg.NewRunner(nil), registry.New(nil))
	caption, err := c.Caption(context.Background(), "frame.jpg")
	require.NoError(t, err)
	assert.Equal(t, "a cat sitting on a sofa", caption)
}

func TestCommandCaptionerMissingBinary(t *testing.T) {
	t.Setenv(EnvCaptionBinary, "")
	t.Setenv("PATH", t.TempDir())

	c := NewCommandCaptioner(ffmpeg.NewRunner(nil), registry.New(nil))
	_, err := c.Caption(context.Background(), "frame.jpg")
	assert.Error(t, err)
}
