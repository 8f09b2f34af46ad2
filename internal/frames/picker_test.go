package frames

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrideFor(t *testing.T) {
	assert.Equal(t, 3, strideFor(1920, 1080))
	assert.Equal(t, 3, strideFor(1080, 1920)) // portrait
	assert.Equal(t, 3, strideFor(3840, 2160))
	assert.Equal(t, 2, strideFor(1280, 720))
	assert.Equal(t, 2, strideFor(640, 360))
}

func TestJPEGQuality(t *testing.T) {
	assert.Equal(t, 100, JPEGQuality(1))
	assert.Equal(t, 60, JPEGQuality(31))
	assert.Equal(t, 100, JPEGQuality(0))  // clamps up
	assert.Equal(t, 60, JPEGQuality(99))  // clamps down
	assert.Equal(t, 99, JPEGQuality(2))
}

func TestSaveImagePNGAndJPEG(t *testing.T) {
	dir := t.TempDir()
	img := checkerboard(32, 32, 4)

	pngPath := filepath.Join(dir, "out.png")
	require.NoError(t, SaveImage(pngPath, img, 2))
	assert.FileExists(t, pngPath)

	jpgPath := filepath.Join(dir, "out.jpg")
	require.NoError(t, SaveImage(jpgPath, img, 2))
	assert.FileExists(t, jpgPath)
}

func TestSaveImageCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "out.png")
	require.NoError(t, SaveImage(path, image.NewRGBA(image.Rect(0, 0, 4, 4)), 2))
	assert.FileExists(t, path)
}
