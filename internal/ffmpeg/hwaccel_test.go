package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVideoEncoder(t *testing.T) {
	tests := []struct {
		vendor   Vendor
		useGPU   bool
		expected string
	}{
		{VendorNVIDIA, true, "h264_nvenc"},
		{VendorIntel, true, "h264_qsv"},
		{VendorAMD, true, "h264_amf"},
		{VendorApple, true, "h264_videotoolbox"},
		{VendorNone, true, "libx264"},
		{VendorUnknown, true, "libx264"},
		{VendorNVIDIA, false, "libx264"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, VideoEncoder(tt.vendor, tt.useGPU),
			"vendor %s gpu %v", tt.vendor, tt.useGPU)
	}
}

func TestIsHardware(t *testing.T) {
	assert.False(t, IsHardware("libx264"))
	assert.True(t, IsHardware("h264_nvenc"))
	assert.True(t, IsHardware("h264_qsv"))
}
