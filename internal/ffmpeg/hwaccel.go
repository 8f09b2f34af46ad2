package ffmpeg

import (
	"context"
	"runtime"
	"strings"
	"sync"
)

// Vendor identifies the hardware H.264 encoder vendor, if any.
type Vendor string

const (
	VendorNVIDIA  Vendor = "nvidia"
	VendorIntel   Vendor = "intel"
	VendorAMD     Vendor = "amd"
	VendorApple   Vendor = "apple"
	VendorNone    Vendor = "none"
	VendorUnknown Vendor = "unknown"
)

// Encoder tokens searched for in `ffmpeg -encoders` output.
const (
	encoderNVENC        = "h264_nvenc"
	encoderQSV          = "h264_qsv"
	encoderAMF          = "h264_amf"
	encoderVideoToolbox = "h264_videotoolbox"
)

// HWProbe detects the available hardware H.264 encoder by parsing
// `ffmpeg -encoders`. The result is memoized; callers must consult it
// rather than assuming hardware availability.
type HWProbe struct {
	runner *Runner
	ffmpeg string

	once   sync.Once
	vendor Vendor
}

// NewHWProbe creates a hardware encoder probe for the given ffmpeg binary.
func NewHWProbe(ffmpegPath string, runner *Runner) *HWProbe {
	return &HWProbe{
		runner: runner,
		ffmpeg: ffmpegPath,
		vendor: VendorUnknown,
	}
}

// Vendor returns the detected encoder vendor. Detection runs at most once.
func (p *HWProbe) Vendor(ctx context.Context) Vendor {
	p.once.Do(func() {
		p.vendor = p.detect(ctx)
	})
	return p.vendor
}

func (p *HWProbe) detect(ctx context.Context) Vendor {
	res, err := p.runner.Run(ctx, p.ffmpeg, []string{"-hide_banner", "-encoders"})
	if err != nil {
		return VendorUnknown
	}
	out := string(res.Stdout)
	switch {
	case strings.Contains(out, encoderNVENC):
		return VendorNVIDIA
	case runtime.GOOS == "darwin" && strings.Contains(out, encoderVideoToolbox):
		return VendorApple
	case strings.Contains(out, encoderQSV):
		return VendorIntel
	case strings.Contains(out, encoderAMF):
		return VendorAMD
	default:
		return VendorNone
	}
}

// VideoEncoder returns the H.264 encoder name for the vendor when useGPU
// is set, falling back to libx264.
func VideoEncoder(vendor Vendor, useGPU bool) string {
	if !useGPU {
		return "libx264"
	}
	switch vendor {
	case VendorNVIDIA:
		return encoderNVENC
	case VendorApple:
		return encoderVideoToolbox
	case VendorIntel:
		return encoderQSV
	case VendorAMD:
		return encoderAMF
	default:
		return "libx264"
	}
}

// IsHardware reports whether the encoder name is a hardware encoder.
func IsHardware(encoder string) bool {
	return encoder != "libx264"
}
