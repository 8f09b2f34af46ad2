package bgmreplace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/registry"
	"github.com/jmylchreest/clipforge/internal/util"
)

// EnvSeparatorBinary overrides the source-separation binary location.
const EnvSeparatorBinary = "CLIPFORGE_SEPARATOR_BINARY"

const separatorBinaryName = "demucs"

// Segment sizes tried in descending memory cost. Lower segments use
// less memory at a small quality cost.
var segmentLadder = []int{8, 6, 4, 2, 1}

// segmentForMemory picks the largest separation segment the available
// memory supports.
func segmentForMemory(availableBytes uint64) int {
	gib := availableBytes / (1 << 30)
	switch {
	case gib >= 12:
		return 8
	case gib >= 8:
		return 6
	case gib >= 6:
		return 4
	case gib >= 4:
		return 2
	default:
		return 1
	}
}

// DemucsSeparator shells out to a demucs-compatible CLI for two-stem
// separation. On out-of-memory failures it retries down the segment
// ladder, then falls back to CPU.
type DemucsSeparator struct {
	runner   *ffmpeg.Runner
	registry *registry.Registry
	logger   *slog.Logger
	// Device is "cuda" or "cpu"; empty lets the binary choose.
	Device string
}

// NewDemucsSeparator creates the CLI-backed separator.
func NewDemucsSeparator(runner *ffmpeg.Runner, reg *registry.Registry, device string, logger *slog.Logger) *DemucsSeparator {
	if reg == nil {
		reg = registry.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DemucsSeparator{runner: runner, registry: reg, logger: logger, Device: device}
}

// Separate produces vocals and residual stems under workDir.
func (d *DemucsSeparator) Separate(ctx context.Context, audioPath string, strategy Strategy, workDir string) (*Separation, error) {
	bin, err := d.binary()
	if err != nil {
		return nil, err
	}

	startSeg := segmentForMemory(ffmpeg.AvailableMemory())
	device := d.Device

	var lastErr error
	for _, seg := range segmentLadder {
		if seg > startSeg {
			continue
		}
		sep, err := d.runOnce(ctx, bin, audioPath, workDir, device, seg)
		if err == nil {
			return sep, nil
		}
		lastErr = err
		if !isOOM(err) {
			return nil, err
		}
		d.logger.Warn("separation out of memory, reducing segment",
			slog.Int("segment", seg))
	}

	// Segment ladder exhausted on the accelerator; one last CPU run.
	if device != "cpu" {
		d.logger.Warn("separation falling back to cpu")
		if sep, err := d.runOnce(ctx, bin, audioPath, workDir, "cpu", segmentLadder[len(segmentLadder)-1]); err == nil {
			return sep, nil
		} else {
			lastErr = err
		}
	}
	return nil, fmt.Errorf("%w: %v", mediaerr.ErrOutOfMemory, lastErr)
}

func (d *DemucsSeparator) runOnce(ctx context.Context, bin, audioPath, workDir, device string, segment int) (*Separation, error) {
	outDir := filepath.Join(workDir, "stems")
	args := []string{
		"--two-stems", "vocals",
		"--segment", strconv.Itoa(segment),
		"-o", outDir,
	}
	if device != "" {
		args = append(args, "-d", device)
	}
	args = append(args, audioPath)

	// Scratch files land next to the stems instead of the global tmp.
	env := map[string]string{"TMPDIR": workDir, "TEMP": workDir, "TMP": workDir}
	if _, err := d.runner.Run(ctx, bin, args, ffmpeg.WithEnv(env)); err != nil {
		return nil, err
	}

	vocals, other, err := findStems(outDir, audioPath)
	if err != nil {
		return nil, err
	}
	return &Separation{VocalsPath: vocals, OtherPath: other}, nil
}

// findStems locates the vocals/no_vocals pair under the model output
// tree (layout: <out>/<model>/<track>/{vocals,no_vocals}.wav).
func findStems(outDir, audioPath string) (string, string, error) {
	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	var vocals, other string
	err := filepath.Walk(outDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if !strings.Contains(path, stem) {
			return nil
		}
		switch filepath.Base(path) {
		case "vocals.wav":
			vocals = path
		case "no_vocals.wav", "other.wav":
			other = path
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	if vocals == "" {
		return "", "", fmt.Errorf("%w: separator produced no vocals stem", mediaerr.ErrModelLoadFailure)
	}
	return vocals, other, nil
}

func (d *DemucsSeparator) binary() (string, error) {
	key := registry.Key{ModelID: "separator", Device: d.Device, ComputeType: "cli"}
	inst, err := d.registry.Load(key, func() (any, error) {
		path, err := util.FindBinary(separatorBinaryName, EnvSeparatorBinary, nil, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %s not found (set %s)", mediaerr.ErrModelLoadFailure, separatorBinaryName, EnvSeparatorBinary)
		}
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return inst.(string), nil
}

// isOOM sniffs accelerator out-of-memory failures from the tool output.
func isOOM(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "out of memory") || strings.Contains(msg, "cuda oom")
}
