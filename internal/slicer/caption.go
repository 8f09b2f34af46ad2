package slicer

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/registry"
	"github.com/jmylchreest/clipforge/internal/util"
)

// EnvCaptionBinary overrides the vision captioner binary location.
const EnvCaptionBinary = "CLIPFORGE_CAPTION_BINARY"

const captionBinaryName = "caption-cli"

// CommandCaptioner shells out to a captioning CLI: the binary receives
// the image path as its only argument and prints one caption line.
type CommandCaptioner struct {
	runner   *ffmpeg.Runner
	registry *registry.Registry
}

// NewCommandCaptioner creates the CLI-backed captioner.
func NewCommandCaptioner(runner *ffmpeg.Runner, reg *registry.Registry) *CommandCaptioner {
	if reg == nil {
		reg = registry.Default()
	}
	return &CommandCaptioner{runner: runner, registry: reg}
}

// Caption describes one image.
func (c *CommandCaptioner) Caption(ctx context.Context, imagePath string) (string, error) {
	key := registry.Key{ModelID: "caption", Device: "cli"}
	inst, err := c.registry.Load(key, func() (any, error) {
		path, err := util.FindBinary(captionBinaryName, EnvCaptionBinary, nil, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %s not found (set %s)", mediaerr.ErrModelLoadFailure, captionBinaryName, EnvCaptionBinary)
		}
		return path, nil
	})
	if err != nil {
		return "", err
	}

	res, err := c.runner.Run(ctx, inst.(string), []string{imagePath})
	if err != nil {
		return "", fmt.Errorf("%w: caption run: %v", mediaerr.ErrModelLoadFailure, err)
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}
