package ffmpeg

import (
	"strings"
)

// CommandBuilder builds ffmpeg argument lists with a fluent API.
//
// Every built command carries the pipeline's global invariants:
// -hide_banner, -nostdin, -y, and -loglevel error unless overridden.
// Arguments are kept as a list; no shell strings anywhere.
type CommandBuilder struct {
	globalArgs []string
	inputs     []commandInput
	filterArgs []string
	outputArgs []string
	output     string
	logLevel   string
}

type commandInput struct {
	args []string
	path string
}

// NewCommandBuilder creates a builder with the standard global flags.
func NewCommandBuilder() *CommandBuilder {
	return &CommandBuilder{logLevel: "error"}
}

// LogLevel overrides the ffmpeg log level (default "error").
func (b *CommandBuilder) LogLevel(level string) *CommandBuilder {
	b.logLevel = level
	return b
}

// GlobalArgs appends arbitrary global arguments.
func (b *CommandBuilder) GlobalArgs(args ...string) *CommandBuilder {
	b.globalArgs = append(b.globalArgs, args...)
	return b
}

// Input adds an input with optional preceding input arguments
// (e.g. -ss for fast seek, -stream_loop, -f concat -safe 0).
func (b *CommandBuilder) Input(path string, inputArgs ...string) *CommandBuilder {
	b.inputs = append(b.inputs, commandInput{args: inputArgs, path: path})
	return b
}

// VideoFilter appends a filter to the -vf chain.
func (b *CommandBuilder) VideoFilter(filter string) *CommandBuilder {
	b.filterArgs = append(b.filterArgs, filter)
	return b
}

// VideoCodec sets the video codec.
func (b *CommandBuilder) VideoCodec(codec string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-c:v", codec)
	return b
}

// AudioCodec sets the audio codec.
func (b *CommandBuilder) AudioCodec(codec string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-c:a", codec)
	return b
}

// OutputArgs appends arbitrary output arguments.
func (b *CommandBuilder) OutputArgs(args ...string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, args...)
	return b
}

// Map adds a -map selection.
func (b *CommandBuilder) Map(spec string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-map", spec)
	return b
}

// FastStart enables moov relocation for progressive playback.
func (b *CommandBuilder) FastStart() *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-movflags", "+faststart")
	return b
}

// StripMetadata drops container metadata from the output.
func (b *CommandBuilder) StripMetadata() *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-map_metadata", "-1")
	return b
}

// Output sets the output destination.
func (b *CommandBuilder) Output(path string) *CommandBuilder {
	b.output = path
	return b
}

// Build assembles the final argument list.
func (b *CommandBuilder) Build() []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-loglevel", b.logLevel}
	args = append(args, b.globalArgs...)

	for _, in := range b.inputs {
		args = append(args, in.args...)
		args = append(args, "-i", in.path)
	}

	if len(b.filterArgs) > 0 {
		args = append(args, "-vf", strings.Join(b.filterArgs, ","))
	}

	args = append(args, b.outputArgs...)
	if b.output != "" {
		args = append(args, b.output)
	}
	return args
}
