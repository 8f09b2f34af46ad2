package slicer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmylchreest/clipforge/internal/ffmpeg"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
	"github.com/jmylchreest/clipforge/internal/registry"
	"github.com/jmylchreest/clipforge/internal/util"
)

// EnvWhisperBinary overrides the ASR binary location.
const EnvWhisperBinary = "CLIPFORGE_WHISPER_BINARY"

// whisperBinaryName is the default ASR binary searched on PATH.
const whisperBinaryName = "whisper-cli"

// WhisperTranscriber shells out to a whisper-style CLI. The binary must
// accept -f <audio> -oj -of <out> and write <out>.json with the segment
// schema below; whisper.cpp's CLI does.
type WhisperTranscriber struct {
	runner   *ffmpeg.Runner
	registry *registry.Registry
	logger   *slog.Logger
	// ModelPath is passed as -m when set; empty relies on the binary's
	// own default, with WHISPER_MODEL_DIR as the conventional root.
	ModelPath string
}

// NewWhisperTranscriber creates the CLI-backed transcriber.
func NewWhisperTranscriber(runner *ffmpeg.Runner, reg *registry.Registry, modelPath string, logger *slog.Logger) *WhisperTranscriber {
	if reg == nil {
		reg = registry.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WhisperTranscriber{
		runner:    runner,
		registry:  reg,
		logger:    logger,
		ModelPath: modelPath,
	}
}

// whisperOutput mirrors the JSON the ASR CLI writes.
type whisperOutput struct {
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	// whisper.cpp variant
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
}

// Transcribe runs the ASR binary and parses its JSON output.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, mediaPath string, opts TranscribeOptions) (*Transcript, error) {
	bin, err := t.binary()
	if err != nil {
		return nil, err
	}

	work, err := os.MkdirTemp("", "clipforge-asr-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(work)

	outBase := filepath.Join(work, "transcript")
	args := []string{"-f", mediaPath, "-oj", "-of", outBase}
	if t.ModelPath != "" {
		args = append(args, "-m", t.ModelPath)
	}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	}
	if opts.VADFilter {
		args = append(args, "--vad")
	}

	if _, err := t.runner.Run(ctx, bin, args); err != nil {
		return nil, fmt.Errorf("%w: asr run: %v", mediaerr.ErrModelLoadFailure, err)
	}

	data, err := os.ReadFile(outBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: reading asr output: %v", mediaerr.ErrModelLoadFailure, err)
	}
	return parseWhisperJSON(data)
}

// binary resolves and memoizes the ASR binary path.
func (t *WhisperTranscriber) binary() (string, error) {
	key := registry.Key{ModelID: "whisper", Device: "cli", ComputeType: t.ModelPath}
	inst, err := t.registry.Load(key, func() (any, error) {
		path, err := util.FindBinary(whisperBinaryName, EnvWhisperBinary, nil, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %s not found (set %s)", mediaerr.ErrModelLoadFailure, whisperBinaryName, EnvWhisperBinary)
		}
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return inst.(string), nil
}

// parseWhisperJSON accepts both the faster-whisper segment schema and
// the whisper.cpp transcription schema.
func parseWhisperJSON(data []byte) (*Transcript, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: parsing asr output: %v", mediaerr.ErrModelLoadFailure, err)
	}

	tr := &Transcript{Language: out.Language}
	if tr.Language == "" {
		tr.Language = out.Result.Language
	}
	for _, s := range out.Segments {
		tr.Segments = append(tr.Segments, Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	for _, s := range out.Transcription {
		tr.Segments = append(tr.Segments, Segment{
			Start: float64(s.Offsets.From) / 1000,
			End:   float64(s.Offsets.To) / 1000,
			Text:  s.Text,
		})
	}
	return tr, nil
}
