package mediaerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"tool not found", ErrToolNotFound, "tool_not_found"},
		{"wrapped tool not found", fmt.Errorf("resolving: %w", ErrToolNotFound), "tool_not_found"},
		{"bad input", ErrBadInputKind, "bad_input_kind"},
		{"probe", ErrProbeFailure, "probe_failure"},
		{"model load", ErrModelLoadFailure, "model_load_failure"},
		{"oom", ErrOutOfMemory, "out_of_memory"},
		{"cancelled", ErrCancelled, "cancelled"},
		{"encode", NewEncodeError(1, "boom"), "encode_failure"},
		{"wrapped encode", fmt.Errorf("task: %w", NewEncodeError(1, "boom")), "encode_failure"},
		{"unknown", errors.New("whatever"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Kind(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrToolNotFound))
	assert.True(t, IsFatal(fmt.Errorf("asr: %w", ErrModelLoadFailure)))
	assert.False(t, IsFatal(ErrBadInputKind))
	assert.False(t, IsFatal(NewEncodeError(1, "")))
	assert.False(t, IsFatal(nil))
}

func TestEncodeError(t *testing.T) {
	err := NewEncodeError(187, "pixel format not supported")
	assert.Equal(t, 187, err.ExitCode)
	assert.Contains(t, err.Error(), "exit code 187")
	assert.Contains(t, err.Error(), "pixel format not supported")

	bare := NewEncodeError(1, "")
	assert.Equal(t, "encode failure: exit code 1", bare.Error())
}

func TestTailTruncation(t *testing.T) {
	long := strings.Repeat("x", 2000) + "END"
	tail := Tail(long)
	assert.Len(t, tail, StderrTailLimit)
	assert.True(t, strings.HasSuffix(tail, "END"))

	assert.Equal(t, "short", Tail("short"))
}

func TestTailKeepsRuneBoundary(t *testing.T) {
	// A one-byte prefix misaligns the cut so it would land inside a
	// three-byte rune; the tail must still be valid UTF-8.
	long := "x" + strings.Repeat("码", 400)
	tail := Tail(long)
	assert.True(t, utf8.ValidString(tail))
	assert.LessOrEqual(t, len(tail), StderrTailLimit)
	assert.True(t, strings.HasSuffix(tail, "码"))

	// A boundary-aligned cut keeps the full limit.
	aligned := strings.Repeat("ab", 1000)
	assert.Len(t, Tail(aligned), StderrTailLimit)
}
