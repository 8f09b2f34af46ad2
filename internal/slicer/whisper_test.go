package slicer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhisperJSONSegments(t *testing.T) {
	data := []byte(`{
		"language": "zh",
		"segments": [
			{"start": 0.0, "end": 2.5, "text": "你好"},
			{"start": 2.5, "end": 5.0, "text": "世界"}
		]
	}`)

	tr, err := parseWhisperJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "zh", tr.Language)
	require.Len(t, tr.Segments, 2)
	assert.Equal(t, Segment{Start: 0, End: 2.5, Text: "你好"}, tr.Segments[0])
	assert.Equal(t, Segment{Start: 2.5, End: 5.0, Text: "世界"}, tr.Segments[1])
}

func TestParseWhisperJSONWhisperCpp(t *testing.T) {
	data := []byte(`{
		"result": {"language": "en"},
		"transcription": [
			{"offsets": {"from": 0, "to": 1500}, "text": "hello"},
			{"offsets": {"from": 1500, "to": 4000}, "text": "world"}
		]
	}`)

	tr, err := parseWhisperJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "en", tr.Language)
	require.Len(t, tr.Segments, 2)
	assert.Equal(t, Segment{Start: 0, End: 1.5, Text: "hello"}, tr.Segments[0])
	assert.Equal(t, Segment{Start: 1.5, End: 4.0, Text: "world"}, tr.Segments[1])
}

func TestParseWhisperJSONInvalid(t *testing.T) {
	_, err := parseWhisperJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestParseWhisperJSONEmpty(t *testing.T) {
	tr, err := parseWhisperJSON([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, tr.Segments)
}
