package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		size Size
		want string
	}{
		{0, "0B"},
		{1, "1B"},
		{512, "512B"},
		{1024, "1KB"},
		{1536, "1.5KB"},
		{5 * MB, "5MB"},
		{Size(1.25 * float64(GB)), "1.25GB"},
		{2 * TB, "2TB"},
		{-1536, "-1.5KB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.size))
		assert.Equal(t, tt.want, tt.size.String())
	}
}

func TestBytes(t *testing.T) {
	assert.Equal(t, int64(1048576), MB.Bytes())
}
