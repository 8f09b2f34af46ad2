// Package bytesize formats byte counts for human-readable pipeline
// output, using binary (1024) units.
package bytesize

import (
	"fmt"
	"strings"
)

// Size is a byte count.
type Size int64

const (
	B  Size = 1
	KB Size = 1024
	MB Size = 1024 * KB
	GB Size = 1024 * MB
	TB Size = 1024 * GB
)

// Format renders a size with the largest unit that yields a value >= 1.
func Format(s Size) string {
	if s == 0 {
		return "0B"
	}
	negative := s < 0
	if negative {
		s = -s
	}

	var out string
	switch {
	case s >= TB:
		out = trimmed(float64(s)/float64(TB), "TB")
	case s >= GB:
		out = trimmed(float64(s)/float64(GB), "GB")
	case s >= MB:
		out = trimmed(float64(s)/float64(MB), "MB")
	case s >= KB:
		out = trimmed(float64(s)/float64(KB), "KB")
	default:
		out = fmt.Sprintf("%dB", s)
	}

	if negative {
		return "-" + out
	}
	return out
}

// trimmed formats with up to two decimals, dropping trailing zeros.
func trimmed(value float64, unit string) string {
	if value == float64(int64(value)) {
		return fmt.Sprintf("%d%s", int64(value), unit)
	}
	s := strings.TrimRight(fmt.Sprintf("%.2f", value), "0")
	return strings.TrimRight(s, ".") + unit
}

// Bytes returns the size as int64.
func (s Size) Bytes() int64 { return int64(s) }

// String returns the human-readable form.
func (s Size) String() string { return Format(s) }
