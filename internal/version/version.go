// Package version provides build-time version information for clipforge.
//
// Version, Commit, and Date are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/clipforge/internal/version.Version=x.y.z \
//	                   -X github.com/jmylchreest/clipforge/internal/version.Commit=$(git rev-parse HEAD) \
//	                   -X github.com/jmylchreest/clipforge/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
)

// Build-time variables injected via ldflags.
var (
	// Version is the semantic version following SemVer 2.0.0.
	Version = "dev"

	// Commit is the full git commit SHA.
	Commit = "unknown"

	// Date is the build timestamp in RFC3339 format.
	Date = "unknown"
)

// GoVersion is the Go runtime version.
var GoVersion = runtime.Version()

// ApplicationName is the canonical name of this application.
const ApplicationName = "clipforge"

// Info contains structured version information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns all version information as a structured type.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string.
func String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", ApplicationName, Version)
	if Commit != "unknown" {
		short := Commit
		if len(short) > 7 {
			short = short[:7]
		}
		fmt.Fprintf(&b, " (%s)", short)
	}
	if Date != "unknown" {
		fmt.Fprintf(&b, " built %s", Date)
	}
	fmt.Fprintf(&b, " %s %s/%s", GoVersion, runtime.GOOS, runtime.GOARCH)
	return b.String()
}

// Short returns just the version number for --version output.
func Short() string {
	return Version
}

// JSON returns the version information as indented JSON.
func JSON() string {
	data, err := json.MarshalIndent(GetInfo(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
