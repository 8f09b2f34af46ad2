// Package util provides shared utility functions.
package util

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// FindBinary searches for an executable binary by name.
// Search order:
//  1. Environment variable (if envVar is non-empty and set)
//  2. bundled directories (e.g. a tools dir shipped with the app)
//  3. name on PATH, only when devFallback is true
//
// Each candidate is verified to exist and be executable before being
// returned. Returns the resolved path or an error if not found.
func FindBinary(name string, envVar string, bundledDirs []string, devFallback bool) (string, error) {
	if envVar != "" {
		if envPath := os.Getenv(envVar); envPath != "" {
			if isExecutable(envPath) {
				return envPath, nil
			}
		}
	}

	for _, dir := range bundledDirs {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
		if isExecutable(candidate + ".exe") {
			return candidate + ".exe", nil
		}
	}

	if devFallback {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("binary %s not found", name)
}

// PrependPath prepends dir to the PATH environment variable so that child
// processes resolve sibling helpers from the same tool directory.
func PrependPath(dir string) error {
	if dir == "" {
		return nil
	}
	current := os.Getenv("PATH")
	if current == "" {
		return os.Setenv("PATH", dir)
	}
	return os.Setenv("PATH", dir+string(os.PathListSeparator)+current)
}

// ToFFmpegPath converts a filesystem path into the form ffmpeg accepts for
// non-ASCII input: forward slashes, prefixed with "file:".
func ToFFmpegPath(path string) string {
	return "file:" + filepath.ToSlash(path)
}

// isExecutable checks if a file exists and is executable by the current user.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	mode := info.Mode()
	return mode&0111 != 0
}
