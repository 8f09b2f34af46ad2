// Package main is the entry point for the clipforge CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jmylchreest/clipforge/cmd/clipforge/cmd"
	"github.com/jmylchreest/clipforge/internal/mediaerr"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors onto the CLI contract: 2 for argument and
// environment failures, 5 for runtime failures.
func exitCode(err error) int {
	if errors.Is(err, mediaerr.ErrToolNotFound) || cmd.IsUsageError(err) {
		return 2
	}
	return 5
}
