// Package cmd implements the CLI commands for clipforge.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/clipforge/internal/config"
	"github.com/jmylchreest/clipforge/internal/observability"
	"github.com/jmylchreest/clipforge/internal/version"
)

// cfgFile holds the config file path from the CLI flag.
var cfgFile string

// usageError marks argument/validation failures so main can exit 2.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// IsUsageError reports whether err is an argument/environment failure.
func IsUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:     "clipforge",
	Short:   "Batch media production pipeline around FFmpeg",
	Version: version.Short(),
	Long: `clipforge is a batch media production pipeline: it normalizes
heterogeneous source clips into a uniform encode profile, groups them by
resolution, concatenates them into delivery videos, renders
beat-synchronized mixes, slices highlight scenes by keyword and energy,
picks sharp frames, stitches covers, and replaces background music.

All heavy lifting is delegated to ffmpeg/ffprobe; clipforge orchestrates
the invocations with bounded concurrency and resumable, skip-existing
output trees.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return initLogging()
	}

	// Flags are not bound to viper: Changed() gates the override so the
	// priority stays CLI flag > env var > config file > default.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.clipforge.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initConfig reads the config file and environment.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/clipforge")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".clipforge")
	}

	viper.SetEnvPrefix("CLIPFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// initLogging configures the default slog logger.
//
// Priority order (highest to lowest): CLI flags when explicitly set,
// environment variables, config file values, built-in defaults.
func initLogging() error {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	if rootCmd.PersistentFlags().Changed("log-level") {
		level, _ = rootCmd.PersistentFlags().GetString("log-level")
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		format, _ = rootCmd.PersistentFlags().GetString("log-format")
	}

	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "text"
	}
	if strings.EqualFold(level, "warning") {
		level = "warn"
	}

	logger := observability.NewLoggerWithWriter(config.LoggingConfig{
		Level:  strings.ToLower(level),
		Format: strings.ToLower(format),
	}, os.Stderr)
	observability.SetDefault(logger)
	return nil
}

// loadConfig builds the validated runtime configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, usageErrorf("loading config: %w", err)
	}
	return cfg, nil
}
