package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/clipforge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the effective configuration",
	Long: `Dump the effective configuration values in YAML format.

Redirect this output to a file to create a configuration template:

  clipforge config dump > config.yaml

Configuration can be set via config file (.clipforge.yaml,
/etc/clipforge/config.yaml), environment variables with the CLIPFORGE_
prefix (CLIPFORGE_PIPELINE_WORKER_COUNT=8), or command-line flags.`,
	RunE: runConfigDump,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return usageErrorf("loading config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Println("# clipforge configuration")
	fmt.Println("#")
	fmt.Println("# Environment variable overrides use the CLIPFORGE_ prefix")
	fmt.Println("# with underscores for nesting, e.g. CLIPFORGE_AUDIO_SAMPLE_RATE.")
	fmt.Println("")
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(cfgFile); err != nil {
		return usageErrorf("configuration invalid: %w", err)
	}
	fmt.Println("configuration is valid")
	return nil
}
