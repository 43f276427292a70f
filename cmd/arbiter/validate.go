package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storymaster/arbiter/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file, apply defaults and environment
overrides, and report any validation errors.

Examples:
  # Validate the default config file
  arbiter validate

  # Validate a specific file
  arbiter validate --config /etc/arbiter/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	fmt.Printf("%s: OK\n", cfgFile)
	fmt.Printf("  providers:         %d\n", len(cfg.Providers))
	fmt.Printf("  default provider:  %s\n", cfg.Scheduler.DefaultProvider)
	fmt.Printf("  fallbacks:         %v\n", cfg.Scheduler.FallbackProviders)
	fmt.Printf("  max retries:       %d\n", cfg.Scheduler.MaxRetries)
	fmt.Printf("  retry delay:       %s\n", cfg.Scheduler.RetryDelay)
	fmt.Printf("  catalog TTL:       %s\n", cfg.Scheduler.CatalogTTL)
	if cfg.Scheduler.CostCeiling > 0 {
		fmt.Printf("  cost ceiling:      $%.4f\n", cfg.Scheduler.CostCeiling)
	}
	return nil
}
