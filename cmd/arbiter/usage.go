package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storymaster/arbiter/pkg/config"
	"storymaster/arbiter/pkg/usage"
)

var usageFlags struct {
	format string
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize the usage ledger",
	Long: `Print per-provider request, token, cost, and latency totals from
the usage ledger configured in the config file.

Examples:
  arbiter usage
  arbiter usage --format json`,
	RunE: summarizeUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().StringVar(&usageFlags.format, "format", "text", "output format: text, json")
}

func summarizeUsage(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	ledger, err := usage.NewLedger(cfg.Usage, nil)
	if err != nil {
		return err
	}
	defer ledger.Close()

	summaries, err := ledger.SummaryByProvider(cmd.Context())
	if err != nil {
		return err
	}

	if usageFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("no usage recorded")
		return nil
	}

	for _, s := range summaries {
		fmt.Printf("%s\n", s.Provider)
		fmt.Printf("  requests:          %d (%d errors)\n", s.Requests, s.Errors)
		fmt.Printf("  prompt tokens:     %d\n", s.PromptTokens)
		fmt.Printf("  completion tokens: %d\n", s.CompletionTokens)
		fmt.Printf("  total cost:        $%.4f\n", s.TotalCost)
		fmt.Printf("  avg latency:       %.0fms\n", s.AverageLatencyMS)
	}
	return nil
}
