package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storymaster/arbiter/pkg/providers"
	"storymaster/arbiter/pkg/routing"
)

var scoreFlags struct {
	cost        float64
	latencyMS   int
	priority    string
	costCeiling float64
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a hypothetical candidate",
	Long: `Compute the candidate score for a hypothetical cost, latency, and
priority, using the same pure scoring function the discovery-mode
scheduler applies.

Examples:
  # Score a cheap, fast, high-priority candidate
  arbiter score --cost 0.002 --latency-ms 1500 --priority high

  # Same candidate under a cost ceiling it exceeds
  arbiter score --cost 0.002 --latency-ms 1500 --priority high --cost-ceiling 0.001`,
	RunE: scoreCandidate,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().Float64Var(&scoreFlags.cost, "cost", 0, "estimated cost in dollars")
	scoreCmd.Flags().IntVar(&scoreFlags.latencyMS, "latency-ms", 0, "estimated latency in milliseconds")
	scoreCmd.Flags().StringVar(&scoreFlags.priority, "priority", "low", "request priority: low, medium, high")
	scoreCmd.Flags().Float64Var(&scoreFlags.costCeiling, "cost-ceiling", 0, "cost ceiling in dollars (0 disables)")
}

func scoreCandidate(cmd *cobra.Command, args []string) error {
	priority := providers.Priority(scoreFlags.priority)
	switch priority {
	case providers.PriorityLow, providers.PriorityMedium, providers.PriorityHigh:
	default:
		return fmt.Errorf("unknown priority %q (want low, medium, or high)", scoreFlags.priority)
	}

	score := routing.ScoreWithCeiling(scoreFlags.cost, scoreFlags.latencyMS, priority, scoreFlags.costCeiling)
	fmt.Printf("score: %.2f\n", score)
	return nil
}
