package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"maestro/internal/render"
)

// historyCmd summarizes the recorded choices
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show what Maestro has learned from your choices",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	learner := newLearner()
	summary, err := learner.Summary()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	r := render.New(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), r.PreferenceSummary(summary))
	return nil
}
