package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"maestro/internal/constraint"
	"maestro/internal/generator"
	"maestro/internal/perception"
	"maestro/internal/render"
	"maestro/internal/types"
)

var (
	estimateBudget  float64
	estimateQuality float64
	estimateTime    time.Duration
	estimateCount   int
)

// estimateCmd prices a request without negotiating or executing it
var estimateCmd = &cobra.Command{
	Use:   "estimate [request]",
	Short: "Print the priced options for a request and exit",
	Long: `Classifies the request, generates the options and prints them as a table.
Constraints given as flags are checked against every option, and a budget
the Balanced option overshoots adds a Scope Reduction option.

Example:
  maestro estimate "Scrape 100 dive shop websites" --budget 0.10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEstimate,
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetLLMTimeout()*time.Duration(cfg.LLM.RetryCount+1))
	defer cancel()

	table, err := loadTable()
	if err != nil {
		return err
	}
	gen, err := generator.New(table)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	task, ok := perception.Default(perception.NewLLMClassifier(llmConfig())).Classify(ctx, text)
	if !ok {
		return fmt.Errorf("could not classify %q as a scraping, analysis or API task", text)
	}
	if estimateCount != 0 {
		task = task.WithCount(estimateCount)
	}
	if task.Count() < 1 {
		return types.ErrInvalidCount
	}

	c, err := estimateConstraint()
	if err != nil {
		return err
	}
	options, err := gen.Generate(task, c, "")
	if err != nil {
		return err
	}
	if c != nil {
		constraint.New().Validate(options, *c)
	}

	r := render.New(cmd.OutOrStdout())
	title := fmt.Sprintf("%s: %d %s", task.Category, task.Count(), task.Category.UnitNoun())
	fmt.Fprintln(cmd.OutOrStdout(), r.OptionTable(title, options))
	return nil
}

// estimateConstraint builds the constraint from the flags; nil when none is
// set. Quality above 1 is read as a percentage.
func estimateConstraint() (*types.Constraint, error) {
	c := types.NewConstraint()
	if estimateBudget < 0 {
		return nil, fmt.Errorf("--budget must be positive")
	}
	if estimateBudget > 0 {
		c.BudgetMax = types.Float(estimateBudget)
	}
	q := estimateQuality
	if q > 1 {
		q /= 100
	}
	if q < 0 || q > 1 {
		return nil, fmt.Errorf("--quality must be between 0 and 100")
	}
	if q > 0 {
		c.QualityMin = types.Float(q)
	}
	if estimateTime < 0 {
		return nil, fmt.Errorf("--time must be positive")
	}
	if estimateTime > 0 {
		c.TimeMax = types.Int(int(estimateTime.Seconds()))
	}
	if c.Empty() {
		return nil, nil
	}
	return &c, nil
}
