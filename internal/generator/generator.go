// Package generator builds the set of priced strategy options for a task.
//
// Every category is served by the same four-profile generator, parameterized
// by the strategy table in profiles.go. A budget constraint can add one
// "Scope Reduction" option, and a learned preference can move the
// recommendation.
package generator

import (
	"fmt"

	"maestro/internal/costmodel"
	"maestro/internal/logging"
	"maestro/internal/pricing"
	"maestro/internal/types"
)

// Generator produces options from the pricing table. It is safe for
// concurrent use; it holds no mutable state.
type Generator struct {
	model *costmodel.Model
}

// New checks the table carries every tool the strategy table needs.
func New(table *pricing.Table) (*Generator, error) {
	if err := table.Require(RequiredTools); err != nil {
		return nil, err
	}
	return &Generator{model: costmodel.New(table)}, nil
}

// Model exposes the underlying cost model.
func (g *Generator) Model() *costmodel.Model {
	return g.model
}

// Generate returns the four base options for task, plus a scope reduction
// when constraint sets a budget that Balanced overshoots. When preferred
// names one of the returned options exactly, that option becomes the
// recommendation. The constraint is not validated here.
func (g *Generator) Generate(task types.Task, constraint *types.Constraint, preferred string) ([]types.Option, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	cp := strategyTable[task.Category]
	d := describer{table: g.model.Table(), category: task.Category, cp: cp}
	count := task.Count()

	options := make([]types.Option, 0, len(cp.profiles)+1)
	estimates := make([]costmodel.Estimate, 0, len(cp.profiles))
	for _, p := range cp.profiles {
		est, err := g.model.Estimate(task.Category, p.combo, count)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate %s: %w", p.name, err)
		}
		estimates = append(estimates, est)
		options = append(options, types.Option{
			Name:        p.name,
			Strategy:    p.summary(d),
			Cost:        est.Cost,
			Quality:     est.Quality,
			TimeSeconds: est.TimeSeconds,
			Explanation: p.explain(d),
			Tools:       p.combo.Tools(),
			Status:      types.StatusPass,
			Recommended: p.recommended,
		})
	}

	if constraint != nil && constraint.BudgetMax != nil {
		if opt, ok := g.scopeReduction(task, cp, options[cp.scope], estimates[cp.scope], *constraint.BudgetMax); ok {
			options = append(options, opt)
		}
	}

	if preferred != "" {
		applyPreference(options, preferred)
	}

	logging.Generator("generated %d options for %s x%d (preferred=%q)", len(options), task.Category, count, preferred)
	return options, nil
}

// scopeReduction sizes the base profile down to the largest count whose cost
// fits the budget. It reports false when no useful reduction exists.
func (g *Generator) scopeReduction(task types.Task, cp categoryProfiles, base types.Option, est costmodel.Estimate, budget float64) (types.Option, bool) {
	count := task.Count()
	if !costmodel.ExceedsBudget(est.RawCost, budget) || est.UnitCost <= 0 {
		return types.Option{}, false
	}

	floor := g.model.Table().Tuning.ScopeFloor(task.Category)
	reduced := costmodel.Floor(budget / est.UnitCost)
	if reduced >= count {
		return types.Option{}, false
	}

	combo := cp.profiles[cp.scope].combo
	noun := task.Category.UnitNoun()
	// The rounded cost can land a cent above the budget; step down until it fits.
	for ; reduced >= floor; reduced-- {
		small, err := g.model.Estimate(task.Category, combo, reduced)
		if err != nil {
			logging.GeneratorDebug("scope estimate failed at %d: %v", reduced, err)
			return types.Option{}, false
		}
		if costmodel.ExceedsBudget(small.Cost, budget) {
			continue
		}
		logging.GeneratorDebug("scope reduction %d -> %d %s under $%.2f", count, reduced, noun, budget)
		return types.Option{
			Name:        types.NameScopeReduction,
			Strategy:    fmt.Sprintf("%s approach, %d %s instead of %d", base.Name, reduced, noun, count),
			Cost:        small.Cost,
			Quality:     base.Quality,
			TimeSeconds: small.TimeSeconds,
			Explanation: fmt.Sprintf("Same pipeline as %s (%s) but limited to %d %s instead of %d to stay within the $%.2f budget. "+
				"Quality is unchanged; you just get fewer results.",
				base.Name, toolList(base.Tools, g.model.Table()), reduced, noun, count, budget),
			Tools:  append([]string(nil), base.Tools...),
			Status: types.StatusPass,
		}, true
	}
	logging.GeneratorDebug("scope reduction below floor %d for %s", floor, task.Category)
	return types.Option{}, false
}

func applyPreference(options []types.Option, preferred string) {
	idx := types.FindOption(options, preferred)
	if idx < 0 {
		return
	}
	for i := range options {
		options[i].Recommended = i == idx
	}
}

func toolList(names []string, table *pricing.Table) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " + "
		}
		if t, ok := table.Tool(n); ok {
			out += t.Label
		} else {
			out += n
		}
	}
	return out
}
