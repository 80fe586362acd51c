// Package constraint checks options against a user constraint and annotates
// them with violations and an overall status.
package constraint

import (
	"math"

	"maestro/internal/costmodel"
	"maestro/internal/types"
)

// DefaultFailThreshold is the delta, in percent, at which a violation fails
// an option outright.
const DefaultFailThreshold = 10.0

// minQuality guards the quality delta against division by zero.
const minQuality = 0.01

// unboundedDelta is reported against a zero budget or time limit.
const unboundedDelta = 9999.9

// Validator annotates options. The zero value uses DefaultFailThreshold.
type Validator struct {
	FailThreshold float64
}

// New returns a validator with the default threshold.
func New() *Validator {
	return &Validator{FailThreshold: DefaultFailThreshold}
}

func (v *Validator) threshold() float64 {
	if v == nil || v.FailThreshold <= 0 {
		return DefaultFailThreshold
	}
	return v.FailThreshold
}

// Validate replaces the violations and status of every option, in place, and
// returns the same slice. Running it twice gives the same result.
func (v *Validator) Validate(options []types.Option, c types.Constraint) []types.Option {
	for i := range options {
		o := &options[i]
		o.Violations = Check(*o, c)
		o.Status = v.StatusFor(o.Violations)
	}
	return options
}

// Check lists the violations of c by o, in budget, quality, time order.
func Check(o types.Option, c types.Constraint) []types.Violation {
	var out []types.Violation
	if c.BudgetMax != nil && o.Cost > *c.BudgetMax {
		out = append(out, types.Violation{
			Constraint: types.KindBudget,
			Limit:      *c.BudgetMax,
			Actual:     o.Cost,
			DeltaPct:   deltaPct(o.Cost, *c.BudgetMax),
		})
	}
	if c.QualityMin != nil && o.Quality < *c.QualityMin {
		out = append(out, types.Violation{
			Constraint: types.KindQuality,
			Limit:      *c.QualityMin,
			Actual:     o.Quality,
			DeltaPct:   deltaPct(*c.QualityMin, math.Max(o.Quality, minQuality)),
		})
	}
	if c.TimeMax != nil && o.TimeSeconds > *c.TimeMax {
		out = append(out, types.Violation{
			Constraint: types.KindTime,
			Limit:      float64(*c.TimeMax),
			Actual:     float64(o.TimeSeconds),
			DeltaPct:   deltaPct(float64(o.TimeSeconds), float64(*c.TimeMax)),
		})
	}
	return out
}

// deltaPct is (num/den - 1) * 100 rounded to one decimal.
func deltaPct(num, den float64) float64 {
	if den <= 0 {
		return unboundedDelta
	}
	return costmodel.Round1((num/den - 1) * 100)
}

// StatusFor derives the overall status from a violation list: fail when any
// delta reaches the threshold, partial when all are below it.
func (v *Validator) StatusFor(violations []types.Violation) types.Status {
	if len(violations) == 0 {
		return types.StatusPass
	}
	limit := v.threshold()
	for _, vi := range violations {
		if vi.DeltaPct >= limit {
			return types.StatusFail
		}
	}
	return types.StatusPartial
}
