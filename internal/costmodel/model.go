// Package costmodel maps a task category, a tool combination and an item
// count to an estimated cost, quality and duration. Every function is pure;
// the only input besides its arguments is the immutable pricing table.
package costmodel

import (
	"fmt"
	"math"

	"maestro/internal/pricing"
	"maestro/internal/types"
)

// epsilon absorbs float noise such as 100*0.15 == 15.000000000000002 before
// ceil/floor.
const epsilon = 1e-9

// Combo is one pipeline: a primary fetch/processing tool, an optional
// fallback fetch tool for the units the primary misses, and an LLM stage.
type Combo struct {
	Primary  string
	Fallback string
	LLM      string
	// Parallel multiplies the primary stage throughput by the parallelism
	// factor from the pricing table.
	Parallel bool
}

// Tools lists the tool names of the combination in pipeline order.
func (c Combo) Tools() []string {
	tools := []string{c.Primary}
	if c.Fallback != "" {
		tools = append(tools, c.Fallback)
	}
	return append(tools, c.LLM)
}

// workload describes how much LLM work one unit of a category costs.
type workload struct {
	inputTokens  float64 // per unit; 0 means "use the tool's average"
	outputTokens float64
	unitsPerCall float64 // units handled by one LLM call
}

// Analysis rows are sent in batches of 50 at 200 input / 100 output tokens
// per batch (20 batches per 1000 rows). API responses cost 800/200 tokens.
var workloads = map[types.Category]workload{
	types.CategoryScraping: {unitsPerCall: 1},
	types.CategoryAnalysis: {inputTokens: 200.0 / 50, outputTokens: 100.0 / 50, unitsPerCall: 50},
	types.CategoryAPI:      {inputTokens: 800, outputTokens: 200, unitsPerCall: 1},
}

// Estimate is the model output for one combination at one count.
type Estimate struct {
	Cost        float64 // rounded to cents
	RawCost     float64 // unrounded
	Quality     float64 // rounded to 2 decimals
	TimeSeconds int
	UnitCost    float64 // unrounded cost of one unit
}

// Model evaluates combinations against a pricing table.
type Model struct {
	table *pricing.Table
}

// New returns a model over the given table.
func New(table *pricing.Table) *Model {
	return &Model{table: table}
}

// Table returns the pricing table the model reads.
func (m *Model) Table() *pricing.Table {
	return m.table
}

type stages struct {
	primary, fallback, llm *pricing.Tool
}

func (m *Model) resolve(combo Combo) (stages, error) {
	var s stages
	var ok bool
	if s.primary, ok = m.table.Tool(combo.Primary); !ok {
		return s, fmt.Errorf("unknown tool %q", combo.Primary)
	}
	if combo.Fallback != "" {
		if s.fallback, ok = m.table.Tool(combo.Fallback); !ok {
			return s, fmt.Errorf("unknown tool %q", combo.Fallback)
		}
	}
	if s.llm, ok = m.table.Tool(combo.LLM); !ok {
		return s, fmt.Errorf("unknown tool %q", combo.LLM)
	}
	if s.llm.Kind != pricing.KindLLM {
		return s, fmt.Errorf("tool %q is %s, want llm", combo.LLM, s.llm.Kind)
	}
	return s, nil
}

// LLMUnitCost is the token cost of one unit of work for the given LLM tool.
func LLMUnitCost(category types.Category, llm *pricing.Tool) float64 {
	w := workloads[category]
	in, out := w.inputTokens, w.outputTokens
	if in == 0 && out == 0 {
		in, out = float64(llm.AvgInputTokensPerUnit), float64(llm.AvgOutputTokensPerUnit)
	}
	return llm.TokenCost(in, out)
}

// missRate is the fraction of units the primary stage fails and hands to the
// fallback. It is zero without a fallback.
func (s stages) missRate() float64 {
	if s.fallback == nil {
		return 0
	}
	return s.primary.MissRate()
}

// UnitCost returns the unrounded cost of processing one unit.
func (m *Model) UnitCost(category types.Category, combo Combo) (float64, error) {
	s, err := m.resolve(combo)
	if err != nil {
		return 0, err
	}
	return m.unitCost(category, s), nil
}

func (m *Model) unitCost(category types.Category, s stages) float64 {
	cost := s.primary.CostPerUnit + LLMUnitCost(category, s.llm)
	if s.fallback != nil {
		cost += s.missRate() * s.fallback.CostPerUnit
	}
	return cost
}

// Estimate evaluates combo for count units of the given category.
func (m *Model) Estimate(category types.Category, combo Combo, count int) (Estimate, error) {
	if !category.Valid() {
		return Estimate{}, fmt.Errorf("%w: %q", types.ErrUnknownCategory, category)
	}
	if count < 1 {
		return Estimate{}, types.ErrInvalidCount
	}
	s, err := m.resolve(combo)
	if err != nil {
		return Estimate{}, err
	}

	unit := m.unitCost(category, s)
	raw := unit * float64(count)

	return Estimate{
		Cost:        Round2(raw),
		RawCost:     raw,
		Quality:     Round2(m.quality(s)),
		TimeSeconds: m.duration(category, s, combo.Parallel, count),
		UnitCost:    unit,
	}, nil
}

// quality is fetch_success * extraction_quality, with the fallback stage
// recovering part of the miss rate.
func (m *Model) quality(s stages) float64 {
	q := s.primary.Coefficient() * s.llm.Quality
	if s.fallback != nil {
		q += s.missRate() * s.fallback.SuccessRate * s.llm.Quality
	}
	return q
}

func (m *Model) duration(category types.Category, s stages, parallel bool, count int) int {
	n := float64(count)
	throughput := s.primary.ThroughputPerSecond
	if parallel {
		throughput *= m.table.Tuning.ParallelismFactor
	}

	var total int
	if s.fallback != nil {
		total += Ceil(n * s.primary.SuccessRate / throughput)
		total += Ceil(n * s.missRate() / s.fallback.ThroughputPerSecond)
	} else {
		total += Ceil(n / throughput)
	}

	w := workloads[category]
	total += Ceil(n / (s.llm.ThroughputPerSecond * w.unitsPerCall))
	return total
}

// Ceil rounds up, ignoring float noise below epsilon.
func Ceil(x float64) int {
	return int(math.Ceil(x - epsilon))
}

// Floor rounds down, ignoring float noise below epsilon.
func Floor(x float64) int {
	return int(math.Floor(x + epsilon))
}

// Round2 rounds to two decimals (cents for USD amounts).
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Round1 rounds to one decimal.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// ExceedsBudget reports whether cost is strictly above budget, ignoring
// float noise.
func ExceedsBudget(cost, budget float64) bool {
	return cost > budget+epsilon
}
