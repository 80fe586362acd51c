// Package pricing loads and validates the tool pricing table that drives the
// cost model. The table is read once at startup and treated as immutable for
// the life of the process; a missing or malformed table is fatal.
package pricing

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"maestro/internal/logging"
	"maestro/internal/types"
)

//go:embed tools.yaml
var defaultTable []byte

var (
	// ErrTableNotFound means the pricing table file does not exist.
	ErrTableNotFound = errors.New("pricing table not found")
	// ErrTableMalformed means the file exists but cannot be parsed or validated.
	ErrTableMalformed = errors.New("pricing table malformed")
)

// ToolKind classifies how a tool participates in a pipeline.
type ToolKind string

const (
	KindFetch     ToolKind = "fetch"     // pulls units over the network
	KindProcessor ToolKind = "processor" // local row processing
	KindLLM       ToolKind = "llm"       // token-priced extraction/analysis
)

// Tool is one priced record of the table.
type Tool struct {
	Name  string   `yaml:"-"`
	Kind  ToolKind `yaml:"kind" validate:"required,oneof=fetch processor llm"`
	Label string   `yaml:"label" validate:"required"`

	CostPerUnit         float64 `yaml:"cost_per_unit" validate:"gte=0"`
	SuccessRate         float64 `yaml:"success_rate" validate:"required_if=Kind fetch,gte=0,lte=1"`
	Quality             float64 `yaml:"quality" validate:"required_unless=Kind fetch,gte=0,lte=1"`
	ThroughputPerSecond float64 `yaml:"throughput_per_second" validate:"gt=0"`

	CostPerMillionInput    float64 `yaml:"cost_per_million_input" validate:"required_if=Kind llm,gte=0"`
	CostPerMillionOutput   float64 `yaml:"cost_per_million_output" validate:"required_if=Kind llm,gte=0"`
	AvgInputTokensPerUnit  int     `yaml:"avg_input_tokens_per_unit" validate:"required_if=Kind llm,gte=0"`
	AvgOutputTokensPerUnit int     `yaml:"avg_output_tokens_per_unit" validate:"required_if=Kind llm,gte=0"`
}

// MissRate is the fraction of units a fetch tool fails on.
func (t Tool) MissRate() float64 {
	return 1 - t.SuccessRate
}

// Coefficient is the tool's contribution to pipeline quality: the success
// rate for fetch tools, the quality score otherwise.
func (t Tool) Coefficient() float64 {
	if t.Kind == KindFetch {
		return t.SuccessRate
	}
	return t.Quality
}

// TokenCost prices the given token volume with this tool's rates.
func (t Tool) TokenCost(inputTokens, outputTokens float64) float64 {
	return inputTokens/1_000_000*t.CostPerMillionInput + outputTokens/1_000_000*t.CostPerMillionOutput
}

// Tuning holds product-tuning constants of the pricing model.
type Tuning struct {
	ParallelismFactor float64                `yaml:"parallelism_factor" validate:"gte=1"`
	ScopeFloors       map[types.Category]int `yaml:"scope_floors"`
}

// DefaultTuning returns the reference tuning values.
func DefaultTuning() Tuning {
	return Tuning{
		ParallelismFactor: 3,
		ScopeFloors: map[types.Category]int{
			types.CategoryScraping: 5,
			types.CategoryAnalysis: 10,
			types.CategoryAPI:      2,
		},
	}
}

// ScopeFloor returns the smallest useful reduced count for a category.
func (t Tuning) ScopeFloor(c types.Category) int {
	if n, ok := t.ScopeFloors[c]; ok {
		return n
	}
	return DefaultTuning().ScopeFloors[c]
}

// Table is the parsed pricing table.
type Table struct {
	Tuning Tuning           `yaml:"tuning"`
	Tools  map[string]*Tool `yaml:"tools" validate:"required,min=1,dive"`
	Source string           `yaml:"-"`
}

// Tool looks up a record by name.
func (t *Table) Tool(name string) (*Tool, bool) {
	tool, ok := t.Tools[name]
	return tool, ok
}

// Names returns the tool names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Tools))
	for name := range t.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Require checks that every named tool exists with the expected kind.
func (t *Table) Require(kinds map[string]ToolKind) error {
	var problems []string
	for _, name := range sortedKeys(kinds) {
		tool, ok := t.Tools[name]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing tool %q", name))
		case tool.Kind != kinds[name]:
			problems = append(problems, fmt.Sprintf("tool %q is %s, want %s", name, tool.Kind, kinds[name]))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrTableMalformed, strings.Join(problems, "; "))
	}
	return nil
}

var validate = validator.New()

// Parse decodes and validates a table from YAML.
func Parse(data []byte) (*Table, error) {
	table := &Table{Tuning: DefaultTuning()}
	if err := yaml.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableMalformed, err)
	}
	if table.Tuning.ParallelismFactor == 0 {
		table.Tuning.ParallelismFactor = DefaultTuning().ParallelismFactor
	}
	for name, tool := range table.Tools {
		if tool == nil {
			return nil, fmt.Errorf("%w: tool %q has no fields", ErrTableMalformed, name)
		}
		tool.Name = name
	}
	if err := validate.Struct(table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableMalformed, err)
	}
	for c, floor := range table.Tuning.ScopeFloors {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: scope floor for unknown category %q", ErrTableMalformed, c)
		}
		if floor < 1 {
			return nil, fmt.Errorf("%w: scope floor for %s must be >= 1", ErrTableMalformed, c)
		}
	}
	return table, nil
}

// Load reads a table from disk.
func Load(path string) (*Table, error) {
	timer := logging.StartTimer(logging.CategoryPricing, "load pricing table")
	defer timer.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.PricingError("pricing table not found at %s", path)
			return nil, fmt.Errorf("%w at %s", ErrTableNotFound, path)
		}
		return nil, fmt.Errorf("failed to read pricing table: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		logging.PricingError("pricing table %s rejected: %v", path, err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	table.Source = path
	logging.Pricing("loaded %d tools from %s", len(table.Tools), path)
	return table, nil
}

// Builtin returns the embedded reference table.
func Builtin() (*Table, error) {
	table, err := Parse(defaultTable)
	if err != nil {
		return nil, err
	}
	table.Source = "builtin"
	return table, nil
}

// DefaultYAML returns the embedded reference table source.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultTable))
	copy(out, defaultTable)
	return out
}

// WriteDefault writes the reference table to path unless a file already exists.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create pricing directory: %w", err)
	}
	if err := os.WriteFile(path, defaultTable, 0644); err != nil {
		return false, fmt.Errorf("failed to write pricing table: %w", err)
	}
	return true, nil
}

func sortedKeys(m map[string]ToolKind) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
