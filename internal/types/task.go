// Package types provides the shared data model used across maestro packages.
// It exists to break import cycles between the generator, the negotiation
// session and the collaborators that consume its results.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCount is returned when a task's item count is missing or not positive.
	ErrInvalidCount = errors.New("count must be a positive number")
	// ErrUnknownCategory is returned for a category outside scraping/analysis/api.
	ErrUnknownCategory = errors.New("unknown task category")
)

// =============================================================================
// TASK CATEGORY
// =============================================================================

// Category selects which cost formulas and parameter names apply to a task.
type Category string

const (
	CategoryScraping Category = "scraping"
	CategoryAnalysis Category = "analysis"
	CategoryAPI      Category = "api"
)

// Categories lists every supported category in display order.
var Categories = []Category{CategoryScraping, CategoryAnalysis, CategoryAPI}

// ParseCategory converts a raw category name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryScraping, CategoryAnalysis, CategoryAPI:
		return true
	}
	return false
}

// UnitNoun is the plural noun for one unit of work ("sites", "rows", "endpoints").
func (c Category) UnitNoun() string {
	switch c {
	case CategoryAnalysis:
		return "rows"
	case CategoryAPI:
		return "endpoints"
	case CategoryScraping:
		return "sites"
	}
	return "items"
}

// DefaultCount is the volume assumed when a request does not mention one.
func (c Category) DefaultCount() int {
	switch c {
	case CategoryAnalysis:
		return 1000
	case CategoryAPI:
		return 20
	}
	return 50
}

// =============================================================================
// TASK
// =============================================================================

// Parameter keys carried in Task.Parameters.
const (
	ParamCount        = "count"
	ParamDomain       = "domain"
	ParamTarget       = "target"
	ParamSource       = "source"
	ParamAnalysisType = "analysis_type"
)

// Task is a parsed user request.
type Task struct {
	Category    Category       `json:"type"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// NewTask builds a task with the given count and extra parameters.
func NewTask(category Category, description string, count int, params map[string]string) Task {
	p := make(map[string]any, len(params)+1)
	for k, v := range params {
		if v != "" {
			p[k] = v
		}
	}
	p[ParamCount] = count
	return Task{Category: category, Description: description, Parameters: p}
}

// Count returns the item volume, or 0 when absent or not numeric.
func (t Task) Count() int {
	switch v := t.Parameters[ParamCount].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Param returns a string parameter, or "" when unset.
func (t Task) Param(key string) string {
	v, ok := t.Parameters[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ParamOr returns a string parameter or the fallback when unset.
func (t Task) ParamOr(key, fallback string) string {
	if v := t.Param(key); v != "" {
		return v
	}
	return fallback
}

// Clone returns a deep copy whose parameter map is not shared with t.
func (t Task) Clone() Task {
	c := t
	c.Parameters = maps.Clone(t.Parameters)
	if c.Parameters == nil {
		c.Parameters = make(map[string]any)
	}
	return c
}

// WithCount returns a clone of t with its count replaced.
func (t Task) WithCount(count int) Task {
	c := t.Clone()
	c.Parameters[ParamCount] = count
	return c
}

// Validate checks the task invariants required before generating options.
func (t Task) Validate() error {
	if !t.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, t.Category)
	}
	if t.Count() < 1 {
		return ErrInvalidCount
	}
	return nil
}
