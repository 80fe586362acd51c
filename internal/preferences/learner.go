package preferences

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"maestro/internal/costmodel"
	"maestro/internal/logging"
	"maestro/internal/types"
)

// DefaultMinChoices is the history size a category needs before a strategy
// can be preferred.
const DefaultMinChoices = 2

// Learner records choices into a Store and derives preferences from them.
// One Learner corresponds to one process run; its session ID tags every
// entry it records.
type Learner struct {
	store      Store
	minChoices int
	sessionID  string
	now        func() time.Time
}

// NewLearner wraps store. A minChoices below 1 falls back to DefaultMinChoices.
func NewLearner(store Store, minChoices int) *Learner {
	if minChoices < 1 {
		minChoices = DefaultMinChoices
	}
	return &Learner{
		store:      store,
		minChoices: minChoices,
		sessionID:  uuid.NewString(),
		now:        time.Now,
	}
}

// SessionID identifies the run that recorded an entry.
func (l *Learner) SessionID() string { return l.sessionID }

// RecordChoice logs the chosen option together with what was shown.
// constraint and result may be nil.
func (l *Learner) RecordChoice(task types.Task, shown []types.Option, chosen types.Option, constraint *types.Constraint, result *types.ExecutionResult) error {
	e := Entry{
		ID:           uuid.NewString(),
		SessionID:    l.sessionID,
		Timestamp:    l.now().UTC(),
		Category:     task.Category,
		Description:  task.Description,
		Parameters:   task.Clone().Parameters,
		OptionsShown: make([]OptionSummary, 0, len(shown)),
		Chosen: ChosenOption{
			OptionSummary: summarize(chosen),
			HadViolations: len(chosen.Violations) > 0,
		},
	}
	if constraint != nil {
		c := constraint.Clone()
		e.Constraint = &c
	}
	for _, o := range shown {
		e.OptionsShown = append(e.OptionsShown, summarize(o))
	}
	if result != nil {
		e.Result = &ResultSummary{
			RunID:         result.RunID,
			ActualCost:    result.ActualCost,
			ActualQuality: result.ActualQuality,
			Success:       result.Success,
		}
	}

	if err := l.store.Record(e); err != nil {
		return fmt.Errorf("failed to record choice: %w", err)
	}
	logging.Preferences("recorded %s choice %q (session %s)", task.Category, chosen.Name, l.sessionID)
	return nil
}

// History returns every recorded entry in insertion order.
func (l *Learner) History() ([]Entry, error) {
	return l.store.Query("")
}

// PreferredStrategy returns the option name chosen most often for category.
// ok is false when fewer than minChoices entries exist or no name holds more
// than half of them. Store errors are logged and treated as no preference.
func (l *Learner) PreferredStrategy(category types.Category) (string, bool) {
	entries, err := l.store.Query(category)
	if err != nil {
		logging.PreferencesWarn("preference lookup for %s failed: %v", category, err)
		return "", false
	}
	if len(entries) < l.minChoices {
		return "", false
	}

	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Chosen.Name]++
	}
	top, topCount := "", 0
	for name, n := range counts {
		// Ties break by name so the answer does not depend on map order.
		if n > topCount || (n == topCount && name < top) {
			top, topCount = name, n
		}
	}
	if topCount*2 > len(entries) {
		return top, true
	}
	return "", false
}

// Summary describes what the history says about the user.
type Summary struct {
	TotalChoices      int                               `json:"total_choices"`
	AvgCost           float64                           `json:"avg_cost"`
	BudgetPreference  float64                           `json:"budget_preference"`
	QualityPreference float64                           `json:"quality_preference"`
	Patterns          []string                          `json:"patterns"`
	ByCategory        map[types.Category]map[string]int `json:"by_category,omitempty"`
}

// Pattern descriptions reported by Summary.
const (
	PatternBudget  = "Tends to prefer budget options"
	PatternQuality = "Tends to prefer quality options"
	PatternScope   = "Often accepts scope reduction to meet budget"
)

// Summary aggregates the whole history.
func (l *Learner) Summary() (Summary, error) {
	entries, err := l.History()
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Patterns: []string{}}
	total := len(entries)
	if total == 0 {
		return s, nil
	}

	s.TotalChoices = total
	s.ByCategory = make(map[types.Category]map[string]int)
	var budget, quality, scope int
	var cost float64
	for _, e := range entries {
		switch e.Chosen.Name {
		case types.NameBudget:
			budget++
		case types.NameQuality:
			quality++
		case types.NameScopeReduction:
			scope++
		}
		cost += e.Chosen.Cost
		if s.ByCategory[e.Category] == nil {
			s.ByCategory[e.Category] = make(map[string]int)
		}
		s.ByCategory[e.Category][e.Chosen.Name]++
	}

	s.AvgCost = costmodel.Round2(cost / float64(total))
	s.BudgetPreference = costmodel.Round2(float64(budget) / float64(total))
	s.QualityPreference = costmodel.Round2(float64(quality) / float64(total))

	n := float64(total)
	if float64(budget) > n*0.5 {
		s.Patterns = append(s.Patterns, PatternBudget)
	}
	if float64(quality) > n*0.5 {
		s.Patterns = append(s.Patterns, PatternQuality)
	}
	if float64(scope) > n*0.3 {
		s.Patterns = append(s.Patterns, PatternScope)
	}
	return s, nil
}

// Categories returns the categories present in the summary, sorted.
func (s Summary) Categories() []types.Category {
	out := make([]types.Category, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func summarize(o types.Option) OptionSummary {
	return OptionSummary{Name: o.Name, Cost: o.Cost, Quality: o.Quality, TimeSeconds: o.TimeSeconds}
}
