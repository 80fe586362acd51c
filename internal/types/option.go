package types

// Priority is the user's current optimization focus.
type Priority string

const (
	PriorityCost     Priority = "cost"
	PriorityQuality  Priority = "quality"
	PriorityTime     Priority = "time"
	PriorityBalanced Priority = "balanced"
)

// Constraint holds user-imposed limits accumulated across a negotiation.
// Nil fields are unset.
type Constraint struct {
	BudgetMax  *float64 `json:"budget_max"`  // USD
	QualityMin *float64 `json:"quality_min"` // 0.0-1.0
	TimeMax    *int     `json:"time_max"`    // seconds
	Priority   Priority `json:"priority"`
}

// NewConstraint returns an empty constraint with balanced priority.
func NewConstraint() Constraint {
	return Constraint{Priority: PriorityBalanced}
}

// Clone copies c so that pointer fields are not shared.
func (c Constraint) Clone() Constraint {
	out := Constraint{Priority: c.Priority}
	if c.BudgetMax != nil {
		out.BudgetMax = Float(*c.BudgetMax)
	}
	if c.QualityMin != nil {
		out.QualityMin = Float(*c.QualityMin)
	}
	if c.TimeMax != nil {
		out.TimeMax = Int(*c.TimeMax)
	}
	return out
}

// Empty reports whether no limit is set.
func (c Constraint) Empty() bool {
	return c.BudgetMax == nil && c.QualityMin == nil && c.TimeMax == nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// ConstraintKind names the dimension a violation breaches.
type ConstraintKind string

const (
	KindBudget  ConstraintKind = "budget"
	KindQuality ConstraintKind = "quality"
	KindTime    ConstraintKind = "time"
)

// Violation is a quantified breach of one constraint by one option.
// DeltaPct is positive when the option is worse than the limit.
type Violation struct {
	Constraint ConstraintKind `json:"constraint"`
	Limit      float64        `json:"limit"`
	Actual     float64        `json:"actual"`
	DeltaPct   float64        `json:"delta_pct"`
}

// Status is the result of validating an option against a constraint.
type Status string

const (
	StatusPass    Status = "pass"
	StatusPartial Status = "partial" // every violation under the fail threshold
	StatusFail    Status = "fail"
)

// Strategy profile names. The set is closed.
const (
	NameBudget         = "Budget Optimized"
	NameBalanced       = "Balanced"
	NameQuality        = "Quality Focused"
	NameSpeed          = "Speed Optimized"
	NameScopeReduction = "Scope Reduction"
)

// StrategyNames lists the four base profiles in generation order.
var StrategyNames = []string{NameBudget, NameBalanced, NameQuality, NameSpeed}

// Option is one execution strategy with estimated cost, quality and time.
type Option struct {
	Name        string      `json:"name"`
	Strategy    string      `json:"strategy"`
	Cost        float64     `json:"cost"`
	Quality     float64     `json:"quality"`
	TimeSeconds int         `json:"time_seconds"`
	Explanation string      `json:"explanation"`
	Tools       []string    `json:"tools"`
	Violations  []Violation `json:"violations,omitempty"`
	Status      Status      `json:"status"`
	Recommended bool        `json:"recommended"`
}

// Violation returns the violation of the given kind, if any.
func (o Option) Violation(kind ConstraintKind) (Violation, bool) {
	for _, v := range o.Violations {
		if v.Constraint == kind {
			return v, true
		}
	}
	return Violation{}, false
}

// HasTool reports whether the option uses the named tool.
func (o Option) HasTool(name string) bool {
	for _, t := range o.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// Recommended returns the index of the recommended option, falling back to 0.
// It returns -1 for an empty slice.
func Recommended(options []Option) int {
	if len(options) == 0 {
		return -1
	}
	for i, o := range options {
		if o.Recommended {
			return i
		}
	}
	return 0
}

// FindOption returns the index of the option with the exact name, or -1.
func FindOption(options []Option, name string) int {
	for i, o := range options {
		if o.Name == name {
			return i
		}
	}
	return -1
}

// ExecutionResult is the outcome of a simulated execution.
type ExecutionResult struct {
	RunID             string  `json:"run_id"`
	Option            Option  `json:"option"`
	ActualCost        float64 `json:"actual_cost"`
	ActualQuality     float64 `json:"actual_quality"`
	ActualTimeSeconds int     `json:"actual_time_seconds"`
	Success           bool    `json:"success"`
	UnitsProcessed    int     `json:"units_processed"`
	UnitsSucceeded    int     `json:"units_succeeded"`
	OutputFile        string  `json:"output_file"`
}
