// Package negotiation holds the state of one task negotiation: the task, the
// accumulated constraint and the current option set. Replies are parsed into
// intents and applied one at a time until the user accepts an option or
// cancels.
package negotiation

import (
	"errors"
	"fmt"

	"maestro/internal/constraint"
	"maestro/internal/logging"
	"maestro/internal/perception"
	"maestro/internal/types"
)

// ErrSessionClosed is returned when a reply arrives after a terminal state.
var ErrSessionClosed = errors.New("negotiation already finished")

// State is the lifecycle position of a session.
type State int

const (
	StateNegotiating State = iota
	StateDone
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateNegotiating:
		return "negotiating"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Action tells the caller what to show after a reply was applied.
type Action string

const (
	ActionRegenerated  Action = "regenerated"   // options rebuilt; show the full list
	ActionShowOptions  Action = "show_options"  // user asked for the full list
	ActionHelp         Action = "help"          // reply not understood
	ActionPromptScope  Action = "prompt_scope"  // scope change without a number
	ActionInvalidScope Action = "invalid_scope" // non-positive count; re-prompt
	ActionDone         Action = "done"
	ActionCancelled    Action = "cancelled"
)

// Outcome is the result of applying one reply.
type Outcome struct {
	Action Action
	Intent perception.ParsedIntent
	// UnitNoun is set for scope prompts ("sites", "rows", "endpoints").
	UnitNoun string
}

// OptionGenerator builds options for a task. *generator.Generator satisfies it.
type OptionGenerator interface {
	Generate(task types.Task, c *types.Constraint, preferred string) ([]types.Option, error)
}

// Result is the final state of a finished negotiation.
type Result struct {
	Chosen     types.Option
	Task       types.Task
	Options    []types.Option
	Constraint *types.Constraint
}

// Session is a single negotiation. It is not safe for concurrent use.
type Session struct {
	gen        OptionGenerator
	validator  *constraint.Validator
	task       types.Task
	constraint *types.Constraint
	options    []types.Option
	preferred  string
	state      State
	chosen     int
}

// NewSession generates the initial options for task. preferred is the learned
// strategy name, or "".
func NewSession(gen OptionGenerator, validator *constraint.Validator, task types.Task, preferred string) (*Session, error) {
	if validator == nil {
		validator = constraint.New()
	}
	s := &Session{
		gen:       gen,
		validator: validator,
		task:      task.Clone(),
		preferred: preferred,
		chosen:    -1,
	}
	if err := s.regenerate(); err != nil {
		return nil, err
	}
	logging.Negotiation("session started: %s x%d, %d options, preferred=%q", task.Category, task.Count(), len(s.options), preferred)
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Task returns the task as currently scoped.
func (s *Session) Task() types.Task { return s.task }

// Options returns the current option set.
func (s *Session) Options() []types.Option { return s.options }

// Constraint returns the accumulated constraint, or nil before any adjustment.
func (s *Session) Constraint() *types.Constraint { return s.constraint }

// Preferred returns the learned strategy the session was started with.
func (s *Session) Preferred() string { return s.preferred }

// Handle parses a reply and applies it.
func (s *Session) Handle(text string) (Outcome, error) {
	return s.Apply(perception.ParseInput(text, len(s.options)))
}

// Apply moves the session according to one parsed reply.
func (s *Session) Apply(p perception.ParsedIntent) (Outcome, error) {
	if s.state != StateNegotiating {
		return Outcome{}, ErrSessionClosed
	}
	out := Outcome{Intent: p}

	switch p.Intent {
	case perception.IntentQuit:
		s.Cancel()
		out.Action = ActionCancelled

	case perception.IntentAccept:
		idx := types.Recommended(s.options)
		if p.ChosenIndex != nil && *p.ChosenIndex >= 0 && *p.ChosenIndex < len(s.options) {
			idx = *p.ChosenIndex
		}
		s.chosen = idx
		s.state = StateDone
		out.Action = ActionDone
		logging.Negotiation("accepted %q", s.options[idx].Name)

	case perception.IntentAdjustBudget, perception.IntentAdjustQuality, perception.IntentAdjustTime:
		c := BuildConstraintFromAdjustment(p, s.constraint)
		s.constraint = &c
		if err := s.regenerate(); err != nil {
			return Outcome{}, err
		}
		out.Action = ActionRegenerated

	case perception.IntentAdjustScope:
		out.UnitNoun = s.task.Category.UnitNoun()
		if p.Value == nil {
			out.Action = ActionPromptScope
			break
		}
		count := int(*p.Value)
		if count < 1 {
			out.Action = ActionInvalidScope
			break
		}
		prev := s.task
		s.task = s.task.WithCount(count)
		if err := s.regenerate(); err != nil {
			s.task = prev
			return Outcome{}, err
		}
		out.Action = ActionRegenerated

	default:
		if p.ShowOptions() {
			out.Action = ActionShowOptions
		} else {
			out.Action = ActionHelp
		}
	}

	logging.NegotiationDebug("intent=%s action=%s state=%s", p.Intent, out.Action, s.state)
	return out, nil
}

// Cancel ends the negotiation without a choice. It is used for quit replies,
// end of input and interrupts.
func (s *Session) Cancel() {
	if s.state == StateNegotiating {
		s.state = StateCancelled
		logging.Negotiation("session cancelled")
	}
}

// Result returns the outcome of a finished negotiation. ok is false unless
// the session ended in StateDone.
func (s *Session) Result() (Result, bool) {
	if s.state != StateDone || s.chosen < 0 {
		return Result{}, false
	}
	var c *types.Constraint
	if s.constraint != nil {
		cc := s.constraint.Clone()
		c = &cc
	}
	return Result{
		Chosen:     s.options[s.chosen],
		Task:       s.task.Clone(),
		Options:    append([]types.Option(nil), s.options...),
		Constraint: c,
	}, true
}

// regenerate rebuilds the options and validates them when a constraint is set.
func (s *Session) regenerate() error {
	options, err := s.gen.Generate(s.task, s.constraint, s.preferred)
	if err != nil {
		return fmt.Errorf("failed to generate options: %w", err)
	}
	if s.constraint != nil {
		s.validator.Validate(options, *s.constraint)
	}
	s.options = options
	return nil
}

// BuildConstraintFromAdjustment merges one adjustment into a copy of current
// (nil means no constraint yet). The adjusted field is set when a value was
// given and the priority shifts to that dimension; every other field is kept.
func BuildConstraintFromAdjustment(p perception.ParsedIntent, current *types.Constraint) types.Constraint {
	c := types.NewConstraint()
	if current != nil {
		c = current.Clone()
	}

	switch p.Intent {
	case perception.IntentAdjustBudget:
		if p.Value != nil {
			c.BudgetMax = types.Float(*p.Value)
		}
		c.Priority = types.PriorityCost
	case perception.IntentAdjustQuality:
		if p.Value != nil {
			c.QualityMin = types.Float(*p.Value)
		}
		c.Priority = types.PriorityQuality
	case perception.IntentAdjustTime:
		if p.Value != nil {
			c.TimeMax = types.Int(int(*p.Value))
		}
		c.Priority = types.PriorityTime
	}
	return c
}
