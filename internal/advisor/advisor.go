// Package advisor drives the conversation: it reads a task, negotiates
// options with the user, runs the chosen one and records the choice.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maestro/internal/console"
	"maestro/internal/constraint"
	"maestro/internal/logging"
	"maestro/internal/negotiation"
	"maestro/internal/perception"
	"maestro/internal/render"
	"maestro/internal/types"
)

// Executor runs a chosen option. *executor.Executor satisfies it.
type Executor interface {
	Execute(ctx context.Context, task types.Task, opt types.Option) (types.ExecutionResult, error)
}

// Learner remembers choices. *preferences.Learner satisfies it.
type Learner interface {
	PreferredStrategy(category types.Category) (string, bool)
	RecordChoice(task types.Task, shown []types.Option, chosen types.Option, c *types.Constraint, result *types.ExecutionResult) error
}

// Deps are the collaborators an Advisor needs.
type Deps struct {
	Classifier perception.Classifier
	Generator  negotiation.OptionGenerator
	Validator  *constraint.Validator
	Executor   Executor
	Learner    Learner
	Console    *console.Console
	Renderer   *render.Renderer
	// LLMAvailable is false when only the regex classifier is configured.
	LLMAvailable bool
}

// Advisor is the interactive front end.
type Advisor struct {
	Deps
}

// New wires an advisor. A nil Validator or Renderer gets a default.
func New(d Deps) *Advisor {
	if d.Validator == nil {
		d.Validator = constraint.New()
	}
	if d.Renderer == nil {
		d.Renderer = render.Plain()
	}
	return &Advisor{Deps: d}
}

var quitWords = map[string]bool{"quit": true, "exit": true, "q": true}

// Run is the main loop: read a task, negotiate, execute, record, repeat.
// End of input and interrupts end the loop without an error.
func (a *Advisor) Run(ctx context.Context) error {
	a.Console.Println(a.Renderer.Welcome())
	defer a.Console.Printf("\n  Goodbye!\n\n")

	for {
		text, err := a.Console.Prompt(ctx, a.Renderer.PromptLabel())
		if err != nil {
			a.inputEnded(err)
			return nil
		}
		if text == "" {
			continue
		}
		if quitWords[strings.ToLower(text)] {
			return nil
		}

		task, ok := a.readTask(ctx, text)
		if !ok {
			continue
		}
		if err := a.HandleTask(ctx, task); err != nil {
			return err
		}
		if !a.askContinue(ctx) {
			return nil
		}
	}
}

// readTask classifies text and echoes the result.
func (a *Advisor) readTask(ctx context.Context, text string) (types.Task, bool) {
	if !a.LLMAvailable {
		a.Console.Println(a.Renderer.Dim("(using regex parser)"))
	}
	task, ok := a.Classifier.Classify(ctx, text)
	if !ok {
		a.Console.Println(a.Renderer.Unrecognized())
		return types.Task{}, false
	}
	if task.Count() < 1 {
		a.Console.Println(a.Renderer.InvalidCount())
		return types.Task{}, false
	}
	a.Console.Println(a.Renderer.Understood(task))
	return task, true
}

// HandleTask negotiates one task to completion. Cancelled negotiations and
// interrupted runs are reported to the user and are not errors.
func (a *Advisor) HandleTask(ctx context.Context, task types.Task) error {
	preferred, _ := a.Learner.PreferredStrategy(task.Category)

	a.Console.Println("\n" + a.Renderer.Dim("Analyzing task...") + "\n")
	session, err := negotiation.NewSession(a.Generator, a.Validator, task, preferred)
	if err != nil {
		return err
	}
	a.Console.Println(a.Renderer.Recommendation(session.Options()))
	if preferred != "" {
		a.Console.Println(a.Renderer.Dim("📚 Based on your history, recommending: "+preferred) + "\n")
	}

	res, ok, err := a.negotiate(ctx, session)
	if err != nil {
		return err
	}
	if !ok {
		a.Console.Println("\n" + a.Renderer.Dim("Task cancelled.") + "\n")
		return nil
	}

	result, err := a.execute(ctx, res)
	if err != nil || result == nil {
		return err
	}
	if err := a.Learner.RecordChoice(res.Task, res.Options, res.Chosen, res.Constraint, result); err != nil {
		logging.PreferencesWarn("failed to record choice: %v", err)
		a.Console.Println(a.Renderer.Warn("Could not save this choice: " + err.Error()))
		return nil
	}
	a.Console.Println("\n" + a.Renderer.Dim("📚 Choice recorded for future recommendations.") + "\n")
	return nil
}

// negotiate applies replies until the session ends. ok is false when the
// user cancelled, input ended or failed, or the context was interrupted.
func (a *Advisor) negotiate(ctx context.Context, s *negotiation.Session) (negotiation.Result, bool, error) {
	for {
		text, err := a.Console.Prompt(ctx, "\n"+a.Renderer.PromptLabel())
		if err != nil {
			a.inputEnded(err)
			s.Cancel()
			return negotiation.Result{}, false, nil
		}
		out, err := s.Handle(text)
		if err != nil {
			return negotiation.Result{}, false, err
		}
		a.show(s, out)
		switch s.State() {
		case negotiation.StateDone:
			res, _ := s.Result()
			return res, true, nil
		case negotiation.StateCancelled:
			return negotiation.Result{}, false, nil
		}
	}
}

// show renders what a reply changed.
func (a *Advisor) show(s *negotiation.Session, out negotiation.Outcome) {
	switch out.Action {
	case negotiation.ActionRegenerated, negotiation.ActionShowOptions:
		a.Console.Println(a.Renderer.Options(s.Options()))
	case negotiation.ActionHelp:
		a.Console.Println(a.Renderer.Help())
	case negotiation.ActionPromptScope:
		a.Console.Println(a.Renderer.ScopePrompt(out.UnitNoun))
	case negotiation.ActionInvalidScope:
		a.Console.Println(a.Renderer.InvalidCount())
	}
}

// execute runs the chosen option. A nil result with a nil error means the
// run was interrupted and has already been reported.
func (a *Advisor) execute(ctx context.Context, res negotiation.Result) (*types.ExecutionResult, error) {
	a.Console.Println("\n  " + a.Renderer.Styles().Bold.Render("Starting execution...") + "\n")
	result, err := a.Executor.Execute(ctx, res.Task, res.Chosen)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.Console.Println("\n\n" + a.Renderer.Warn("Execution cancelled.") + "\n")
			return nil, nil
		}
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	a.Console.Println(a.Renderer.ExecutionSummary(result))
	return &result, nil
}

// inputEnded reports a read failure. End of input and interrupts are silent;
// every read error ends the conversation the same way.
func (a *Advisor) inputEnded(err error) {
	if console.IsEnd(err) {
		return
	}
	logging.NegotiationWarn("input stream failed: %v", err)
	a.Console.Println("\n" + a.Renderer.Warn("Could not read input: "+err.Error()))
}

func (a *Advisor) askContinue(ctx context.Context) bool {
	answer, err := a.Console.Prompt(ctx, "\n"+a.Renderer.Dim("Another task? (yes/no)")+" ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "yes", "y", "sure", "ok", "":
		return true
	}
	return false
}
