package advisor

import (
	"context"
	"fmt"

	"maestro/internal/negotiation"
)

// Scenario is one guided demo step. Each suggestion is used when the user
// just presses Enter.
type Scenario struct {
	Title      string
	Task       string
	Adjustment string
	Pick       string
}

// DemoScenarios walks through one task per category.
var DemoScenarios = []Scenario{
	{
		Title:      "Web Scraping",
		Task:       "Scrape 100 dive shop websites and extract pricing",
		Adjustment: "under $0.10",
		Pick:       "B",
	},
	{
		Title:      "Data Analysis",
		Task:       "Analyze 500 rows of customer data for trends",
		Adjustment: "better quality",
		Pick:       "yes",
	},
	{
		Title:      "API Integration",
		Task:       "Fetch pricing from 20 hotel booking APIs",
		Adjustment: "faster",
		Pick:       "A",
	},
}

// RunDemo plays the demo scenarios. Demo choices are not recorded.
func (a *Advisor) RunDemo(ctx context.Context) error {
	a.Console.Println(a.Renderer.Welcome())
	a.Console.Println(a.Renderer.Heading("Demo Mode") + ": press Enter to accept suggestions, or type your own input.\n")

	for i, sc := range DemoScenarios {
		a.Console.Println("\n" + a.Renderer.Heading(fmt.Sprintf("--- Demo %d/%d: %s ---", i+1, len(DemoScenarios), sc.Title)) + "\n")
		end, err := a.runScenario(ctx, sc)
		if err != nil {
			return err
		}
		if end {
			break
		}
		if i < len(DemoScenarios)-1 {
			if _, err := a.Console.Prompt(ctx, "\n"+a.Renderer.Dim("Press Enter for next demo...")+" "); err != nil {
				a.inputEnded(err)
				break
			}
		}
	}

	a.Console.Println("\n  " + a.Renderer.Heading("Demo complete!") + " Run without --demo to try your own tasks.\n")
	return nil
}

// runScenario plays one scenario. end is true when input ran out or failed.
func (a *Advisor) runScenario(ctx context.Context, sc Scenario) (end bool, err error) {
	text, err := a.suggest(ctx, "task", sc.Task)
	if err != nil {
		a.inputEnded(err)
		return true, nil
	}
	task, ok := a.Classifier.Classify(ctx, text)
	if !ok {
		a.Console.Println("\n" + a.Renderer.Warn("Could not parse that task. Using suggestion instead."))
		if task, ok = a.Classifier.Classify(ctx, sc.Task); !ok {
			return false, fmt.Errorf("demo task %q is not classifiable", sc.Task)
		}
	}
	a.Console.Println(a.Renderer.Understood(task))

	a.Console.Println("\n" + a.Renderer.Dim("Analyzing task...") + "\n")
	session, err := negotiation.NewSession(a.Generator, a.Validator, task, "")
	if err != nil {
		return false, err
	}
	a.Console.Println(a.Renderer.Recommendation(session.Options()))

	for _, step := range []struct{ label, suggestion string }{
		{"adjustment", sc.Adjustment},
		{"pick", sc.Pick},
	} {
		reply, err := a.suggest(ctx, step.label, step.suggestion)
		if err != nil {
			a.inputEnded(err)
			return true, nil
		}
		out, err := session.Handle(reply)
		if err != nil {
			return false, err
		}
		a.show(session, out)
		if session.State() != negotiation.StateNegotiating {
			break
		}
	}

	res, ok := session.Result()
	if !ok {
		return false, nil
	}
	if _, err := a.execute(ctx, res); err != nil {
		return false, err
	}
	return ctx.Err() != nil, nil
}

// suggest shows a suggestion and returns the reply, or the suggestion on an
// empty reply.
func (a *Advisor) suggest(ctx context.Context, what, suggestion string) (string, error) {
	a.Console.Println("\n" + a.Renderer.Dim(fmt.Sprintf("Suggested %s: %s (press Enter to use)", what, suggestion)))
	reply, err := a.Console.Prompt(ctx, "\n"+a.Renderer.PromptLabel())
	if err != nil {
		return "", err
	}
	if reply == "" {
		return suggestion, nil
	}
	return reply, nil
}
