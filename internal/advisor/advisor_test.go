package advisor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"maestro/internal/console"
	"maestro/internal/executor"
	"maestro/internal/generator"
	"maestro/internal/perception"
	"maestro/internal/preferences"
	"maestro/internal/pricing"
	"maestro/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	advisor *Advisor
	out     *bytes.Buffer
	learner *preferences.Learner
}

func newHarness(t *testing.T, in io.Reader) *harness {
	t.Helper()
	table, err := pricing.Builtin()
	require.NoError(t, err)
	gen, err := generator.New(table)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	con := console.New(in, out)
	t.Cleanup(con.Close)

	learner := preferences.NewLearner(preferences.NewMemoryStore(), preferences.DefaultMinChoices)
	exec := executor.New(executor.Config{OutputDir: t.TempDir(), FallbackShare: executor.FallbackShareFrom(table)},
		executor.WithRand(rand.New(rand.NewSource(1))),
		executor.WithWriter(out))

	a := New(Deps{
		Classifier: perception.NewRegexClassifier(),
		Generator:  gen,
		Executor:   exec,
		Learner:    learner,
		Console:    con,
	})
	return &harness{advisor: a, out: out, learner: learner}
}

func script(lines ...string) io.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestRunScopeReductionThenPick(t *testing.T) {
	h := newHarness(t, script("Scrape 100 dive shop websites", "under $0.10", "B", "no"))
	require.NoError(t, h.advisor.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "(using regex parser)")
	assert.Contains(t, out, "Understood: scrape 100 dive shop")
	assert.Contains(t, out, "Here's my recommendation:")
	assert.Contains(t, out, "Option E: Scope Reduction")
	assert.Contains(t, out, "Crawling with Scrapy (85 pages)")
	assert.Contains(t, out, "Results saved to:")
	assert.Contains(t, out, "Choice recorded for future recommendations.")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "Goodbye!"))

	history, err := h.learner.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	e := history[0]
	assert.Equal(t, types.NameBalanced, e.Chosen.Name)
	assert.True(t, e.Chosen.HadViolations)
	assert.Len(t, e.OptionsShown, 5)
	require.NotNil(t, e.Constraint)
	assert.Equal(t, 0.10, *e.Constraint.BudgetMax)
	require.NotNil(t, e.Result)
	assert.NotEmpty(t, e.Result.RunID)
}

func TestRunLearnsPreference(t *testing.T) {
	h := newHarness(t, script(
		"Scrape 100 dive shop websites", "C", "yes",
		"Scrape 50 hotel websites", "C", "yes",
		"Scrape 20 dive shop websites", "yes", "no",
	))
	require.NoError(t, h.advisor.Run(context.Background()))

	out := h.out.String()
	assert.Equal(t, 1, strings.Count(out, "Based on your history, recommending: Quality Focused"))

	history, err := h.learner.History()
	require.NoError(t, err)
	require.Len(t, history, 3)
	for _, e := range history {
		assert.Equal(t, types.NameQuality, e.Chosen.Name)
	}
	assert.Equal(t, 20, history[2].Parameters["count"])
}

func TestRunEndOfInputCancels(t *testing.T) {
	h := newHarness(t, script("Scrape 100 dive shop websites", "show options"))
	require.NoError(t, h.advisor.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Here are your options:")
	assert.Contains(t, out, "Task cancelled.")
	history, err := h.learner.History()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRunRepliesToConfusingInput(t *testing.T) {
	h := newHarness(t, script(
		"hello there", "",
		"Scrape 100 dive shop websites", "only 0", "what", "cancel",
		"no",
	))
	require.NoError(t, h.advisor.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "I can help with scraping, data analysis, and API integration tasks.")
	assert.Contains(t, out, "Count must be a positive number.")
	assert.Contains(t, out, "I didn't understand that.")
	assert.Contains(t, out, "Task cancelled.")
}

func TestRunQuitAtTaskPrompt(t *testing.T) {
	h := newHarness(t, script("exit", "Scrape 10 sites"))
	require.NoError(t, h.advisor.Run(context.Background()))
	assert.NotContains(t, h.out.String(), "Understood")
}

func TestRunInterrupted(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := newHarness(t, pr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.advisor.Run(ctx))
	assert.Contains(t, h.out.String(), "Goodbye!")
}

func TestRunAcceptsVeryLongLines(t *testing.T) {
	h := newHarness(t, script("Scrape 100 dive shop websites", strings.Repeat("x", 70*1024), "yes", "no"))
	require.NoError(t, h.advisor.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "I didn't understand that.")
	assert.Contains(t, out, "Choice recorded for future recommendations.")
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("device not ready") }

func TestRunReadFailureCancelsTask(t *testing.T) {
	in := io.MultiReader(strings.NewReader("Scrape 100 dive shop websites\n"), brokenReader{})
	h := newHarness(t, in)
	require.NoError(t, h.advisor.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Could not read input: failed to read input: device not ready")
	assert.Contains(t, out, "Task cancelled.")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "Goodbye!"))

	history, err := h.learner.History()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRunDemoReadFailureEndsDemo(t *testing.T) {
	h := newHarness(t, brokenReader{})
	require.NoError(t, h.advisor.RunDemo(context.Background()))
	assert.Contains(t, h.out.String(), "Could not read input")
	assert.Contains(t, h.out.String(), "Demo complete!")
}

type cancelledExecutor struct{}

func (cancelledExecutor) Execute(ctx context.Context, _ types.Task, _ types.Option) (types.ExecutionResult, error) {
	return types.ExecutionResult{}, context.Canceled
}

type brokenExecutor struct{}

func (brokenExecutor) Execute(context.Context, types.Task, types.Option) (types.ExecutionResult, error) {
	return types.ExecutionResult{}, errors.New("disk full")
}

func TestHandleTaskExecutionOutcomes(t *testing.T) {
	task := types.NewTask(types.CategoryAPI, "call 20 apis", 20, nil)

	t.Run("interrupted run is not recorded", func(t *testing.T) {
		h := newHarness(t, script("yes"))
		h.advisor.Executor = cancelledExecutor{}
		require.NoError(t, h.advisor.HandleTask(context.Background(), task))
		assert.Contains(t, h.out.String(), "Execution cancelled.")
		history, err := h.learner.History()
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("failed run is an error", func(t *testing.T) {
		h := newHarness(t, script("A"))
		h.advisor.Executor = brokenExecutor{}
		err := h.advisor.HandleTask(context.Background(), task)
		assert.ErrorContains(t, err, "execution failed: disk full")
	})
}

type failingLearner struct{}

func (failingLearner) PreferredStrategy(types.Category) (string, bool) { return "", false }

func (failingLearner) RecordChoice(types.Task, []types.Option, types.Option, *types.Constraint, *types.ExecutionResult) error {
	return errors.New("read-only filesystem")
}

func TestHandleTaskRecordFailureIsReported(t *testing.T) {
	h := newHarness(t, script("yes"))
	h.advisor.Learner = failingLearner{}
	require.NoError(t, h.advisor.HandleTask(context.Background(), types.NewTask(types.CategoryAnalysis, "rows", 1000, nil)))
	assert.Contains(t, h.out.String(), "Could not save this choice: read-only filesystem")
}

func TestRunDemo(t *testing.T) {
	// Every prompt takes the suggestion: three steps per scenario plus two
	// pauses between them.
	h := newHarness(t, strings.NewReader(strings.Repeat("\n", 11)))
	require.NoError(t, h.advisor.RunDemo(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Demo 1/3: Web Scraping")
	assert.Contains(t, out, "Demo 2/3: Data Analysis")
	assert.Contains(t, out, "Demo 3/3: API Integration")
	assert.Contains(t, out, "Option E: Scope Reduction")
	assert.Contains(t, out, "Suggested adjustment: better quality")
	assert.Contains(t, out, "Suggested pick: A")
	assert.Equal(t, 3, strings.Count(out, "Results saved to:"))
	assert.Contains(t, out, "Demo complete!")

	history, err := h.learner.History()
	require.NoError(t, err)
	assert.Empty(t, history, "demo choices are not recorded")
}

func TestRunDemoEndsOnEOF(t *testing.T) {
	h := newHarness(t, strings.NewReader(""))
	require.NoError(t, h.advisor.RunDemo(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Demo 1/3")
	assert.NotContains(t, out, "Demo 2/3")
	assert.Contains(t, out, "Demo complete!")
}

func TestDemoScenariosClassify(t *testing.T) {
	c := perception.NewRegexClassifier()
	want := []types.Category{types.CategoryScraping, types.CategoryAnalysis, types.CategoryAPI}
	for i, sc := range DemoScenarios {
		task, ok := c.Classify(context.Background(), sc.Task)
		require.True(t, ok, sc.Task)
		assert.Equal(t, want[i], task.Category)
	}
}
