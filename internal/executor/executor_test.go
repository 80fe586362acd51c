package executor

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"maestro/internal/pricing"
	"maestro/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func balanced() types.Option {
	return types.Option{
		Name:        types.NameBalanced,
		Strategy:    "Scrapy + Playwright fallback + DeepSeek extraction",
		Cost:        0.17,
		Quality:     0.87,
		TimeSeconds: 123,
		Tools:       []string{"scrapy", "playwright", "deepseek"},
	}
}

func newTestExecutor(t *testing.T, seed int64, lines *[]string) *Executor {
	t.Helper()
	cfg := Config{OutputDir: filepath.Join(t.TempDir(), "output"), FallbackShare: DefaultFallbackShare}
	opts := []Option{
		WithRand(rand.New(rand.NewSource(seed))),
		WithClock(func() time.Time { return time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC) }),
	}
	if lines != nil {
		opts = append(opts, WithProgress(func(l string) { *lines = append(*lines, l) }))
	}
	return New(cfg, opts...)
}

func TestBuildPhases(t *testing.T) {
	tests := []struct {
		name     string
		category types.Category
		tools    []string
		want     []Phase
	}{
		{
			name:     "hybrid crawl",
			category: types.CategoryScraping,
			tools:    []string{"scrapy", "playwright", "deepseek"},
			want: []Phase{
				{Name: "Crawling with Scrapy (85 pages)", Units: 85, FailRate: 0.03},
				{Name: "Rendering JS pages with Playwright (15 pages)", Units: 15, FailRate: 0.05},
				{Name: "Extracting data with DeepSeek (100 pages)", Units: 100, FailRate: 0.08},
			},
		},
		{
			name:     "scrapy only",
			category: types.CategoryScraping,
			tools:    []string{"scrapy", "claude"},
			want: []Phase{
				{Name: "Crawling with Scrapy (100 pages)", Units: 100, FailRate: 0.15},
				{Name: "Extracting data with Claude (100 pages)", Units: 100, FailRate: 0.08},
			},
		},
		{
			name:     "analysis",
			category: types.CategoryAnalysis,
			tools:    []string{"polars", "deepseek"},
			want: []Phase{
				{Name: "Loading data with Polars (100 rows)", Units: 100, FailRate: 0.01},
				{Name: "Extracting data with DeepSeek (100 rows)", Units: 100, FailRate: 0.08},
			},
		},
		{
			name:     "api",
			category: types.CategoryAPI,
			tools:    []string{"requests", "deepseek"},
			want: []Phase{
				{Name: "Calling endpoints with Requests (100 calls)", Units: 100, FailRate: 0.08},
				{Name: "Extracting data with DeepSeek (100 endpoints)", Units: 100, FailRate: 0.08},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPhases(tt.category, types.Option{Tools: tt.tools}, 100, DefaultFallbackShare)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildPhases mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFallbackShareFollowsPricingTable(t *testing.T) {
	builtin, err := pricing.Builtin()
	require.NoError(t, err)
	assert.InDelta(t, 0.15, FallbackShareFrom(builtin), 1e-9)
	assert.Equal(t, DefaultFallbackShare, FallbackShareFrom(nil))

	custom, err := pricing.Parse([]byte(strings.Replace(string(pricing.DefaultYAML()), "success_rate: 0.85", "success_rate: 0.60", 1)))
	require.NoError(t, err)
	share := FallbackShareFrom(custom)
	assert.InDelta(t, 0.40, share, 1e-9)

	hybrid := types.Option{Tools: []string{"scrapy", "playwright", "deepseek"}}
	for _, tc := range []struct {
		share             float64
		crawled, rendered int
	}{
		{FallbackShareFrom(builtin), 85, 15},
		{share, 60, 40},
	} {
		phases := BuildPhases(types.CategoryScraping, hybrid, 100, tc.share)
		require.Len(t, phases, 3)
		assert.Equal(t, tc.crawled, phases[0].Units)
		assert.Equal(t, tc.rendered, phases[1].Units)
		assert.Equal(t, tc.crawled+tc.rendered, phases[2].Units)
	}

	var lines []string
	e := New(Config{OutputDir: t.TempDir(), FallbackShare: share}, WithRand(rand.New(rand.NewSource(1))),
		WithProgress(func(l string) { lines = append(lines, l) }))
	task := types.NewTask(types.CategoryScraping, "Scrape 100 sites", 100, nil)
	_, err = e.Execute(context.Background(), task, balanced())
	require.NoError(t, err)
	assert.Contains(t, lines, "  Rendering JS pages with Playwright (40 pages)")
}

func TestExecute(t *testing.T) {
	var lines []string
	e := newTestExecutor(t, 42, &lines)
	task := types.NewTask(types.CategoryScraping, "Scrape 100 dive shop websites", 100, map[string]string{"domain": "dive shop", "target": "pricing"})
	opt := balanced()

	res, err := e.Execute(context.Background(), task, opt)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, opt, res.Option)
	assert.Equal(t, 200, res.UnitsProcessed)
	assert.LessOrEqual(t, res.UnitsSucceeded, res.UnitsProcessed)
	assert.GreaterOrEqual(t, res.ActualCost, 0.14, "variance is floored at 85%")
	assert.GreaterOrEqual(t, res.ActualTimeSeconds, 104)
	assert.LessOrEqual(t, res.ActualTimeSeconds, 141)
	assert.Equal(t, res.ActualQuality >= 0.5, res.Success)

	// Phase headers plus a cost line every 20 units.
	assert.Equal(t, "  Crawling with Scrapy (85 pages)", lines[0])
	var costLines int
	for _, l := range lines {
		if strings.Contains(l, "Running cost") {
			costLines++
		}
	}
	assert.Equal(t, 10, costLines)
	assert.Contains(t, lines[len(lines)-1], "Running cost: $0.17")

	data, err := os.ReadFile(res.OutputFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(res.OutputFile), "maestro_results_20260504_103000_"))

	var doc resultFile
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, res.RunID, doc.Meta.RunID)
	assert.Equal(t, task.Description, doc.Meta.Task)
	assert.Equal(t, opt.Tools, doc.Meta.Tools)
	assert.Equal(t, 100, doc.Summary.TotalRequested)
	assert.Equal(t, res.UnitsSucceeded, doc.Summary.TotalSucceeded)
	assert.Equal(t, res.ActualCost, doc.Summary.ActualCostUSD)
	require.Len(t, doc.Results, 100, "rows are capped at the requested count")
	assert.Equal(t, "https://example-dive-shop-1.com", doc.Results[0].Source)
	assert.Equal(t, "Sample pricing data for site 1", doc.Results[0].Extracted["pricing"])
}

func TestExecuteDeterministicWithSeed(t *testing.T) {
	task := types.NewTask(types.CategoryAPI, "call 20 weather apis", 20, map[string]string{"source": "weather"})
	opt := types.Option{Name: types.NameSpeed, Cost: 0.05, TimeSeconds: 11, Tools: []string{"httpx", "deepseek"}}

	a, err := newTestExecutor(t, 7, nil).Execute(context.Background(), task, opt)
	require.NoError(t, err)
	b, err := newTestExecutor(t, 7, nil).Execute(context.Background(), task, opt)
	require.NoError(t, err)

	assert.Equal(t, a.UnitsSucceeded, b.UnitsSucceeded)
	assert.Equal(t, a.ActualCost, b.ActualCost)
	assert.Equal(t, a.ActualTimeSeconds, b.ActualTimeSeconds)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestExecutor(t, 1, nil)
	_, err := e.Execute(ctx, types.NewTask(types.CategoryScraping, "x", 10, nil), balanced())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteCancelledWhilePaced(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	e := New(Config{OutputDir: t.TempDir(), MinDelay: time.Second, MaxDelay: 2 * time.Second},
		WithRand(rand.New(rand.NewSource(1))))
	start := time.Now()
	_, err := e.Execute(ctx, types.NewTask(types.CategoryScraping, "x", 10, nil), balanced())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecuteRejectsEmptyTask(t *testing.T) {
	_, err := newTestExecutor(t, 1, nil).Execute(context.Background(), types.Task{Category: types.CategoryScraping}, balanced())
	assert.ErrorIs(t, err, types.ErrInvalidCount)
}
