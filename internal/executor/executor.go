// Package executor simulates running a chosen option. Nothing is fetched or
// analyzed: each unit of work waits a randomized delay and succeeds or fails
// with a per-phase failure rate, and the outcome is written to a JSON result
// file shaped like real output.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"maestro/internal/costmodel"
	"maestro/internal/logging"
	"maestro/internal/types"
)

// Config controls pacing and output location.
type Config struct {
	OutputDir string
	// MinDelay and MaxDelay bound the per-unit pause. Both zero disables
	// pacing entirely.
	MinDelay time.Duration
	MaxDelay time.Duration
	// SlowChance is the probability a unit takes SlowFactor times longer.
	SlowChance float64
	SlowFactor float64
	// FallbackShare is the fraction of scraped pages rendered by playwright
	// in a hybrid crawl. See FallbackShareFrom.
	FallbackShare float64
}

// DefaultConfig paces units between 20ms and 120ms with a 10% chance of a
// slow unit.
func DefaultConfig() Config {
	return Config{
		OutputDir:     "output",
		MinDelay:      20 * time.Millisecond,
		MaxDelay:      120 * time.Millisecond,
		SlowChance:    0.1,
		SlowFactor:    3,
		FallbackShare: DefaultFallbackShare,
	}
}

// ProgressFunc receives one line of progress output.
type ProgressFunc func(line string)

// Executor runs simulated executions. It is not safe for concurrent use
// because it owns a single random source.
type Executor struct {
	cfg      Config
	rng      *rand.Rand
	progress ProgressFunc
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithRand replaces the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(e *Executor) { e.rng = r }
}

// WithProgress sends progress lines to fn.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Executor) { e.progress = fn }
}

// WithWriter sends progress lines to w, one per line.
func WithWriter(w io.Writer) Option {
	return WithProgress(func(line string) { fmt.Fprintln(w, line) })
}

// WithClock overrides the time source used for timestamps and file names.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an executor.
func New(cfg Config, opts ...Option) *Executor {
	e := &Executor{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		progress: func(string) {},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute simulates the option against the task. On cancellation the partial
// run is discarded and ctx.Err() is returned.
func (e *Executor) Execute(ctx context.Context, task types.Task, opt types.Option) (types.ExecutionResult, error) {
	timer := logging.StartTimer(logging.CategoryExecutor, "Execute")
	defer timer.Stop()

	count := task.Count()
	if count < 1 {
		return types.ExecutionResult{}, types.ErrInvalidCount
	}
	phases := BuildPhases(task.Category, opt, count, e.cfg.FallbackShare)
	total := 0
	for _, p := range phases {
		total += p.Units
	}
	every := max(count/5, 1)
	runID := uuid.NewString()
	logging.Executor("run %s: %s x%d with %s (%d phases)", runID, task.Category, count, opt.Name, len(phases))

	succeeded, processed := 0, 0
	for _, p := range phases {
		e.progress(fmt.Sprintf("  %s", p.Name))
		for i := 0; i < p.Units; i++ {
			if err := e.pause(ctx); err != nil {
				logging.Executor("run %s cancelled after %d/%d units", runID, processed, total)
				return types.ExecutionResult{}, err
			}
			if e.rng.Float64() > p.FailRate {
				succeeded++
			}
			processed++
			if processed%every == 0 {
				running := float64(processed) / float64(total) * opt.Cost
				e.progress(fmt.Sprintf("    Running cost: $%.2f  |  %d/%d %s", running, succeeded, processed, doneNoun(task.Category)))
			}
		}
	}

	variance := math.Max(e.rng.NormFloat64()*0.05+1, 0.85)
	quality := float64(succeeded) / float64(max(processed, 1))
	res := types.ExecutionResult{
		RunID:             runID,
		Option:            opt,
		ActualCost:        costmodel.Round2(opt.Cost * variance),
		ActualQuality:     costmodel.Round2(quality),
		ActualTimeSeconds: int(float64(opt.TimeSeconds) * (0.85 + e.rng.Float64()*0.30)),
		Success:           quality >= 0.5,
		UnitsProcessed:    processed,
		UnitsSucceeded:    succeeded,
	}

	path, err := e.writeResults(task, res, count)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	res.OutputFile = path
	logging.Executor("run %s finished: cost=$%.2f quality=%.2f file=%s", runID, res.ActualCost, res.ActualQuality, path)
	return res, nil
}

func (e *Executor) pause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.cfg.MaxDelay <= 0 {
		return nil
	}
	span := e.cfg.MaxDelay - e.cfg.MinDelay
	d := e.cfg.MinDelay
	if span > 0 {
		d += time.Duration(e.rng.Int63n(int64(span)))
	}
	if e.rng.Float64() < e.cfg.SlowChance && e.cfg.SlowFactor > 1 {
		d = time.Duration(float64(d) * e.cfg.SlowFactor)
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func doneNoun(c types.Category) string {
	switch c {
	case types.CategoryAnalysis:
		return "rows analyzed"
	case types.CategoryAPI:
		return "calls completed"
	}
	return "pages extracted"
}

// =============================================================================
// RESULT FILE
// =============================================================================

type resultFile struct {
	Meta    resultMeta    `json:"meta"`
	Summary resultSummary `json:"summary"`
	Results []resultRow   `json:"results"`
}

type resultMeta struct {
	RunID     string         `json:"run_id"`
	Task      string         `json:"task"`
	Category  types.Category `json:"category"`
	Option    string         `json:"option"`
	Strategy  string         `json:"strategy"`
	Tools     []string       `json:"tools"`
	Timestamp time.Time      `json:"timestamp"`
}

type resultSummary struct {
	TotalRequested int     `json:"total_requested"`
	TotalProcessed int     `json:"total_processed"`
	TotalSucceeded int     `json:"total_succeeded"`
	SuccessRate    float64 `json:"success_rate"`
	ActualCostUSD  float64 `json:"actual_cost_usd"`
}

type resultRow struct {
	Source    string            `json:"source"`
	Status    string            `json:"status"`
	Extracted map[string]string `json:"extracted"`
}

func (e *Executor) writeResults(task types.Task, res types.ExecutionResult, count int) (string, error) {
	ts := e.now().UTC()
	doc := resultFile{
		Meta: resultMeta{
			RunID:     res.RunID,
			Task:      task.Description,
			Category:  task.Category,
			Option:    res.Option.Name,
			Strategy:  res.Option.Strategy,
			Tools:     res.Option.Tools,
			Timestamp: ts,
		},
		Summary: resultSummary{
			TotalRequested: count,
			TotalProcessed: res.UnitsProcessed,
			TotalSucceeded: res.UnitsSucceeded,
			SuccessRate:    res.ActualQuality,
			ActualCostUSD:  res.ActualCost,
		},
		Results: sampleRows(task, min(res.UnitsSucceeded, count)),
	}

	if err := os.MkdirAll(e.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	name := fmt.Sprintf("maestro_results_%s_%s.json", ts.Format("20060102_150405"), res.RunID[:8])
	path := filepath.Join(e.cfg.OutputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write results: %w", err)
	}
	return path, nil
}

// sampleRows fabricates n plausible rows for the task's category.
func sampleRows(task types.Task, n int) []resultRow {
	rows := make([]resultRow, 0, n)
	switch task.Category {
	case types.CategoryAnalysis:
		source := task.ParamOr(types.ParamSource, "dataset")
		kind := task.ParamOr(types.ParamAnalysisType, "summary")
		for i := 1; i <= n; i++ {
			rows = append(rows, resultRow{
				Source:    fmt.Sprintf("%s#row-%d", slug(source), i),
				Status:    "success",
				Extracted: map[string]string{kind: fmt.Sprintf("Sample %s finding for row %d", kind, i)},
			})
		}
	case types.CategoryAPI:
		source := task.ParamOr(types.ParamSource, "service")
		target := task.ParamOr(types.ParamTarget, "data")
		for i := 1; i <= n; i++ {
			rows = append(rows, resultRow{
				Source:    fmt.Sprintf("https://api.example-%s-%d.com/v1", slug(source), i),
				Status:    "success",
				Extracted: map[string]string{target: fmt.Sprintf("Sample %s payload from endpoint %d", target, i)},
			})
		}
	default:
		domain := task.ParamOr(types.ParamDomain, "websites")
		target := task.ParamOr(types.ParamTarget, "data")
		for i := 1; i <= n; i++ {
			rows = append(rows, resultRow{
				Source: fmt.Sprintf("https://example-%s-%d.com", slug(domain), i),
				Status: "success",
				Extracted: map[string]string{
					"name": fmt.Sprintf("Sample %s #%d", domain, i),
					target: fmt.Sprintf("Sample %s data for site %d", target, i),
				},
			})
		}
	}
	return rows
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
