package executor

import (
	"fmt"
	"math"

	"maestro/internal/pricing"
	"maestro/internal/types"
)

// Phase is one pass over a share of the units.
type Phase struct {
	Name     string
	Units    int
	FailRate float64
}

// DefaultFallbackShare is the share of pages rendered by playwright when no
// pricing table says otherwise.
const DefaultFallbackShare = 0.15

// FallbackShareFrom returns the share of pages the cost model hands from
// scrapy to the playwright fallback: scrapy's miss rate in table.
func FallbackShareFrom(table *pricing.Table) float64 {
	if table == nil {
		return DefaultFallbackShare
	}
	scrapy, ok := table.Tool("scrapy")
	if !ok {
		return DefaultFallbackShare
	}
	return scrapy.MissRate()
}

// BuildPhases derives the simulated phases from the option's tools.
// fallbackShare is the fraction of pages rendered by playwright when scrapy
// and playwright run together.
func BuildPhases(category types.Category, opt types.Option, count int, fallbackShare float64) []Phase {
	var phases []Phase
	noun := category.UnitNoun()

	switch category {
	case types.CategoryScraping:
		noun = "pages"
		switch {
		case opt.HasTool("scrapy") && opt.HasTool("playwright"):
			rendered := int(math.Round(float64(count) * min(max(fallbackShare, 0), 1)))
			crawled := count - rendered
			phases = append(phases,
				Phase{Name: fmt.Sprintf("Crawling with Scrapy (%d pages)", crawled), Units: crawled, FailRate: 0.03},
				Phase{Name: fmt.Sprintf("Rendering JS pages with Playwright (%d pages)", rendered), Units: rendered, FailRate: 0.05},
			)
		case opt.HasTool("scrapy"):
			phases = append(phases, Phase{Name: fmt.Sprintf("Crawling with Scrapy (%d pages)", count), Units: count, FailRate: 0.15})
		}
	case types.CategoryAnalysis:
		loader, rate := "Pandas", 0.02
		if opt.HasTool("polars") {
			loader, rate = "Polars", 0.01
		}
		phases = append(phases, Phase{Name: fmt.Sprintf("Loading data with %s (%d rows)", loader, count), Units: count, FailRate: rate})
	case types.CategoryAPI:
		client, rate := "Requests", 0.08
		if opt.HasTool("httpx") {
			client, rate = "HTTPX", 0.04
		}
		phases = append(phases, Phase{Name: fmt.Sprintf("Calling endpoints with %s (%d calls)", client, count), Units: count, FailRate: rate})
	}

	extractor := "DeepSeek"
	if opt.HasTool("claude") {
		extractor = "Claude"
	}
	phases = append(phases, Phase{Name: fmt.Sprintf("Extracting data with %s (%d %s)", extractor, count, noun), Units: count, FailRate: 0.08})
	return phases
}
