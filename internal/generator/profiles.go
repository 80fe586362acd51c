package generator

import (
	"fmt"

	"maestro/internal/costmodel"
	"maestro/internal/pricing"
	"maestro/internal/types"
)

// RequiredTools are the pricing records the profile table references.
var RequiredTools = map[string]pricing.ToolKind{
	"scrapy":     pricing.KindFetch,
	"playwright": pricing.KindFetch,
	"requests":   pricing.KindFetch,
	"httpx":      pricing.KindFetch,
	"pandas":     pricing.KindProcessor,
	"polars":     pricing.KindProcessor,
	"deepseek":   pricing.KindLLM,
	"claude":     pricing.KindLLM,
}

// profile is one named strategy: a tool combination plus its wording.
type profile struct {
	name        string
	combo       costmodel.Combo
	recommended bool
	summary     func(d describer) string
	explain     func(d describer) string
}

// categoryProfiles is the strategy table for one task category.
type categoryProfiles struct {
	// priceUnit/priceScale control how LLM prices are quoted in explanations
	// ("$0.0014/page", "$0.0033/1k rows").
	priceUnit  string
	priceScale float64
	profiles   []profile
	// scope is the index of the profile that scope reduction scales down.
	scope int
}

// describer renders tool facts from the pricing table into option text.
type describer struct {
	table    *pricing.Table
	category types.Category
	cp       categoryProfiles
}

func (d describer) label(name string) string {
	if t, ok := d.table.Tool(name); ok {
		return t.Label
	}
	return name
}

func (d describer) price(name string) string {
	t, ok := d.table.Tool(name)
	if !ok {
		return "?"
	}
	return fmt.Sprintf("$%.4f/%s", costmodel.LLMUnitCost(d.category, t)*d.cp.priceScale, d.cp.priceUnit)
}

func (d describer) pct(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

func (d describer) tool(name string) *pricing.Tool {
	t, _ := d.table.Tool(name)
	return t
}

func (d describer) workers() string {
	return fmt.Sprintf("%g workers", d.table.Tuning.ParallelismFactor)
}

// =============================================================================
// STRATEGY TABLE
// =============================================================================

var strategyTable = map[types.Category]categoryProfiles{
	types.CategoryScraping: {
		priceUnit:  "page",
		priceScale: 1,
		scope:      1,
		profiles: []profile{
			{
				name:  types.NameBudget,
				combo: costmodel.Combo{Primary: "scrapy", LLM: "deepseek"},
				summary: func(d describer) string {
					return fmt.Sprintf("%s-only crawling + %s extraction", d.label("scrapy"), d.label("deepseek"))
				},
				explain: func(d describer) string {
					return fmt.Sprintf("%s crawls for free and %s extracts the data (%s). "+
						"There is no JavaScript rendering, so sites that need it fail and the success rate drops.",
						d.label("scrapy"), d.label("deepseek"), d.price("deepseek"))
				},
			},
			{
				name:        types.NameBalanced,
				combo:       costmodel.Combo{Primary: "scrapy", Fallback: "playwright", LLM: "deepseek"},
				recommended: true,
				summary: func(d describer) string {
					return fmt.Sprintf("%s + %s fallback + %s extraction", d.label("scrapy"), d.label("playwright"), d.label("deepseek"))
				},
				explain: func(d describer) string {
					miss := 1 - d.tool("scrapy").SuccessRate
					return fmt.Sprintf("%s crawls first and handles about %s of sites. "+
						"%s renders the JavaScript-heavy remainder (about %s, $%g/page). "+
						"%s extracts structured data from every page.",
						d.label("scrapy"), d.pct(d.tool("scrapy").SuccessRate),
						d.label("playwright"), d.pct(miss), d.tool("playwright").CostPerUnit,
						d.label("deepseek"))
				},
			},
			{
				name:  types.NameQuality,
				combo: costmodel.Combo{Primary: "scrapy", Fallback: "playwright", LLM: "claude"},
				summary: func(d describer) string {
					return fmt.Sprintf("%s + %s fallback + %s extraction", d.label("scrapy"), d.label("playwright"), d.label("claude"))
				},
				explain: func(d describer) string {
					return fmt.Sprintf("Same crawling as Balanced, with %s doing the extraction (%s vs %s). "+
						"It copes much better with complex layouts and nuanced fields.",
						d.label("claude"), d.price("claude"), d.price("deepseek"))
				},
			},
			{
				name:  types.NameSpeed,
				combo: costmodel.Combo{Primary: "scrapy", LLM: "deepseek", Parallel: true},
				summary: func(d describer) string {
					return fmt.Sprintf("Parallel %s (%s) + %s extraction", d.label("scrapy"), d.workers(), d.label("deepseek"))
				},
				explain: func(d describer) string {
					return fmt.Sprintf("Runs %s of %s for maximum throughput. "+
						"No %s fallback, so JavaScript-heavy sites are skipped. Extraction costs the same as Budget.",
						d.workers(), d.label("scrapy"), d.label("playwright"))
				},
			},
		},
	},
	types.CategoryAnalysis: {
		priceUnit:  "1k rows",
		priceScale: 1000,
		scope:      1,
		profiles: []profile{
			{
				name:  types.NameBudget,
				combo: costmodel.Combo{Primary: "pandas", LLM: "deepseek"},
				summary: func(d describer) string {
					return fmt.Sprintf("%s processing + %s analysis", d.label("pandas"), d.label("deepseek"))
				},
				explain: func(d describer) string {
					return fmt.Sprintf("%s processes the data locally for free and %s generates insights (%s). "+
						"Reliable for standard tabular data.",
						d.label("pandas"), d.label("deepseek"), d.price("deepseek"))
				},
			},
			{
				name:        types.NameBalanced,
				combo:       costmodel.Combo{Primary: "polars", LLM: "deepseek"},
				recommended: true,
				summary: func(d describer) string {
					return fmt.Sprintf("%s processing + %s analysis", d.label("polars"), d.label("deepseek"))
				},
				explain: func(d describer) string {
					ratio := d.tool("polars").ThroughputPerSecond / d.tool("pandas").ThroughputPerSecond
					return fmt.Sprintf("%s processes the data locally (free, %.0fx faster than %s) and %s generates insights (%s). "+
						"Best value for most analysis work.",
						d.label("polars"), ratio, d.label("pandas"), d.label("deepseek"), d.price("deepseek"))
				},
			},
			{
				name:  types.NameQuality,
				combo: costmodel.Combo{Primary: "polars", LLM: "claude"},
				summary: func(d describer) string {
					return fmt.Sprintf("%s processing + %s analysis", d.label("polars"), d.label("claude"))
				},
				explain: func(d describer) string {
					return fmt.Sprintf("%s for fast local processing and %s for the analysis (%s vs %s). "+
						"Noticeably better on nuanced insights and complex patterns.",
						d.label("polars"), d.label("claude"), d.price("claude"), d.price("deepseek"))
				},
			},
			{
				name:  types.NameSpeed,
				combo: costmodel.Combo{Primary: "polars", LLM: "deepseek", Parallel: true},
				summary: func(d describer) string {
					return fmt.Sprintf("Parallel %s (%s) + %s analysis", d.label("polars"), d.workers(), d.label("deepseek"))
				},
				explain: func(d describer) string {
					return fmt.Sprintf("Runs %s of %s for maximum throughput at the same analysis cost as Balanced. "+
						"Useful for large datasets where processing time matters.",
						d.workers(), d.label("polars"))
				},
			},
		},
	},
	types.CategoryAPI: {
		priceUnit:  "response",
		priceScale: 1,
		scope:      1,
		profiles: []profile{
			{
				name:  types.NameBudget,
				combo: costmodel.Combo{Primary: "requests", LLM: "deepseek"},
				summary: func(d describer) string {
					return fmt.Sprintf("%s (sequential) + %s parsing", d.label("requests"), d.label("deepseek"))
				},
				explain: func(d describer) string {
					return fmt.Sprintf("%s calls the APIs one after another and %s parses the responses (%s). "+
						"Cheap and simple, but slower.",
						d.label("requests"), d.label("deepseek"), d.price("deepseek"))
				},
			},
			{
				name:        types.NameBalanced,
				combo:       costmodel.Combo{Primary: "httpx", LLM: "deepseek"},
				recommended: true,
				summary: func(d describer) string {
					return fmt.Sprintf("%s (async) + %s parsing", d.label("httpx"), d.label("deepseek"))
				},
				explain: func(d describer) string {
					return fmt.Sprintf("%s issues concurrent calls and %s parses the responses (%s). "+
						"Good speed at a low cost.",
						d.label("httpx"), d.label("deepseek"), d.price("deepseek"))
				},
			},
			{
				name:  types.NameQuality,
				combo: costmodel.Combo{Primary: "httpx", LLM: "claude"},
				summary: func(d describer) string {
					return fmt.Sprintf("%s (async) + %s parsing", d.label("httpx"), d.label("claude"))
				},
				explain: func(d describer) string {
					return fmt.Sprintf("%s for fast calls and %s for response parsing (%s vs %s). "+
						"Handles complex or inconsistent payloads better.",
						d.label("httpx"), d.label("claude"), d.price("claude"), d.price("deepseek"))
				},
			},
			{
				name:  types.NameSpeed,
				combo: costmodel.Combo{Primary: "httpx", LLM: "deepseek", Parallel: true},
				summary: func(d describer) string {
					return fmt.Sprintf("Parallel %s (%s) + %s parsing", d.label("httpx"), d.workers(), d.label("deepseek"))
				},
				explain: func(d describer) string {
					return fmt.Sprintf("Runs %s of %s for maximum throughput at the same parsing cost as Balanced.",
						d.workers(), d.label("httpx"))
				},
			},
		},
	},
}
