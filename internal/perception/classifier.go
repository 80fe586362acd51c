package perception

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"maestro/internal/logging"
	"maestro/internal/types"
)

// Classifier turns an initial request into a Task. ok is false when the text
// is not a scraping, analysis or API request.
type Classifier interface {
	Classify(ctx context.Context, text string) (task types.Task, ok bool)
}

// =============================================================================
// REGEX CLASSIFIER
// =============================================================================

var (
	scrapingTriggers = regexp.MustCompile(`(?i)\b(scrape|scraping|crawl|crawling|extract|fetch|pull\s+data|harvest)\b`)
	analysisTriggers = regexp.MustCompile(`(?i)\b(analy[sz]e|analy[sz]ing|process|classify|cluster|predict|summarize|aggregate)\b`)
	analysisNouns    = regexp.MustCompile(`(?i)\b(data|rows?|records?|csv|json|dataset|table|entries)\b`)
	apiNouns         = regexp.MustCompile(`(?i)\b(api|apis|endpoint|endpoints)\b`)
	apiActions       = regexp.MustCompile(`(?i)\b(call|fetch|hit|query|poll|invoke|integrate|connect)\b`)
	webTarget        = regexp.MustCompile(`(?i)\b(web)?sites?|pages?\b`)

	scrapingCounts = patterns(
		`(?i)(\d+)\s+(?:web)?sites?`,
		`(?i)(\d+)\s+pages?`,
		`(?i)(\d+)\s+urls?`,
		`(?i)scrape\s+(\d+)`,
		`(?i)crawl\s+(\d+)`,
	)
	analysisCounts = patterns(
		`(?i)(\d+)\s+rows?`,
		`(?i)(\d+)\s+records?`,
		`(?i)(\d+)\s+entries`,
		`(?i)analy[sz]e\s+(\d+)`,
		`(?i)process\s+(\d+)`,
	)
	apiCounts = patterns(
		`(?i)(\d+)\s+(?:api|apis|endpoint|endpoints)`,
		`(?i)(?:call|fetch|hit|query|poll|invoke)\s+(\d+)`,
		`(?i)(\d+)\s+(?:service|services)`,
	)

	domainPatterns = patterns(
		`(?i)\b\d+\s+([\w\s]{2,30}?)\s+(?:web)?(?:sites?|pages?)\b`,
		`(?i)\b(\w[\w\s]{1,30}?)\s+(?:web)?(?:sites?|pages?)\b`,
		`(?i)(?:from|on|of)\s+([\w\s]{2,30}?)(?:\s+and|\s*$|,)`,
	)
	domainFiller   = regexp.MustCompile(`(?i)^(scrape|scraping|crawl|crawling|extract|fetch|pull|the|all|some|every|\d+)\s+`)
	domainRejected = wordSet("scrape", "crawl", "extract", "fetch", "pull", "data")

	scrapingTarget   = regexp.MustCompile(`(?i)extract\s+([\w\s,]+?)(?:\s+from|\s+on|\s*$)`)
	scrapingTargetKW = regexp.MustCompile(`(?i)\b(pricing|prices?|contacts?|emails?|phones?|addresses?|products?|reviews?|info|data|details?)\b`)

	analysisSources = patterns(
		`(?i)(?:of|from)\s+([\w\s]{2,30}?)\s+(?:data|csv|json|records?|rows?)`,
		`(?i)(\w+(?:\s+\w+)?)\s+(?:data|csv|json|dataset)`,
	)
	analysisFiller = regexp.MustCompile(`(?i)^(analy[sz]e|process|classify|the|all|some|\d+)\s+`)
	analysisTypes  = regexp.MustCompile(`(?i)\b(trends?|anomal(?:y|ies)|patterns?|clusters?|segments?|predictions?|classification|summary|statistics|correlations?)\b`)

	apiSources = patterns(
		`(?i)(?:from|to)\s+([\w\s]{2,30}?)\s+(?:api|apis|endpoint|endpoints)`,
		`(?i)(\w+(?:\s+\w+)?)\s+(?:api|apis|endpoint|endpoints)`,
	)
	apiFiller   = regexp.MustCompile(`(?i)^(call|fetch|hit|query|poll|invoke|the|all|some|\d+)\s+`)
	apiTarget   = regexp.MustCompile(`(?i)(?:fetch|get|extract|pull)\s+([\w\s,]+?)(?:\s+from|\s+via|\s*$)`)
	apiTargetKW = regexp.MustCompile(`(?i)\b(pricing|prices?|availability|status|data|inventory|rates?)\b`)
)

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// RegexClassifier recognizes requests with keyword heuristics. It needs no
// network and never fails; unrecognized text yields ok=false.
type RegexClassifier struct{}

// NewRegexClassifier returns the heuristic classifier.
func NewRegexClassifier() *RegexClassifier {
	return &RegexClassifier{}
}

// Classify implements Classifier.
func (r *RegexClassifier) Classify(_ context.Context, text string) (types.Task, bool) {
	task, ok := r.classify(text)
	if ok {
		logging.ClassifierDebug("regex: %q -> %s x%d", text, task.Category, task.Count())
	} else {
		logging.ClassifierDebug("regex: %q not recognized", text)
	}
	return task, ok
}

func (r *RegexClassifier) classify(text string) (types.Task, bool) {
	hasAPINoun := apiNouns.MatchString(text)
	hasScraping := scrapingTriggers.MatchString(text)
	hasWebTarget := webTarget.MatchString(text)

	// Explicit API nouns that are not describing websites.
	if hasAPINoun && !hasWebTarget && (hasScraping || apiActions.MatchString(text)) {
		return classifyAPI(text), true
	}
	if hasScraping {
		return classifyScraping(text), true
	}
	if analysisTriggers.MatchString(text) && analysisNouns.MatchString(text) {
		return classifyAnalysis(text), true
	}
	return types.Task{}, false
}

func classifyScraping(text string) types.Task {
	c := types.CategoryScraping
	return types.NewTask(c, strings.TrimSpace(text), firstCount(text, scrapingCounts, c), map[string]string{
		types.ParamDomain: extractDomain(text),
		types.ParamTarget: extractTarget(text, scrapingTarget, scrapingTargetKW),
	})
}

func classifyAnalysis(text string) types.Task {
	c := types.CategoryAnalysis
	params := map[string]string{
		types.ParamSource: extractSource(text, analysisSources, analysisFiller),
	}
	if m := analysisTypes.FindStringSubmatch(text); m != nil {
		params[types.ParamAnalysisType] = strings.ToLower(m[1])
	}
	return types.NewTask(c, strings.TrimSpace(text), firstCount(text, analysisCounts, c), params)
}

func classifyAPI(text string) types.Task {
	c := types.CategoryAPI
	return types.NewTask(c, strings.TrimSpace(text), firstCount(text, apiCounts, c), map[string]string{
		types.ParamSource: extractSource(text, apiSources, apiFiller),
		types.ParamTarget: extractTarget(text, apiTarget, apiTargetKW),
	})
}

// firstCount returns the number captured by the first matching pattern, or
// the category default.
func firstCount(text string, pats []*regexp.Regexp, c types.Category) int {
	for _, p := range pats {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}
	return c.DefaultCount()
}

func extractDomain(text string) string {
	for _, p := range domainPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		domain := strings.TrimSpace(m[1])
		// Twice, for "Scrape 100 ...".
		domain = domainFiller.ReplaceAllString(domain, "")
		domain = domainFiller.ReplaceAllString(domain, "")
		if domainRejected[strings.ToLower(domain)] {
			continue
		}
		if len(domain) > 1 {
			return domain
		}
	}
	return ""
}

func extractSource(text string, pats []*regexp.Regexp, filler *regexp.Regexp) string {
	for _, p := range pats {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		source := filler.ReplaceAllString(strings.TrimSpace(m[1]), "")
		if len(source) > 1 {
			return source
		}
	}
	return ""
}

// extractTarget prefers an explicit "extract X from" phrase and otherwise
// joins the distinct data keywords found in the text.
func extractTarget(text string, phrase, keywords *regexp.Regexp) string {
	if m := phrase.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(strings.TrimSpace(m[1]), ",")
	}
	var found []string
	seen := make(map[string]bool)
	for _, kw := range keywords.FindAllString(text, -1) {
		kw = strings.ToLower(kw)
		if !seen[kw] {
			seen[kw] = true
			found = append(found, kw)
		}
	}
	return strings.Join(found, ", ")
}

// =============================================================================
// FALLBACK CHAIN
// =============================================================================

// Chain tries each classifier in order and returns the first recognized task.
type Chain []Classifier

// Classify implements Classifier.
func (c Chain) Classify(ctx context.Context, text string) (types.Task, bool) {
	for _, cl := range c {
		if cl == nil {
			continue
		}
		if task, ok := cl.Classify(ctx, text); ok {
			return task, true
		}
	}
	return types.Task{}, false
}

// Default returns the classifier used by the advisor: the LLM classifier when
// it is available, then the regex classifier.
func Default(llm *LLMClassifier) Classifier {
	if llm != nil && llm.Available() {
		return Chain{llm, NewRegexClassifier()}
	}
	return NewRegexClassifier()
}
