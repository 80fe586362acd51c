// Package perception turns free text into structured input: follow-up
// replies during a negotiation become a ParsedIntent, and the initial request
// becomes a types.Task through one of the classifiers.
package perception

import (
	"regexp"
	"strconv"
	"strings"

	"maestro/internal/logging"
)

// Intent is what a follow-up reply asks the session to do.
type Intent string

const (
	IntentAccept        Intent = "accept"         // "yes", "go", "option B"
	IntentAdjustBudget  Intent = "adjust_budget"  // "cheaper", "under $5"
	IntentAdjustQuality Intent = "adjust_quality" // "better quality", "at least 90%"
	IntentAdjustTime    Intent = "adjust_time"    // "faster", "under 5 minutes"
	IntentAdjustScope   Intent = "adjust_scope"   // "only 50 sites"
	IntentQuit          Intent = "quit"
	IntentUnknown       Intent = "unknown"
)

// ShowOptionsValue marks an unknown intent that asks for the full option list.
const ShowOptionsValue = -1.0

// ParsedIntent is a classified reply with its optional extracted value:
// dollars, a 0-1 quality ratio, seconds, or an item count.
type ParsedIntent struct {
	Intent      Intent
	Value       *float64
	ChosenIndex *int
}

// ShowOptions reports whether the reply asked to list every option.
func (p ParsedIntent) ShowOptions() bool {
	return p.Intent == IntentUnknown && p.Value != nil && *p.Value == ShowOptionsValue
}

// IsAdjustment reports whether the reply edits the constraint.
func (p ParsedIntent) IsAdjustment() bool {
	switch p.Intent {
	case IntentAdjustBudget, IntentAdjustQuality, IntentAdjustTime:
		return true
	}
	return false
}

// =============================================================================
// VOCABULARY
// =============================================================================

var (
	quitWords   = wordSet("quit", "exit", "cancel", "no", "q")
	acceptWords = wordSet("yes", "y", "go", "proceed", "ok", "sure")

	showKeywords    = []string{"show option", "compare", "all option", "list"}
	budgetKeywords  = []string{"cheaper", "less expensive", "lower cost", "budget"}
	qualityKeywords = []string{"better", "higher quality", "more accurate", "quality"}
	timeKeywords    = []string{"faster", "quicker", "speed"}

	optionPattern   = regexp.MustCompile(`^(?:option\s+)?([a-h]|\d+)$`)
	budgetPattern   = regexp.MustCompile(`(?:under|below|max|within|for|do)\s*\$(\d+(?:\.\d+)?)`)
	dollarPattern   = regexp.MustCompile(`^\$(\d+(?:\.\d+)?)\s*$`)
	qualityPattern  = regexp.MustCompile(`(?:at least|above|minimum|min)\s*(\d+)\s*%`)
	minutesPattern  = regexp.MustCompile(`(?:under|below|within|max)\s*(\d+)\s*min`)
	secondsPattern  = regexp.MustCompile(`(?:under|below|within|max)\s*(\d+)\s*sec`)
	scopeNumPattern = regexp.MustCompile(`(?:only|just|reduce to|limit to)\s*(\d+)`)
)

// maxOptionLetters is how many options get a letter label (A-H).
const maxOptionLetters = 8

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ParseInput classifies a follow-up reply. numOptions bounds option
// selection; an out-of-range letter or number is not an accept. Rules are
// tried in a fixed order and the first match wins.
func ParseInput(text string, numOptions int) ParsedIntent {
	p := parseInput(text, numOptions)
	logging.PerceptionDebug("parsed %q -> %s", text, p.Intent)
	return p
}

func parseInput(text string, numOptions int) ParsedIntent {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return ParsedIntent{Intent: IntentUnknown}
	}
	if quitWords[lower] {
		return ParsedIntent{Intent: IntentQuit}
	}
	if acceptWords[lower] {
		return ParsedIntent{Intent: IntentAccept}
	}
	if containsAny(lower, showKeywords) {
		return withValue(IntentUnknown, ShowOptionsValue)
	}

	if m := optionPattern.FindStringSubmatch(lower); m != nil {
		if idx, ok := optionIndex(m[1]); ok && idx < numOptions {
			return ParsedIntent{Intent: IntentAccept, ChosenIndex: &idx}
		}
	}

	if m := budgetPattern.FindStringSubmatch(lower); m != nil {
		return withValue(IntentAdjustBudget, number(m[1]))
	}
	if m := dollarPattern.FindStringSubmatch(lower); m != nil {
		return withValue(IntentAdjustBudget, number(m[1]))
	}
	if containsAny(lower, budgetKeywords) {
		return ParsedIntent{Intent: IntentAdjustBudget}
	}

	if m := qualityPattern.FindStringSubmatch(lower); m != nil {
		return withValue(IntentAdjustQuality, number(m[1])/100)
	}
	if containsAny(lower, qualityKeywords) {
		return ParsedIntent{Intent: IntentAdjustQuality}
	}

	if m := minutesPattern.FindStringSubmatch(lower); m != nil {
		return withValue(IntentAdjustTime, number(m[1])*60)
	}
	if m := secondsPattern.FindStringSubmatch(lower); m != nil {
		return withValue(IntentAdjustTime, number(m[1]))
	}
	if containsAny(lower, timeKeywords) {
		return ParsedIntent{Intent: IntentAdjustTime}
	}

	if m := scopeNumPattern.FindStringSubmatch(lower); m != nil {
		return withValue(IntentAdjustScope, number(m[1]))
	}

	return ParsedIntent{Intent: IntentUnknown}
}

// optionIndex maps "a".."h" and "1".."n" to a zero-based index.
func optionIndex(s string) (int, bool) {
	if len(s) == 1 && s[0] >= 'a' && s[0] < 'a'+byte(maxOptionLetters) {
		return int(s[0] - 'a'), true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// OptionLabel is the letter shown for the option at idx ("A".."H"), or its
// 1-based number past the eighth.
func OptionLabel(idx int) string {
	if idx >= 0 && idx < maxOptionLetters {
		return string(rune('A' + idx))
	}
	return strconv.Itoa(idx + 1)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func number(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func withValue(intent Intent, v float64) ParsedIntent {
	return ParsedIntent{Intent: intent, Value: &v}
}
