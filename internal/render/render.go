package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"maestro/internal/perception"
	"maestro/internal/preferences"
	"maestro/internal/types"
)

// Renderer turns domain values into terminal text.
type Renderer struct {
	st       Styles
	markdown *glamour.TermRenderer
}

// New returns a renderer for w: styled with glamour markdown when w is a
// terminal, plain otherwise.
func New(w io.Writer) *Renderer {
	if !IsTerminal(w) {
		return Plain()
	}
	r := &Renderer{st: NewStyles(true)}
	md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err == nil {
		r.markdown = md
	}
	return r
}

// Plain returns an unstyled renderer.
func Plain() *Renderer {
	return &Renderer{st: NewStyles(false)}
}

// Styles exposes the renderer's styles.
func (r *Renderer) Styles() Styles { return r.st }

// =============================================================================
// CONVERSATION
// =============================================================================

// Welcome is the banner shown when the interactive session starts.
func (r *Renderer) Welcome() string {
	box := r.st.Banner.Render(r.st.Title.Render("Maestro") + "\n" + r.st.Muted.Render("Intelligent AI Tool Orchestration"))
	return "\n" + box + "\n  Describe a task (scraping, data analysis, or API integration), and I'll show you the best approach.\n"
}

// PromptLabel is the input prompt.
func (r *Renderer) PromptLabel() string {
	return r.st.Prompt.Render("Maestro>") + " "
}

// Dim renders secondary text indented by two spaces.
func (r *Renderer) Dim(text string) string {
	return "  " + r.st.Muted.Render(text)
}

// Warn renders a warning indented by two spaces.
func (r *Renderer) Warn(text string) string {
	return "  " + r.st.Warning.Render(text)
}

// Heading renders an emphasized section line.
func (r *Renderer) Heading(text string) string {
	return "  " + r.st.Accent.Render(text)
}

// Unrecognized explains which kinds of tasks are supported.
func (r *Renderer) Unrecognized() string {
	return "\n" + r.Warn("I can help with scraping, data analysis, and API integration tasks.") + "\n" +
		"  Try: 'Scrape 100 dive shop websites', 'Analyze 500 rows of customer data',\n" +
		"  or 'Fetch pricing from 20 hotel booking APIs'\n"
}

// Understood echoes back how a task was read.
func (r *Renderer) Understood(task types.Task) string {
	var line string
	switch task.Category {
	case types.CategoryAnalysis:
		line = fmt.Sprintf("Understood: analyze %d rows of %s", task.Count(), task.ParamOr(types.ParamSource, "data"))
		if v := task.Param(types.ParamAnalysisType); v != "" {
			line += " for " + v
		}
	case types.CategoryAPI:
		line = fmt.Sprintf("Understood: call %d %s APIs", task.Count(), task.ParamOr(types.ParamSource, "service"))
		if v := task.Param(types.ParamTarget); v != "" {
			line += " for " + v
		}
	default:
		line = fmt.Sprintf("Understood: scrape %d %s", task.Count(), task.ParamOr(types.ParamDomain, "websites"))
		if v := task.Param(types.ParamTarget); v != "" {
			line += " for " + v
		}
	}
	return "\n" + r.Dim(line)
}

// ScopePrompt asks for a count after a scope change without one.
func (r *Renderer) ScopePrompt(noun string) string {
	return "\n" + r.Warn(fmt.Sprintf("How many %s? (e.g., 'only 50')", noun))
}

// InvalidCount is shown for a non-positive count.
func (r *Renderer) InvalidCount() string {
	return "\n" + r.Warn("Count must be a positive number. Please try again.") + "\n"
}

// =============================================================================
// OPTIONS
// =============================================================================

// Recommendation shows the recommended option and points at the others.
func (r *Renderer) Recommendation(options []types.Option) string {
	idx := types.Recommended(options)
	if idx < 0 {
		return ""
	}
	rec := options[idx]
	lines := []string{
		"",
		"  " + r.st.Bold.Render("Here's my recommendation:"),
		"",
		"  Strategy: " + rec.Strategy,
		"",
	}
	lines = append(lines, r.Metrics(rec, 4)...)
	lines = append(lines, "")
	if len(options) > 1 {
		lines = append(lines,
			"  Other strategies available. Say 'show options' to compare, or adjust",
			"  constraints like 'under $1' or 'faster'.")
	}
	lines = append(lines, "", "  Proceed with this approach? (yes / show options / adjust)")
	return strings.Join(lines, "\n")
}

// Options lists every option with a letter label.
func (r *Renderer) Options(options []types.Option) string {
	lines := []string{"", "  " + r.st.Bold.Render("Here are your options:"), ""}
	for i, o := range options {
		head := fmt.Sprintf("  Option %s: %s", perception.OptionLabel(i), r.st.Bold.Render(o.Name))
		if o.Recommended {
			head += " " + r.st.Accent.Render("⭐ Recommended")
		}
		lines = append(lines, head, "    "+o.Strategy)
		lines = append(lines, r.Metrics(o, 4)...)
		if o.Explanation != "" {
			lines = append(lines, "    "+r.st.Muted.Render("ℹ️  "+o.Explanation))
		}
		lines = append(lines, "")
	}
	lines = append(lines, "  Which option? (A/B/C/... or adjust constraints)")
	return strings.Join(lines, "\n")
}

// Metrics renders cost, quality and time with a pass or warning marker each.
func (r *Renderer) Metrics(o types.Option, indent int) []string {
	pad := strings.Repeat(" ", indent)
	ok := r.st.Success.Render("✅")
	warn := func(s string) string { return r.st.Warning.Render("⚠️ " + s) }

	cost := fmt.Sprintf("%s💰 Cost: $%.2f  ", pad, o.Cost)
	if v, found := o.Violation(types.KindBudget); found {
		cost += warn(fmt.Sprintf("$%.2f over budget", v.Actual-v.Limit))
	} else {
		cost += ok
	}

	quality := fmt.Sprintf("%s✨ Quality: %.0f%%  ", pad, o.Quality*100)
	if v, found := o.Violation(types.KindQuality); found {
		quality += warn(fmt.Sprintf("%.0f%% below minimum", v.DeltaPct))
	} else {
		quality += ok
	}

	elapsed := fmt.Sprintf("%s⏱️  Time: %s  ", pad, FormatTime(o.TimeSeconds))
	if _, found := o.Violation(types.KindTime); found {
		elapsed += warn("over time limit")
	} else {
		elapsed += ok
	}
	return []string{cost, quality, elapsed}
}

// OptionTable is the compact one-shot view used by the estimate command.
func (r *Renderer) OptionTable(title string, options []types.Option) string {
	t := NewTable(title, "", "Option", "Cost", "Quality", "Time", "Status", "Tools")
	for i, o := range options {
		name := o.Name
		if o.Recommended {
			name += " *"
		}
		t.AddRow(
			perception.OptionLabel(i),
			name,
			fmt.Sprintf("$%.2f", o.Cost),
			fmt.Sprintf("%.0f%%", o.Quality*100),
			FormatTime(o.TimeSeconds),
			string(o.Status),
			strings.Join(o.Tools, "+"),
		)
	}
	return t.View(r.st)
}

// FormatTime renders seconds as "45s", "2 min" or "2m 3s".
func FormatTime(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	m, s := seconds/60, seconds%60
	if s == 0 {
		return fmt.Sprintf("%d min", m)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}

// =============================================================================
// AFTER THE CHOICE
// =============================================================================

// ExecutionSummary reports the outcome of a simulated run.
func (r *Renderer) ExecutionSummary(res types.ExecutionResult) string {
	status := r.st.Success.Bold(true).Render("Complete!")
	if !res.Success {
		status = r.st.Error.Render("Completed with issues")
	}
	lines := []string{
		"",
		"  ✅ " + status,
		fmt.Sprintf("    💰 Final cost: %s", r.st.Success.Render(fmt.Sprintf("$%.2f", res.ActualCost))),
		fmt.Sprintf("    ✨ Quality: %s (%d/%d successful)", r.st.Success.Render(fmt.Sprintf("%.0f%%", res.ActualQuality*100)), res.UnitsSucceeded, res.UnitsProcessed),
		fmt.Sprintf("    ⏱️  Time: %s", r.st.Success.Render(fmt.Sprintf("%dm %ds", res.ActualTimeSeconds/60, res.ActualTimeSeconds%60))),
		"",
		"  Results saved to: " + res.OutputFile,
	}
	return strings.Join(lines, "\n")
}

// PreferenceSummary renders what the history says about the user.
func (r *Renderer) PreferenceSummary(s preferences.Summary) string {
	if s.TotalChoices == 0 {
		return r.Dim("No choices recorded yet.")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s\n\n", r.st.Bold.Render("Learned preferences"))
	fmt.Fprintf(&sb, "    Choices recorded:   %d\n", s.TotalChoices)
	fmt.Fprintf(&sb, "    Average cost:       $%.2f\n", s.AvgCost)
	fmt.Fprintf(&sb, "    Budget preference:  %.0f%%\n", s.BudgetPreference*100)
	fmt.Fprintf(&sb, "    Quality preference: %.0f%%\n", s.QualityPreference*100)
	for _, p := range s.Patterns {
		fmt.Fprintf(&sb, "    • %s\n", p)
	}

	names := append(append([]string(nil), types.StrategyNames...), types.NameScopeReduction)
	t := NewTable("", "Category", "Option", "Chosen")
	for _, c := range s.Categories() {
		for _, name := range names {
			if n := s.ByCategory[c][name]; n > 0 {
				t.AddRow(string(c), name, fmt.Sprint(n))
			}
		}
	}
	if view := t.View(r.st); view != "" {
		sb.WriteString("\n")
		sb.WriteString(view)
	}
	return sb.String()
}
