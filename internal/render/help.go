package render

import "strings"

const helpMarkdown = `I didn't understand that. You can:

- Say **yes** to proceed
- Say **show options** to see alternatives
- Adjust: **under $1**, **faster**, **better quality**, **only 50 sites**
- Pick an option: **A**, **B**, **C**...
- Say **quit** to cancel
`

// Help explains the replies the negotiation understands. It is rendered as
// markdown on a terminal and as plain bullets elsewhere.
func (r *Renderer) Help() string {
	if r.markdown != nil {
		if out, err := r.markdown.Render(helpMarkdown); err == nil {
			return out
		}
	}
	lines := strings.Split(strings.TrimSpace(helpMarkdown), "\n")
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(r.Warn(lines[0]))
	for _, l := range lines[1:] {
		if l == "" {
			continue
		}
		sb.WriteString("\n    • ")
		sb.WriteString(strings.ReplaceAll(strings.TrimPrefix(l, "- "), "**", ""))
	}
	sb.WriteString("\n")
	return sb.String()
}
