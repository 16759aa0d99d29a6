package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/doeshing/dexter/internal/domain"
)

// Renderer turns previews into terminal text. Text previews are markdown
// written by the dry-run explainer.
type Renderer struct {
	markdown *glamour.TermRenderer
}

// NewRenderer builds a renderer wrapping markdown at width columns.
func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		md = nil
	}
	return &Renderer{markdown: md}
}

// Preview renders a dry-run preview.
func (r *Renderer) Preview(p domain.Preview) string {
	if p.IsDiff {
		return renderDiff(p.Diffs)
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return dimStyle.Render("(no preview)")
	}
	if r.markdown == nil {
		return text
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func renderDiff(items []domain.DiffItem) string {
	if len(items) == 0 {
		return dimStyle.Render("No changes detected.")
	}
	lines := make([]string, 0, len(items))
	for _, d := range items {
		line := fmt.Sprintf("%s -> %s", d.Original, commandStyle.Render(d.New))
		if d.Status != "" && d.Status != "ok" {
			line += " " + noticeStyle.Render("["+d.Status+"]")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func stateLabel(kind string) string {
	switch kind {
	case "pending_routing", "routing":
		return "Choosing a tool..."
	case "pending_generation", "generating":
		return "Generating command..."
	case "pending_dry_run", "dry_running":
		return "Previewing command..."
	case "executing":
		return "Executing..."
	}
	return kind
}
