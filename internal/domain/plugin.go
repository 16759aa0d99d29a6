package domain

import (
	"fmt"
	"strings"
)

// Progress is a best-effort status update from a running tool.
// Percentage is nil when the tool does not report one.
type Progress struct {
	Percentage *float64
	Message    string
}

// String renders "42.0% message" or just the message.
func (p Progress) String() string {
	if p.Percentage == nil {
		return p.Message
	}
	return fmt.Sprintf("%.1f%% %s", *p.Percentage, p.Message)
}

// Percent is a helper for building a Progress with a percentage.
func Percent(value float64, message string) Progress {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return Progress{Percentage: &value, Message: message}
}

// DiffItem is one rename/change record in a preview.
type DiffItem struct {
	Original string
	New      string
	Status   string
}

// Preview is what a dry run shows before execution: either free text or a diff list.
type Preview struct {
	Text  string
	Diffs []DiffItem
	// IsDiff distinguishes an empty diff list from an empty text preview.
	IsDiff bool
}

// TextPreview builds a plain-text preview.
func TextPreview(text string) Preview {
	return Preview{Text: text}
}

// DiffPreview builds a diff-list preview.
func DiffPreview(items []DiffItem) Preview {
	return Preview{Diffs: items, IsDiff: true}
}

// Render flattens the preview into log-friendly text.
func (p Preview) Render() string {
	if !p.IsDiff {
		return p.Text
	}
	if len(p.Diffs) == 0 {
		return "No changes detected."
	}
	var lines []string
	for i, d := range p.Diffs {
		lines = append(lines, fmt.Sprintf("FILE %02d", i+1))
		if d.Status != "" {
			lines = append(lines, "status="+d.Status)
		}
		lines = append(lines, "old="+d.Original, "new="+d.New, "")
	}
	return strings.Join(lines, "\n")
}
