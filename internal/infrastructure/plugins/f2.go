package plugins

import (
	"context"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

// F2Plugin wraps the f2 batch renamer.
type F2Plugin struct {
	runner *Runner
}

// NewF2Plugin builds the f2 adapter.
func NewF2Plugin(runner *Runner) *F2Plugin {
	return &F2Plugin{runner: runner}
}

func (p *F2Plugin) Name() string { return "f2" }

func (p *F2Plugin) Description() string {
	return "A fast, safe, and powerful batch renamer."
}

func (p *F2Plugin) DocForRouter() string {
	return "Best for batch renaming files and directories using search and replace or regex."
}

func (p *F2Plugin) DocForExecutor() string {
	return `f2 Command Usage:
- Simple find and replace: f2 -f "find" -r "replace"
- Regex find and replace: f2 -f "regexp" -r "replacement"
- Target specific file: f2 -f "find" -r "replace" "filename.txt"
- Preview changes: f2 -f "..." -r "..." (default shows preview)
- Execute changes: f2 -f "..." -r "..." -x

Notes:
1. Always include -x to apply the changes, otherwise f2 only shows a preview.
2. For maximum precision, include the specific filename as a trailing argument.
3. f2 supports full regular expressions in the -f pattern by default.
4. Never use shell pipes, redirection or command chaining.`
}

func (p *F2Plugin) ValidateCommand(cmd string) bool {
	_, err := ParseCommand(cmd, "f2")
	return err == nil
}

// DryRun runs f2 without its execute flag and turns the rename table into diffs.
func (p *F2Plugin) DryRun(ctx context.Context, cmd string, _ ports.LLMBridge) (domain.Preview, error) {
	argv, err := ParseCommand(cmd, "f2")
	if err != nil {
		return domain.Preview{}, err
	}
	argv = withoutArgs(argv, "-x", "-X", "--exec")
	if !containsArg(argv, "--no-color") {
		argv = append(argv, "--no-color")
	}

	stdout, stderr, err := p.runner.Run(ctx, argv)
	if err != nil {
		return domain.Preview{}, err
	}
	output := stdout + stderr
	if diffs := parseRenameTable(output); len(diffs) > 0 {
		return domain.DiffPreview(diffs), nil
	}
	if strings.TrimSpace(output) == "" {
		return domain.DiffPreview(nil), nil
	}
	return domain.TextPreview(output), nil
}

// ExecuteWithProgress applies the rename, adding -x when the command lacks it.
func (p *F2Plugin) ExecuteWithProgress(ctx context.Context, cmd string, progress ports.ProgressSender) (string, error) {
	argv, err := ParseCommand(cmd, "f2")
	if err != nil {
		return "", err
	}
	if !containsArg(argv, "-x", "--exec") {
		argv = append(argv, "-x")
	}
	if !containsArg(argv, "--no-color") {
		argv = append(argv, "--no-color")
	}

	progress.Send(domain.Progress{Message: "Renaming files..."})
	stdout, stderr, err := p.runner.Run(ctx, argv)
	if err != nil {
		return "", err
	}
	progress.Send(domain.Percent(100, "Rename complete"))
	return combineOutput(stdout, stderr), nil
}

func (p *F2Plugin) IsInstalled(ctx context.Context) bool {
	return p.runner.Available(ctx, "f2", "--version")
}

func (p *F2Plugin) InstallHint() string {
	return "brew install f2  (or: go install github.com/ayoisaiah/f2/v2/cmd/f2@latest)"
}

func withoutArgs(argv []string, drop ...string) []string {
	out := make([]string, 0, len(argv))
	for _, a := range argv {
		if !containsArg([]string{a}, drop...) {
			out = append(out, a)
		}
	}
	return out
}

// parseRenameTable reads f2's preview table. Rows look like
// "| old.txt | new.txt | ok |"; box-drawing separators are accepted too.
func parseRenameTable(output string) []domain.DiffItem {
	var items []domain.DiffItem
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "│", "|"))
		if !strings.HasPrefix(line, "|") {
			continue
		}
		var cells []string
		for _, cell := range strings.Split(strings.Trim(line, "|"), "|") {
			cells = append(cells, strings.TrimSpace(cell))
		}
		if len(cells) < 2 || strings.EqualFold(cells[0], "ORIGINAL") {
			continue
		}
		if strings.Trim(cells[0], "-+=─") == "" {
			continue
		}
		item := domain.DiffItem{Original: cells[0], New: cells[1]}
		if len(cells) > 2 {
			item.Status = cells[2]
		}
		items = append(items, item)
	}
	return items
}

var (
	_ ports.Plugin      = (*F2Plugin)(nil)
	_ ports.Installable = (*F2Plugin)(nil)
)
