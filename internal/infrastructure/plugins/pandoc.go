package plugins

import (
	"context"
	"regexp"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

var pandocFilterRe = regexp.MustCompile(`(?i)^--(lua-)?filter(=|$)`)

const pandocExplainPrompt = "You are a clear and concise command explainer for Dexter. " +
	"Describe what this pandoc command will do in simple terms. " +
	"Mention input file(s), output file, and the output format. " +
	"If output is PDF, mention that a TeX engine may be required. Output plain text only."

// PandocPlugin wraps the pandoc document converter.
type PandocPlugin struct {
	runner *Runner
}

// NewPandocPlugin builds the pandoc adapter.
func NewPandocPlugin(runner *Runner) *PandocPlugin {
	return &PandocPlugin{runner: runner}
}

func (p *PandocPlugin) Name() string { return "pandoc" }

func (p *PandocPlugin) Description() string {
	return "A universal document converter (Markdown/DOCX/HTML/PDF and more)."
}

func (p *PandocPlugin) DocForRouter() string {
	return "Best for converting documents between formats (Markdown/DOCX/HTML/PDF) and generating PDF/Word/HTML from Markdown."
}

func (p *PandocPlugin) DocForExecutor() string {
	return `pandoc Command Usage:
- Markdown -> PDF: pandoc input.md -o output.pdf
- Markdown -> DOCX: pandoc input.md -o output.docx
- DOCX -> Markdown: pandoc input.docx -o output.md
- Markdown -> HTML: pandoc input.md -t html -o output.html

Notes:
1. Always specify output with -o/--output. Do NOT use shell redirection (>).
2. Do NOT use --filter or --lua-filter (blocked for safety).
3. Do NOT use - as an input or output filename.
4. PDF output may require a TeX engine (e.g. MacTeX/TeX Live) to be installed.`
}

// ValidateCommand requires an explicit output file and rejects filters and stdio.
func (p *PandocPlugin) ValidateCommand(cmd string) bool {
	argv, err := ParseCommand(cmd, "pandoc")
	if err != nil {
		return false
	}
	for _, a := range argv[1:] {
		if a == "-" || pandocFilterRe.MatchString(a) {
			return false
		}
	}
	out, ok := pandocOutputPath(argv)
	return ok && out != "-" && strings.TrimSpace(out) != ""
}

func (p *PandocPlugin) DryRun(ctx context.Context, cmd string, bridge ports.LLMBridge) (domain.Preview, error) {
	return explain(ctx, bridge, pandocExplainPrompt, "Executing document conversion", cmd)
}

func (p *PandocPlugin) ExecuteWithProgress(ctx context.Context, cmd string, progress ports.ProgressSender) (string, error) {
	argv, err := ParseCommand(cmd, "pandoc")
	if err != nil {
		return "", err
	}
	progress.Send(domain.Progress{Message: "Converting document..."})
	stdout, stderr, err := p.runner.Run(ctx, argv)
	if err != nil {
		return "", err
	}
	return combineOutput(stdout, stderr), nil
}

func (p *PandocPlugin) IsInstalled(ctx context.Context) bool {
	return p.runner.Available(ctx, "pandoc", "--version")
}

func (p *PandocPlugin) InstallHint() string {
	return "brew install pandoc  (PDF output also needs a TeX engine)"
}

// pandocOutputPath accepts "-o out", "--output out", "--output=out" and "-oout".
func pandocOutputPath(argv []string) (string, bool) {
	for i, a := range argv {
		switch {
		case a == "-o" || a == "--output":
			if i+1 < len(argv) {
				return argv[i+1], true
			}
			return "", false
		case strings.HasPrefix(a, "--output="):
			return strings.TrimPrefix(a, "--output="), true
		case strings.HasPrefix(a, "-o") && len(a) > 2:
			return a[2:], true
		}
	}
	return "", false
}

var (
	_ ports.Plugin      = (*PandocPlugin)(nil)
	_ ports.Installable = (*PandocPlugin)(nil)
)
