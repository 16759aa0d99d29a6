package plugins

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

var ocrBlockedFlags = []string{
	"--plugin", "--keep-temporary-files", "--invalidate-digital-signatures", "--unpaper-args", "-k",
}

var ocrModes = map[string]bool{"default": true, "force": true, "skip": true, "redo": true}

const ocrmypdfExplainPrompt = "You are a clear and concise command explainer for Dexter. " +
	"Describe what this OCRmyPDF command will do, including OCR mode, language, cleanup options, " +
	"and output artifacts like sidecar files. Output plain text only."

// OcrmypdfPlugin wraps OCRmyPDF.
type OcrmypdfPlugin struct {
	runner *Runner
}

// NewOcrmypdfPlugin builds the OCRmyPDF adapter.
func NewOcrmypdfPlugin(runner *Runner) *OcrmypdfPlugin {
	return &OcrmypdfPlugin{runner: runner}
}

func (p *OcrmypdfPlugin) Name() string { return "ocrmypdf" }

func (p *OcrmypdfPlugin) Description() string {
	return "OCR scanned PDFs into searchable PDF/PDF-A with language and cleanup controls."
}

func (p *OcrmypdfPlugin) DocForRouter() string {
	return "Best for making scanned PDFs searchable with OCR, language selection, deskew/rotation cleanup, and sidecar text extraction."
}

func (p *OcrmypdfPlugin) DocForExecutor() string {
	return `ocrmypdf Command Usage:
- Basic OCR: ocrmypdf input.pdf output.pdf
- OCR with languages: ocrmypdf -l eng+deu input.pdf output.pdf
- Skip pages that already have text: ocrmypdf --skip-text input.pdf output.pdf
- Re-do existing OCR layer: ocrmypdf --redo-ocr input.pdf output.pdf
- Force OCR for all pages: ocrmypdf --force-ocr input.pdf output.pdf
- Rotate + deskew: ocrmypdf --rotate-pages --deskew input.pdf output.pdf
- Generate sidecar text: ocrmypdf --sidecar output.txt input.pdf output.pdf

Safety Constraints:
1. Do NOT use --plugin, -k/--keep-temporary-files, --invalidate-digital-signatures or --unpaper-args.
2. OCR mode flags are mutually exclusive: choose one of force/skip/redo/default.
3. Unless force or redo was asked for, prefer --skip-text.
4. Use input/output file arguments directly (no shell redirection).`
}

// ValidateCommand rejects blocked flags, unknown --mode values and
// conflicting OCR strategies.
func (p *OcrmypdfPlugin) ValidateCommand(cmd string) bool {
	argv, err := ParseCommand(cmd, "ocrmypdf")
	if err != nil || hasArgFile(argv) || containsFlag(argv, ocrBlockedFlags...) {
		return false
	}

	mode, hasMode := ocrMode(argv)
	if hasMode && !ocrModes[mode] {
		return false
	}
	strategies := 0
	for _, selected := range []bool{
		containsArg(argv, "--force-ocr") || mode == "force",
		containsArg(argv, "--skip-text") || mode == "skip",
		containsArg(argv, "--redo-ocr") || mode == "redo",
	} {
		if selected {
			strategies++
		}
	}
	return strategies <= 1
}

func (p *OcrmypdfPlugin) DryRun(ctx context.Context, cmd string, bridge ports.LLMBridge) (domain.Preview, error) {
	return explain(ctx, bridge, ocrmypdfExplainPrompt, "Executing OCR command", cmd)
}

// ExecuteWithProgress runs OCRmyPDF and retries once with --skip-text when
// the input already carries a text layer and no strategy was chosen.
func (p *OcrmypdfPlugin) ExecuteWithProgress(ctx context.Context, cmd string, progress ports.ProgressSender) (string, error) {
	argv, err := ParseCommand(cmd, "ocrmypdf")
	if err != nil {
		return "", err
	}

	progress.Send(domain.Progress{Message: "Running OCRmyPDF..."})
	stdout, stderr, err := p.runner.Stream(ctx, argv, func(line string) {
		if pct, ok := extractPercentage(line); ok {
			progress.Send(domain.Percent(pct, fmt.Sprintf("OCR progress: %.1f%%", pct)))
		}
	})
	if err == nil {
		progress.Send(domain.Progress{Message: "Finalizing OCR output..."})
		return combineOutput(stdout, stderr), nil
	}

	var failure *ExecutionFailure
	if !errors.As(err, &failure) || !shouldRetrySkipText(argv, failure.Stderr) {
		return "", err
	}

	progress.Send(domain.Progress{Message: "Retrying with --skip-text (existing text layer detected)..."})
	retryOut, retryErr, err := p.runner.Run(ctx, withSkipText(argv))
	if err != nil {
		return "", fmt.Errorf("ocrmypdf failed again with --skip-text: %w", err)
	}
	return "Initial run failed due to existing text layer; retried with --skip-text.\n" +
		combineOutput(retryOut, retryErr), nil
}

func (p *OcrmypdfPlugin) IsInstalled(ctx context.Context) bool {
	return p.runner.Available(ctx, "ocrmypdf", "--version")
}

func (p *OcrmypdfPlugin) InstallHint() string {
	return "brew install ocrmypdf  (or: pipx install ocrmypdf)"
}

// ocrMode returns the --mode/-m value, if the flag is present.
func ocrMode(argv []string) (string, bool) {
	for i, a := range argv {
		if a == "--mode" || a == "-m" {
			if i+1 < len(argv) {
				return argv[i+1], true
			}
			return "", true
		}
		if v, ok := strings.CutPrefix(a, "--mode="); ok {
			return v, true
		}
	}
	return "", false
}

func shouldRetrySkipText(argv []string, stderr string) bool {
	if containsArg(argv, "--skip-text", "--force-ocr", "--redo-ocr") {
		return false
	}
	if mode, _ := ocrMode(argv); mode == "force" || mode == "redo" {
		return false
	}
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "already has text") ||
		strings.Contains(lower, "priorocrfounderror") ||
		strings.Contains(lower, "use --skip-text")
}

func withSkipText(argv []string) []string {
	out := make([]string, 0, len(argv)+1)
	out = append(out, argv[0], "--skip-text")
	return append(out, argv[1:]...)
}

var (
	_ ports.Plugin      = (*OcrmypdfPlugin)(nil)
	_ ports.Installable = (*OcrmypdfPlugin)(nil)
)
