package plugins

import (
	"context"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

var qpdfBlockedFlags = []string{"--replace-input", "--allow-weak-crypto", "--allow-insecure"}

const qpdfExplainPrompt = "You are a clear and concise command explainer for Dexter. " +
	"Describe what this qpdf command will do in plain language. Mention input/output files, " +
	"whether it checks, linearizes, decrypts, encrypts, or selects pages. Output plain text only."

// QpdfPlugin wraps qpdf for structural PDF work.
type QpdfPlugin struct {
	runner *Runner
}

// NewQpdfPlugin builds the qpdf adapter.
func NewQpdfPlugin(runner *Runner) *QpdfPlugin {
	return &QpdfPlugin{runner: runner}
}

func (p *QpdfPlugin) Name() string { return "qpdf" }

func (p *QpdfPlugin) Description() string {
	return "PDF structural transformations: check, linearize, encrypt/decrypt, and page selection."
}

func (p *QpdfPlugin) DocForRouter() string {
	return "Best for PDF structural operations: validation checks, web linearization, page extraction/merge, and encryption/decryption."
}

func (p *QpdfPlugin) DocForExecutor() string {
	return `qpdf Command Usage:
- Check PDF syntax/structure: qpdf --check input.pdf
- Linearize for web viewing: qpdf --linearize input.pdf output.pdf
- Decrypt using password: qpdf --password=secret --decrypt input.pdf output.pdf
- Encrypt (256-bit only): qpdf --encrypt --user-password=u --owner-password=o --bits=256 -- input.pdf output.pdf
- Extract/merge pages: qpdf --empty --pages a.pdf b.pdf 1-z:even -- out.pdf

Safety Constraints:
1. Do NOT use --replace-input.
2. Do NOT use --allow-weak-crypto or --allow-insecure.
3. Do NOT use @argfile syntax (e.g. @args.txt).
4. For --pages commands, include -- to terminate page-selection arguments.
5. Encryption must use --bits=256.
6. --check only inspects its input; do not combine it with a transformation.`
}

// ValidateCommand limits qpdf to check, linearize, decrypt, encrypt (256-bit)
// and page selection, never mixing --check with a transformation.
func (p *QpdfPlugin) ValidateCommand(cmd string) bool {
	argv, err := ParseCommand(cmd, "qpdf")
	if err != nil || hasArgFile(argv) || containsFlag(argv, qpdfBlockedFlags...) {
		return false
	}

	check := containsArg(argv, "--check")
	linearize := containsArg(argv, "--linearize")
	decrypt := containsArg(argv, "--decrypt")
	encrypt := containsArg(argv, "--encrypt")
	pages := containsArg(argv, "--pages")

	switch {
	case !check && !linearize && !decrypt && !encrypt && !pages:
		return false
	case check && (linearize || decrypt || encrypt || pages):
		return false
	case encrypt && !qpdfStrongBits(argv):
		return false
	case pages && !containsArg(argv, "--"):
		return false
	}
	return true
}

func (p *QpdfPlugin) DryRun(ctx context.Context, cmd string, bridge ports.LLMBridge) (domain.Preview, error) {
	return explain(ctx, bridge, qpdfExplainPrompt, "Executing PDF structure command", cmd)
}

func (p *QpdfPlugin) ExecuteWithProgress(ctx context.Context, cmd string, progress ports.ProgressSender) (string, error) {
	argv, err := ParseCommand(cmd, "qpdf")
	if err != nil {
		return "", err
	}
	progress.Send(domain.Progress{Message: qpdfPhase(argv)})
	stdout, stderr, err := p.runner.Run(ctx, argv)
	if err != nil {
		return "", err
	}
	return combineOutput(stdout, stderr), nil
}

func (p *QpdfPlugin) IsInstalled(ctx context.Context) bool {
	return p.runner.Available(ctx, "qpdf", "--version")
}

func (p *QpdfPlugin) InstallHint() string {
	return "brew install qpdf  (Debian/Ubuntu: apt install qpdf)"
}

func qpdfStrongBits(argv []string) bool {
	bits, ok := flagValue(argv, "--bits", "--bits")
	return ok && bits == "256"
}

func qpdfPhase(argv []string) string {
	switch {
	case containsArg(argv, "--check"):
		return "Checking PDF structure..."
	case containsArg(argv, "--linearize"):
		return "Linearizing PDF..."
	case containsArg(argv, "--decrypt"):
		return "Decrypting PDF..."
	case containsArg(argv, "--encrypt"):
		return "Encrypting PDF (256-bit)..."
	case containsArg(argv, "--pages"):
		return "Selecting/merging PDF pages..."
	}
	return "Processing PDF with qpdf..."
}

var (
	_ ports.Plugin      = (*QpdfPlugin)(nil)
	_ ports.Installable = (*QpdfPlugin)(nil)
)
