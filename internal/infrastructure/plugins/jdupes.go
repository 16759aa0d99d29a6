package plugins

import (
	"context"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

var (
	// jdupesBlockedFlags link, dedupe or skip the full-content comparison.
	jdupesBlockedFlags = []string{
		"-l", "--link-soft", "-L", "--link-hard", "-B", "--dedupe",
		"-Q", "--quick", "-T", "--partial-only", "-t", "--no-change-check", "-U", "--no-trav-check",
	}
	jdupesValueFlags = map[string]bool{
		"-C": true, "--chunk-size": true, "-o": true, "--order": true,
		"-P": true, "--print": true, "-X": true, "--ext-filter": true, "-y": true, "--hash-db": true,
	}
)

const jdupesExplainPrompt = "You are a clear and concise command explainer for Dexter. " +
	"Describe what this jdupes command will scan, whether it is recursive, and whether it only reports " +
	"duplicates or deletes duplicates (controlled -d -N mode). Output plain text only."

// JdupesPlugin wraps the jdupes duplicate finder.
type JdupesPlugin struct {
	runner *Runner
}

// NewJdupesPlugin builds the jdupes adapter.
func NewJdupesPlugin(runner *Runner) *JdupesPlugin {
	return &JdupesPlugin{runner: runner}
}

func (p *JdupesPlugin) Name() string { return "jdupes" }

func (p *JdupesPlugin) Description() string {
	return "Find duplicate files quickly with safe scan/summary workflows and optional controlled delete mode."
}

func (p *JdupesPlugin) DocForRouter() string {
	return "Best for scanning directories to find duplicate files, summarize duplicate size, report unique files, and optionally delete duplicates in controlled mode."
}

func (p *JdupesPlugin) DocForExecutor() string {
	return `jdupes Command Usage:
- Scan current directory recursively: jdupes -r .
- Summarize duplicates only: jdupes -r -m ~/Downloads
- Print duplicate sizes: jdupes -r -S ~/Pictures
- Print unique files only: jdupes -r -u ~/Documents
- JSON output: jdupes -r -j ~/Media
- Controlled delete mode: jdupes -r -d -N ~/Downloads

Safety Constraints:
1. If using delete mode, -d/--delete MUST be paired with -N/--no-prompt.
2. Do NOT use linking/dedupe actions: -l/--link-soft, -L/--link-hard, -B/--dedupe.
3. Do NOT use speed shortcuts: -Q/--quick, -T/--partial-only, -t/--no-change-check, -U/--no-trav-check.
4. Always include at least one explicit target path or directory.`
}

// ValidateCommand needs a target path, pairs delete with no-prompt both ways,
// and rejects linking and shortcut flags.
func (p *JdupesPlugin) ValidateCommand(cmd string) bool {
	argv, err := ParseCommand(cmd, "jdupes")
	if err != nil || hasArgFile(argv) || !jdupesHasTarget(argv) {
		return false
	}
	if containsArg(argv, "-d", "--delete") != containsArg(argv, "-N", "--no-prompt") {
		return false
	}
	return !containsFlag(argv, jdupesBlockedFlags...)
}

func (p *JdupesPlugin) DryRun(ctx context.Context, cmd string, bridge ports.LLMBridge) (domain.Preview, error) {
	return explain(ctx, bridge, jdupesExplainPrompt, "Executing duplicate scan command", cmd)
}

func (p *JdupesPlugin) ExecuteWithProgress(ctx context.Context, cmd string, progress ports.ProgressSender) (string, error) {
	argv, err := ParseCommand(cmd, "jdupes")
	if err != nil {
		return "", err
	}
	phase := "Scanning for duplicate files..."
	if containsArg(argv, "-d", "--delete") {
		phase = "Deleting duplicate files (preserve-first mode)..."
	}
	progress.Send(domain.Progress{Message: phase})
	stdout, stderr, err := p.runner.Run(ctx, argv)
	if err != nil {
		return "", err
	}
	return combineOutput(stdout, stderr), nil
}

func (p *JdupesPlugin) IsInstalled(ctx context.Context) bool {
	return p.runner.Available(ctx, "jdupes", "--version")
}

func (p *JdupesPlugin) InstallHint() string {
	return "brew install jdupes  (Debian/Ubuntu: apt install jdupes)"
}

// jdupesHasTarget skips options and their values and looks for a path operand.
func jdupesHasTarget(argv []string) bool {
	for i := 1; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "--":
			return i+1 < len(argv)
		case jdupesValueFlags[a]:
			i++
		case strings.HasPrefix(a, "-"):
		default:
			return true
		}
	}
	return false
}

var (
	_ ports.Plugin      = (*JdupesPlugin)(nil)
	_ ports.Installable = (*JdupesPlugin)(nil)
)
