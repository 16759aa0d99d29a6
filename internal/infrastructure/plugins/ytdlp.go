package plugins

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

var ytdlpPercentRe = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)%`)

const ytdlpExplainPrompt = "You are a clear and concise command explainer for Dexter. " +
	"Describe what this yt-dlp command will do in simple terms. " +
	"Mention source URL(s), output naming, and key options. Output plain text only."

// YtDlpPlugin wraps the yt-dlp downloader.
type YtDlpPlugin struct {
	runner *Runner
}

// NewYtDlpPlugin builds the yt-dlp adapter.
func NewYtDlpPlugin(runner *Runner) *YtDlpPlugin {
	return &YtDlpPlugin{runner: runner}
}

func (p *YtDlpPlugin) Name() string { return "yt-dlp" }

func (p *YtDlpPlugin) Description() string {
	return "A feature-rich video/audio downloader with format selection and audio extraction."
}

func (p *YtDlpPlugin) DocForRouter() string {
	return "Best for downloading videos or audio from supported sites, extracting audio, and choosing formats."
}

func (p *YtDlpPlugin) DocForExecutor() string {
	return `yt-dlp Command Usage:
- Download best available: yt-dlp "https://example.com/video"
- Save with template: yt-dlp -o "%(title)s.%(ext)s" "https://example.com/video"
- Choose format: yt-dlp -f "bv*+ba/b" "https://example.com/video"
- Extract audio to mp3: yt-dlp -x --audio-format mp3 "https://example.com/video"
- Download playlist: yt-dlp -o "%(playlist_index)s - %(title)s.%(ext)s" "https://example.com/playlist"
- Use cookies: yt-dlp --cookies cookies.txt "https://example.com/video"
- Force single video from a playlist: yt-dlp --no-playlist "https://example.com/video"

Notes:
1. Prefer -o for output naming instead of shell redirection.
2. Do NOT add --newline; Dexter adds it during execution.
3. Do NOT use --exec (blocked for safety).`
}

func (p *YtDlpPlugin) ValidateCommand(cmd string) bool {
	argv, err := ParseCommand(cmd, "yt-dlp")
	if err != nil {
		return false
	}
	for _, a := range argv {
		if a == "--exec" || strings.HasPrefix(a, "--exec=") || strings.HasPrefix(a, "--exec-before-download") {
			return false
		}
	}
	return true
}

func (p *YtDlpPlugin) DryRun(ctx context.Context, cmd string, bridge ports.LLMBridge) (domain.Preview, error) {
	return explain(ctx, bridge, ytdlpExplainPrompt, "Executing download command", cmd)
}

// ExecuteWithProgress runs yt-dlp with --newline and forwards its percentages.
func (p *YtDlpPlugin) ExecuteWithProgress(ctx context.Context, cmd string, progress ports.ProgressSender) (string, error) {
	argv, err := ParseCommand(cmd, "yt-dlp")
	if err != nil {
		return "", err
	}
	if !containsArg(argv, "--newline") {
		argv = append(argv, "--newline")
	}

	stdout, stderr, err := p.runner.Stream(ctx, argv, func(line string) {
		if pct, ok := extractPercentage(line); ok {
			progress.Send(domain.Percent(pct, fmt.Sprintf("Downloading: %.1f%%", pct)))
		}
	})
	if err != nil {
		return "", err
	}
	return combineOutput(stdout, stderr), nil
}

func (p *YtDlpPlugin) IsInstalled(ctx context.Context) bool {
	return p.runner.Available(ctx, "yt-dlp", "--version")
}

func (p *YtDlpPlugin) InstallHint() string {
	return "brew install yt-dlp  (or: pipx install yt-dlp)"
}

func extractPercentage(line string) (float64, bool) {
	m := ytdlpPercentRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return max(0, min(v, 100)), true
}

var (
	_ ports.Plugin      = (*YtDlpPlugin)(nil)
	_ ports.Installable = (*YtDlpPlugin)(nil)
)
