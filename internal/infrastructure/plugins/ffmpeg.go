package plugins

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

var (
	ffmpegDurationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
	ffmpegTimeRe     = regexp.MustCompile(`time=\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

const ffmpegExplainPrompt = "You are a playful but precise command explainer for Dexter. " +
	"Describe what this FFmpeg command will do in simple terms. " +
	"Mention input, output, and key transformations. Output plain text only."

// FFmpegPlugin wraps ffmpeg.
type FFmpegPlugin struct {
	runner *Runner
}

// NewFFmpegPlugin builds the ffmpeg adapter.
func NewFFmpegPlugin(runner *Runner) *FFmpegPlugin {
	return &FFmpegPlugin{runner: runner}
}

func (p *FFmpegPlugin) Name() string { return "ffmpeg" }

func (p *FFmpegPlugin) Description() string {
	return "A complete, cross-platform solution to record, convert and stream audio and video."
}

func (p *FFmpegPlugin) DocForRouter() string {
	return "Best for video/audio conversion, resizing, extracting audio, and complex media processing."
}

func (p *FFmpegPlugin) DocForExecutor() string {
	return `ffmpeg Command Usage:
- Convert video format: ffmpeg -i input.mp4 output.mkv
- Extract audio: ffmpeg -i input.mp4 -vn -acodec libmp3lame output.mp3
- Change resolution: ffmpeg -i input.mp4 -vf scale=1280:720 output_720p.mp4
- Fast seek and clip: ffmpeg -ss 00:00:10 -i input.mp4 -t 00:00:30 -c copy output.mp4
- Compress video: ffmpeg -i input.mp4 -vcodec libx265 -crf 28 output.mp4

Important: Always specify the input with -i and the output file at the end.
Never use shell pipes, redirection or command chaining.`
}

func (p *FFmpegPlugin) ValidateCommand(cmd string) bool {
	argv, err := ParseCommand(cmd, "ffmpeg")
	return err == nil && containsArg(argv, "-i")
}

// DryRun explains the command; ffmpeg itself has no preview mode.
func (p *FFmpegPlugin) DryRun(ctx context.Context, cmd string, bridge ports.LLMBridge) (domain.Preview, error) {
	return explain(ctx, bridge, ffmpegExplainPrompt, "Executing media command", cmd)
}

// ExecuteWithProgress runs ffmpeg and reports progress as time= over the input Duration.
func (p *FFmpegPlugin) ExecuteWithProgress(ctx context.Context, cmd string, progress ports.ProgressSender) (string, error) {
	argv, err := ParseCommand(cmd, "ffmpeg")
	if err != nil {
		return "", err
	}
	if !containsArg(argv, "-nostdin") {
		argv = append([]string{argv[0], "-nostdin"}, argv[1:]...)
	}

	tracker := &ffmpegProgress{}
	progress.Send(domain.Progress{Message: "Starting ffmpeg..."})
	stdout, stderr, err := p.runner.Stream(ctx, argv, func(line string) {
		if update, ok := tracker.observe(line); ok {
			progress.Send(update)
		}
	})
	if err != nil {
		return "", err
	}
	return combineOutput(stdout, stderr), nil
}

func (p *FFmpegPlugin) IsInstalled(ctx context.Context) bool {
	return p.runner.Available(ctx, "ffmpeg", "-version")
}

func (p *FFmpegPlugin) InstallHint() string {
	return "brew install ffmpeg  (or your system package manager)"
}

// ffmpegProgress remembers the input duration between stderr lines.
type ffmpegProgress struct {
	mu       sync.Mutex
	duration float64
}

func (t *ffmpegProgress) observe(line string) (domain.Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m := ffmpegDurationRe.FindStringSubmatch(line); m != nil && t.duration == 0 {
		t.duration = clockSeconds(m[1:])
		return domain.Progress{}, false
	}
	m := ffmpegTimeRe.FindStringSubmatch(line)
	if m == nil {
		return domain.Progress{}, false
	}
	elapsed := clockSeconds(m[1:])
	if t.duration <= 0 {
		return domain.Progress{Message: fmt.Sprintf("Processed %.1fs", elapsed)}, true
	}
	pct := elapsed / t.duration * 100
	return domain.Percent(pct, fmt.Sprintf("Encoding: %.1f%%", min(pct, 100))), true
}

func clockSeconds(parts []string) float64 {
	if len(parts) != 3 {
		return 0
	}
	h, _ := strconv.ParseFloat(parts[0], 64)
	m, _ := strconv.ParseFloat(parts[1], 64)
	s, _ := strconv.ParseFloat(parts[2], 64)
	return h*3600 + m*60 + s
}

var (
	_ ports.Plugin      = (*FFmpegPlugin)(nil)
	_ ports.Installable = (*FFmpegPlugin)(nil)
)
