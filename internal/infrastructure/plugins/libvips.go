package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

var vipsOperations = map[string]bool{
	"thumbnail":    true,
	"resize":       true,
	"crop":         true,
	"rot":          true,
	"flip":         true,
	"flop":         true,
	"autorot":      true,
	"copy":         true,
	"embed":        true,
	"extract_area": true,
}

const libvipsExplainPrompt = "You are a clear and concise command explainer for Dexter. " +
	"Describe what this libvips command will do, including operation type (resize/crop/rotate/thumbnail), " +
	"input files, output files, and sizing parameters. Output plain text only."

// LibvipsPlugin wraps the vips and vipsthumbnail image tools.
type LibvipsPlugin struct {
	runner *Runner
}

// NewLibvipsPlugin builds the libvips adapter.
func NewLibvipsPlugin(runner *Runner) *LibvipsPlugin {
	return &LibvipsPlugin{runner: runner}
}

func (p *LibvipsPlugin) Name() string { return "libvips" }

func (p *LibvipsPlugin) Description() string {
	return "High-performance image processing with vips/vipsthumbnail for resize, crop, rotate, and conversion workflows."
}

func (p *LibvipsPlugin) DocForRouter() string {
	return "Best for fast image resize/crop/rotate/thumbnail/conversion workflows using vips or vipsthumbnail."
}

func (p *LibvipsPlugin) DocForExecutor() string {
	return `libvips Command Usage:
- Resize image: vips resize input.jpg output.jpg 0.5
- Smart thumbnail: vips thumbnail input.jpg output.jpg 512
- Crop region: vips crop input.jpg output.jpg 100 80 640 480
- Auto rotate by EXIF: vips autorot input.jpg output.jpg
- Convert format: vips copy input.jpg output.png
- Batch thumbnail with output pattern: vipsthumbnail input.jpg -s 256 -o tn_%s.jpg

Safety Constraints:
1. Use vips with an explicit operation and file paths, or vipsthumbnail with explicit -o/--output.
2. Do NOT use descriptor-based stdin/stdout forms like [descriptor=0].
3. Limit vips operations to: thumbnail/resize/crop/rot/flip/flop/autorot/copy/embed/extract_area.
4. Do NOT use shell redirection; keep all IO in command arguments.`
}

// ValidateCommand allows an allowlisted vips operation with input and output,
// or vipsthumbnail with an explicit output pattern. Descriptor IO is rejected.
func (p *LibvipsPlugin) ValidateCommand(cmd string) bool {
	argv, err := parseAnyCommand(cmd, "vips", "vipsthumbnail")
	if err != nil || hasArgFile(argv) {
		return false
	}
	for _, a := range argv {
		if strings.Contains(a, "descriptor=") {
			return false
		}
	}

	if argv[0] == "vips" {
		return len(argv) >= 4 && vipsOperations[argv[1]]
	}
	if len(argv) < 2 || containsArg(argv, "-") {
		return false
	}
	_, ok := flagValue(argv, "-o", "--output")
	return ok
}

func (p *LibvipsPlugin) DryRun(ctx context.Context, cmd string, bridge ports.LLMBridge) (domain.Preview, error) {
	return explain(ctx, bridge, libvipsExplainPrompt, "Executing image processing command", cmd)
}

func (p *LibvipsPlugin) ExecuteWithProgress(ctx context.Context, cmd string, progress ports.ProgressSender) (string, error) {
	argv, err := parseAnyCommand(cmd, "vips", "vipsthumbnail")
	if err != nil {
		return "", err
	}
	progress.Send(domain.Progress{Message: libvipsPhase(argv)})
	stdout, stderr, err := p.runner.Run(ctx, argv)
	if err != nil {
		return "", err
	}
	return combineOutput(stdout, stderr), nil
}

// IsInstalled is true when either program runs.
func (p *LibvipsPlugin) IsInstalled(ctx context.Context) bool {
	return p.runner.Available(ctx, "vips", "--version") || p.runner.Available(ctx, "vipsthumbnail", "--version")
}

func (p *LibvipsPlugin) InstallHint() string {
	return "brew install vips  (Debian/Ubuntu: apt install libvips-tools)"
}

func libvipsPhase(argv []string) string {
	if argv[0] == "vipsthumbnail" {
		return "Generating thumbnails with libvips..."
	}
	if len(argv) > 1 {
		return fmt.Sprintf("Running libvips %s operation...", argv[1])
	}
	return "Running libvips command..."
}

var (
	_ ports.Plugin      = (*LibvipsPlugin)(nil)
	_ ports.Installable = (*LibvipsPlugin)(nil)
)
