package plugins

import (
	"context"
	"fmt"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

var whisperBlockedFlags = []string{"--grammar", "--grammar-rule", "--grammar-penalty"}

const whisperExplainPrompt = "You are a clear and concise command explainer for Dexter. " +
	"Describe what this whisper.cpp command will do, including model choice, input audio, " +
	"language/translation behavior, and output formats (txt/srt/vtt/json). Output plain text only."

// WhisperCppPlugin wraps whisper.cpp's CLI for local transcription.
type WhisperCppPlugin struct {
	runner *Runner
}

// NewWhisperCppPlugin builds the whisper.cpp adapter.
func NewWhisperCppPlugin(runner *Runner) *WhisperCppPlugin {
	return &WhisperCppPlugin{runner: runner}
}

func (p *WhisperCppPlugin) Name() string { return "whisper-cpp" }

func (p *WhisperCppPlugin) Description() string {
	return "Local speech-to-text via whisper.cpp (transcription, translation, and subtitle outputs)."
}

func (p *WhisperCppPlugin) DocForRouter() string {
	return "Best for local audio transcription/translation with whisper.cpp, including TXT/SRT/VTT/JSON subtitle outputs."
}

func (p *WhisperCppPlugin) DocForExecutor() string {
	return `whisper.cpp Command Usage (whisper-cli):
- Basic transcription: whisper-cli -m models/ggml-base.en.bin -f input.wav -otxt
- SRT subtitle output: whisper-cli -m models/ggml-base.en.bin -f input.wav -osrt -of output/base
- Translate to English: whisper-cli -m models/ggml-base.bin -f input.wav -l de -tr -otxt
- Multiple outputs: whisper-cli -m models/ggml-base.en.bin -f input.wav -otxt -osrt -ovtt -ojf

Safety Constraints:
1. Always provide an explicit model path via -m/--model.
2. Always provide an explicit input audio file via -f/--file.
3. Do NOT use grammar flags (--grammar, --grammar-rule, --grammar-penalty).
4. Use output flags (-otxt/-osrt/-ovtt/-oj/-ojf) and an optional -of prefix for deterministic files.`
}

// ValidateCommand requires a model and an input file and rejects grammar flags.
func (p *WhisperCppPlugin) ValidateCommand(cmd string) bool {
	argv, err := parseAnyCommand(cmd, "whisper-cli", "whisper-cpp")
	if err != nil || hasArgFile(argv) || containsFlag(argv, whisperBlockedFlags...) {
		return false
	}
	_, hasModel := flagValue(argv, "-m", "--model")
	_, hasInput := flagValue(argv, "-f", "--file")
	return hasModel && hasInput
}

func (p *WhisperCppPlugin) DryRun(ctx context.Context, cmd string, bridge ports.LLMBridge) (domain.Preview, error) {
	return explain(ctx, bridge, whisperExplainPrompt, "Executing speech transcription command", cmd)
}

// ExecuteWithProgress forwards the percentages whisper.cpp prints while transcribing.
func (p *WhisperCppPlugin) ExecuteWithProgress(ctx context.Context, cmd string, progress ports.ProgressSender) (string, error) {
	argv, err := parseAnyCommand(cmd, "whisper-cli", "whisper-cpp")
	if err != nil {
		return "", err
	}
	progress.Send(domain.Progress{Message: "Running whisper.cpp transcription..."})
	stdout, stderr, err := p.runner.Stream(ctx, argv, func(line string) {
		if pct, ok := extractPercentage(line); ok {
			progress.Send(domain.Percent(pct, fmt.Sprintf("Transcribing: %.1f%%", pct)))
		}
	})
	if err != nil {
		return "", err
	}
	progress.Send(domain.Progress{Message: "Finalizing transcription output..."})
	return combineOutput(stdout, stderr), nil
}

func (p *WhisperCppPlugin) IsInstalled(ctx context.Context) bool {
	return p.runner.Available(ctx, "whisper-cli", "-h") || p.runner.Available(ctx, "whisper-cpp", "-h")
}

func (p *WhisperCppPlugin) InstallHint() string {
	return "brew install whisper-cpp  (or build from github.com/ggml-org/whisper.cpp)"
}

var (
	_ ports.Plugin      = (*WhisperCppPlugin)(nil)
	_ ports.Installable = (*WhisperCppPlugin)(nil)
)
