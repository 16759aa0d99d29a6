package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/pkg/llmtext"
	"github.com/doeshing/dexter/internal/ports"
)

const generatorUserPrompt = "Please generate the exact command based on the instructions above."

// Service synthesizes the tool command for a routed request.
type Service struct {
	Completer ports.Completer
	Logger    ports.Logger
}

// NewService builds a command generator.
func NewService(completer ports.Completer, logger ports.Logger) *Service {
	return &Service{Completer: completer, Logger: logger}
}

// Generate implements ports.CommandGenerator. Safety and plugin validation
// happen later, in the dry-run step.
func (s *Service) Generate(ctx context.Context, input string, snapshot domain.ContextSnapshot, plugin ports.Plugin, policy domain.CachePolicy) (string, error) {
	if s.Completer == nil || s.Logger == nil {
		return "", errors.New("generation.Service dependencies not satisfied")
	}
	if plugin == nil {
		return "", errors.New("no plugin selected")
	}

	raw, err := s.Completer.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: buildPrompt(plugin, snapshot, input),
		UserInput:    generatorUserPrompt,
		Temperature:  domain.DefaultTemperature,
	}, policy)
	if err != nil {
		return "", fmt.Errorf("generate command: %w", err)
	}

	command := llmtext.FirstLine(llmtext.StripCodeFence(raw))
	if command == "" {
		return "", fmt.Errorf("model returned an empty command")
	}
	s.Logger.Debug("generated command", map[string]interface{}{
		"plugin":  plugin.Name(),
		"command": command,
		"policy":  policy.String(),
	})
	return command, nil
}

func buildPrompt(plugin ports.Plugin, snapshot domain.ContextSnapshot, input string) string {
	files := make([]string, 0, len(snapshot.Files))
	for i, f := range snapshot.Files {
		files = append(files, fmt.Sprintf("%d. %s", i+1, f))
	}
	contextText := strings.Join(files, "\n")
	if contextText == "" {
		contextText = snapshot.Summary()
	}

	return fmt.Sprintf(`You are the %[1]s Specialist Agent for Dexter.
Your goal is to generate one valid %[1]s command.

### HARD CONSTRAINTS (MUST FOLLOW):
1. OUTPUT ONLY: Output ONLY the command. No backticks, no markdown, no explanations.
2. NO SHELL CHAINS: Do NOT use pipes, &&, ||, ;, backticks, $() or redirection.
3. PROGRAM: The command MUST start with %[1]s.
4. PRECISION: Treat filenames in the context as literal strings; use the exact characters.

### Documentation:
%[2]s

### Context:
%[3]s

### User Request:
%[4]s
`, plugin.Name(), plugin.DocForExecutor(), contextText, input)
}

var _ ports.CommandGenerator = (*Service)(nil)
