// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The pipeline, router and generator depend only on
// these interfaces; HTTP clients, tool adapters, SQLite and the terminal live behind them.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Completer, Plugin, SafetyChecker)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/doeshing/dexter/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.dexter/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ContextCollector gathers the working-directory snapshot used in prompts.
type ContextCollector interface {
	Collect(context.Context) (domain.ContextSnapshot, error)
}

// Completer turns a completion request into text, falling back across targets.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest, policy domain.CachePolicy) (string, error)
}

// LLMBridge is the narrow chat capability handed to plugin dry-run explainers.
// Implementations route through the same fallback engine with the normal cache policy.
type LLMBridge interface {
	Chat(ctx context.Context, systemPrompt, userInput string) (string, error)
}

// ProgressSender accepts progress updates from a running tool. Send reports
// false once nobody is listening any more.
type ProgressSender interface {
	Send(domain.Progress) bool
}

// Plugin adapts one external CLI tool.
type Plugin interface {
	Name() string
	Description() string
	// DocForRouter is a one-line capability summary used in the routing prompt.
	DocForRouter() string
	// DocForExecutor is the full usage guide used in the generation prompt.
	DocForExecutor() string
	ValidateCommand(cmd string) bool
	// DryRun previews the command without mutating anything. bridge may be nil.
	DryRun(ctx context.Context, cmd string, bridge LLMBridge) (domain.Preview, error)
	ExecuteWithProgress(ctx context.Context, cmd string, progress ProgressSender) (string, error)
}

// Installable is implemented by plugins that can report whether their tool is on PATH.
type Installable interface {
	IsInstalled(ctx context.Context) bool
	InstallHint() string
}

// Router maps a request to a plugin, a rejection, or a clarification question.
type Router interface {
	Route(ctx context.Context, input string, snapshot domain.ContextSnapshot, plugins []Plugin) (domain.RouteOutcome, error)
}

// CommandGenerator synthesizes the tool command for a routed request.
type CommandGenerator interface {
	Generate(ctx context.Context, input string, snapshot domain.ContextSnapshot, plugin Plugin, policy domain.CachePolicy) (string, error)
}

// SafetyChecker is the tool-agnostic gate every command passes before preview and execution.
type SafetyChecker interface {
	Check(command string) error
}

// HistoryRepository stores executed commands and their pins.
type HistoryRepository interface {
	Save(domain.HistoryRecord) error
	Records(limit int) ([]domain.HistoryRecord, error)
	Get(id string) (domain.HistoryRecord, error)
	Pin(id string) error
	Unpin(id string) error
	Clear() error
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stderr, session files).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
