package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/pkg/llmtext"
	"github.com/doeshing/dexter/internal/ports"
)

const routerUserPrompt = "Which plugin should be used for this intent?"

// Service maps a request onto one plugin of the catalog.
type Service struct {
	Completer ports.Completer
	Logger    ports.Logger
	// Threshold is the minimum confidence for a direct selection.
	Threshold float64
}

// NewService builds a router with the default confidence threshold.
func NewService(completer ports.Completer, logger ports.Logger) *Service {
	return &Service{Completer: completer, Logger: logger, Threshold: domain.RouterConfidenceThreshold}
}

type routerResponse struct {
	Decision   string                 `json:"decision"`
	PluginName string                 `json:"plugin_name"`
	Confidence float64                `json:"confidence"`
	Reasoning  string                 `json:"reasoning"`
	Question   string                 `json:"question"`
	Options    []domain.ClarifyOption `json:"options"`
}

// Route implements ports.Router.
func (s *Service) Route(ctx context.Context, input string, snapshot domain.ContextSnapshot, plugins []ports.Plugin) (domain.RouteOutcome, error) {
	if s.Completer == nil || s.Logger == nil {
		return domain.RouteOutcome{}, errors.New("routing.Service dependencies not satisfied")
	}
	if len(plugins) == 0 {
		return domain.Unsupported("no plugins are available"), nil
	}

	raw, err := s.Completer.Complete(ctx, domain.CompletionRequest{
		SystemPrompt: buildPrompt(input, snapshot, plugins),
		UserInput:    routerUserPrompt,
		Temperature:  domain.DefaultTemperature,
	}, domain.CacheNormal)
	if err != nil {
		return domain.RouteOutcome{}, fmt.Errorf("route request: %w", err)
	}

	var resp routerResponse
	if err := json.Unmarshal([]byte(llmtext.ExtractJSONObject(raw)), &resp); err != nil {
		return domain.RouteOutcome{}, fmt.Errorf("failed to parse router JSON: %w. Response: %s", err, raw)
	}

	outcome := s.decide(resp, plugins)
	s.Logger.Debug("routing decision", map[string]interface{}{
		"outcome":    outcome.Kind.String(),
		"plugin":     resp.PluginName,
		"confidence": resp.Confidence,
	})
	return outcome, nil
}

// decide applies the confidence policy:
//   - an explicit clarify decision with options asks the user
//   - a known plugin at or above the threshold is selected
//   - below the threshold, options turn into a question, otherwise the request is unsupported
//   - an unknown plugin is unsupported
func (s *Service) decide(resp routerResponse, plugins []ports.Plugin) domain.RouteOutcome {
	options := validOptions(resp.Options)
	question := strings.TrimSpace(resp.Question)
	if question == "" {
		question = "Which of these did you mean?"
	}

	switch strings.ToLower(strings.TrimSpace(resp.Decision)) {
	case "clarify":
		if len(options) > 0 {
			return domain.Clarify(question, options)
		}
	case "unsupported":
		return domain.Unsupported(reasonOr(resp.Reasoning, "No available plugin can handle this request."))
	}

	name := strings.TrimSpace(resp.PluginName)
	if !knownPlugin(plugins, name) {
		if len(options) > 0 {
			return domain.Clarify(question, options)
		}
		return domain.Unsupported(reasonOr(resp.Reasoning, fmt.Sprintf("Unknown plugin %q.", name)))
	}
	if resp.Confidence >= s.Threshold {
		return domain.Selected(name)
	}
	if len(options) > 0 {
		return domain.Clarify(question, options)
	}
	return domain.Unsupported(fmt.Sprintf("Low confidence (%.2f): %s", resp.Confidence, resp.Reasoning))
}

func buildPrompt(input string, snapshot domain.ContextSnapshot, plugins []ports.Plugin) string {
	lines := make([]string, 0, len(plugins))
	for _, p := range plugins {
		lines = append(lines, fmt.Sprintf("- %s: %s", p.Name(), p.DocForRouter()))
	}
	return fmt.Sprintf(`You are the Router Agent for Dexter.
Your job is to map User Intent to the best available Plugin.

### USER INTENT:
%s

### Available Plugins:
%s

### Context:
%s

Rules:
- Use "selected" when one plugin clearly fits.
- Use "clarify" when the intent is ambiguous; give 2-4 options, each with a resolved_intent
  that restates the request unambiguously.
- Use "unsupported" when no plugin fits.

Output Format: JSON
{
  "decision": "selected | clarify | unsupported",
  "plugin_name": "exact_name_from_list",
  "confidence": 0.0_to_1.0,
  "reasoning": "why this plugin",
  "question": "only for clarify",
  "options": [{"id": "a", "label": "...", "detail": "...", "resolved_intent": "..."}]
}
`, input, strings.Join(lines, "\n"), snapshot.Summary())
}

func validOptions(options []domain.ClarifyOption) []domain.ClarifyOption {
	var out []domain.ClarifyOption
	for i, opt := range options {
		if strings.TrimSpace(opt.ResolvedIntent) == "" {
			continue
		}
		if opt.ID == "" {
			opt.ID = fmt.Sprintf("%d", i+1)
		}
		if opt.Label == "" {
			opt.Label = opt.ResolvedIntent
		}
		out = append(out, opt)
	}
	return out
}

func knownPlugin(plugins []ports.Plugin, name string) bool {
	for _, p := range plugins {
		if p.Name() == name {
			return true
		}
	}
	return false
}

func reasonOr(reason, fallback string) string {
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return fallback
}

var _ ports.Router = (*Service)(nil)
