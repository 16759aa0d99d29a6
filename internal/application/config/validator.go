package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
)

// Validate checks cross-field consistency that struct tags cannot express.
// It returns every problem found, joined.
func Validate(cfg domain.Config) error {
	var problems []error
	problems = append(problems, validateProviders(cfg.Providers)...)
	problems = append(problems, validateRoutes("models.router_routes", cfg.Models.RouterRoutes, cfg)...)
	problems = append(problems, validateRoutes("models.executor_routes", cfg.Models.ExecutorRoutes, cfg)...)
	if err := validateCache(cfg.Cache); err != nil {
		problems = append(problems, err)
	}
	if err := validateHistory(cfg.History); err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}

// Warnings lists conditions that still work but probably are not intended.
func Warnings(cfg domain.Config) []string {
	var out []string
	if !cfg.HasProviders() {
		out = append(out, "no provider is configured with credentials; requests fall back to a local Ollama endpoint")
	}
	for _, p := range cfg.Providers {
		n := p.Normalized()
		if n.IsEnabled() && !n.IsConfigured() {
			hint := "set api_key"
			if p.APIKeyEnv != "" {
				hint = fmt.Sprintf("export %s", p.APIKeyEnv)
			}
			out = append(out, fmt.Sprintf("provider %s is enabled but has no API key (%s)", n.DisplayName(), hint))
		}
	}
	return out
}

func validateProviders(providers []domain.ProviderConfig) []error {
	var problems []error
	seen := make(map[domain.ProviderKind]bool)
	for i, p := range providers {
		if seen[p.Kind] {
			problems = append(problems, fmt.Errorf("providers[%d]: duplicate provider kind %s", i, p.Kind))
		}
		seen[p.Kind] = true
		if p.Kind == domain.ProviderCustom && strings.TrimSpace(p.BaseURL) == "" {
			problems = append(problems, fmt.Errorf("providers[%d]: custom provider requires base_url", i))
		}
	}
	return problems
}

func validateRoutes(field string, routes []domain.ModelRoute, cfg domain.Config) []error {
	var problems []error
	for i, route := range routes {
		if strings.TrimSpace(route.Model) == "" {
			problems = append(problems, fmt.Errorf("%s[%d]: model must be set", field, i))
		}
		if _, ok := cfg.FindProvider(route.Provider); !ok {
			problems = append(problems, fmt.Errorf("%s[%d]: provider %s is not declared in providers", field, i, route.Provider))
		}
	}
	return problems
}

func validateCache(cache domain.CacheSettings) error {
	if cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must be >= 0")
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	if history.Enabled && strings.TrimSpace(history.Path) == "" {
		return fmt.Errorf("history.path must be set when history is enabled")
	}
	return nil
}
