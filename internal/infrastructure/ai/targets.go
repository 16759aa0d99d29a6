package ai

import (
	"strings"

	"github.com/doeshing/dexter/internal/domain"
)

// ResolveTargets builds the ordered, de-duplicated dispatch list for one role.
//
// Order of precedence:
//  1. explicit routes, in configured order (unmatched providers and blank models are skipped)
//  2. only when no route resolved: every global model (primary, then fallbacks) on every provider
//  3. every provider's own model list, behind whatever came before
//  4. a local Ollama target when nothing else resolved
//
// The first occurrence of a target identity wins. The result depends only on
// the inputs, so rebuilding from the same configuration yields the same order.
func ResolveTargets(providers []domain.ProviderConfig, role domain.RoleModels) []domain.Target {
	set := newTargetSet()

	for _, route := range role.Routes {
		provider, ok := findProvider(providers, route.Provider)
		if !ok {
			continue
		}
		model := strings.TrimSpace(route.Model)
		if model == "" {
			continue
		}
		set.add(targetFor(provider, model))
	}

	if set.len() == 0 {
		for _, model := range globalModels(role.Primary, role.Fallbacks) {
			for _, provider := range providers {
				set.add(targetFor(provider, model))
			}
		}
	}

	for _, provider := range providers {
		for _, model := range provider.Models {
			if model = strings.TrimSpace(model); model != "" {
				set.add(targetFor(provider, model))
			}
		}
	}

	if set.len() == 0 {
		set.add(lastResortTarget())
	}
	return set.targets
}

type targetSet struct {
	seen    map[domain.TargetKey]struct{}
	targets []domain.Target
}

func newTargetSet() *targetSet {
	return &targetSet{seen: make(map[domain.TargetKey]struct{})}
}

func (s *targetSet) add(t domain.Target) {
	key := t.Key()
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}
	s.targets = append(s.targets, t)
}

func (s *targetSet) len() int {
	return len(s.targets)
}

func findProvider(providers []domain.ProviderConfig, kind domain.ProviderKind) (domain.ProviderConfig, bool) {
	for _, p := range providers {
		if p.Kind == kind {
			return p, true
		}
	}
	return domain.ProviderConfig{}, false
}

func globalModels(primary string, fallbacks []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range append([]string{primary}, fallbacks...) {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

func targetFor(p domain.ProviderConfig, model string) domain.Target {
	return domain.Target{
		DisplayName: p.DisplayName(),
		Kind:        p.Kind,
		APIKey:      strings.TrimSpace(p.APIKey),
		BaseURL:     strings.TrimRight(p.BaseURL, "/"),
		Auth:        p.Auth,
		Model:       model,
	}
}

func lastResortTarget() domain.Target {
	return domain.Target{
		DisplayName: domain.ProviderOllama.DisplayName(),
		Kind:        domain.ProviderOllama,
		BaseURL:     domain.DefaultOllamaBaseURL,
		Auth:        domain.AuthNone,
		Model:       domain.DefaultOllamaModel,
	}
}
