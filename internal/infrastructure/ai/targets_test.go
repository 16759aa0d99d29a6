package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dexter/internal/domain"
)

func labels(targets []domain.Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Label())
	}
	return out
}

func testProviders() []domain.ProviderConfig {
	return []domain.ProviderConfig{
		{Kind: domain.ProviderGemini, APIKey: "g", BaseURL: "https://g.example/openai", Auth: domain.AuthBearer, Models: []string{"g-local"}},
		{Kind: domain.ProviderGroq, APIKey: "q", BaseURL: "https://q.example/v1", Auth: domain.AuthBearer, Models: []string{"q-local", "shared"}},
	}
}

func TestResolveTargets_RoutesTakePrecedence(t *testing.T) {
	role := domain.RoleModels{
		Routes: []domain.ModelRoute{
			{Provider: domain.ProviderGroq, Model: "routed"},
			{Provider: domain.ProviderDeepseek, Model: "missing-provider"},
			{Provider: domain.ProviderGemini, Model: "  "},
		},
		Primary: "global",
	}

	got := ResolveTargets(testProviders(), role)

	assert.Equal(t, []string{
		"GROQ | routed",
		"GEMINI | g-local",
		"GROQ | q-local",
		"GROQ | shared",
	}, labels(got))
}

func TestResolveTargets_GlobalModelsAcrossProviders(t *testing.T) {
	role := domain.RoleModels{Primary: "shared", Fallbacks: []string{"second", "shared"}}

	got := ResolveTargets(testProviders(), role)

	assert.Equal(t, []string{
		"GEMINI | shared",
		"GROQ | shared",
		"GEMINI | second",
		"GROQ | second",
		"GEMINI | g-local",
		"GROQ | q-local",
	}, labels(got))
}

func TestResolveTargets_LastResort(t *testing.T) {
	got := ResolveTargets(nil, domain.RoleModels{Primary: "anything"})

	require.Len(t, got, 1)
	assert.Equal(t, domain.ProviderOllama, got[0].Kind)
	assert.Equal(t, domain.DefaultOllamaBaseURL, got[0].BaseURL)
	assert.Equal(t, domain.DefaultOllamaModel, got[0].Model)
	assert.Equal(t, domain.AuthNone, got[0].Auth)
}

func TestResolveTargets_Deterministic(t *testing.T) {
	role := domain.RoleModels{Primary: "a", Fallbacks: []string{"b"}}
	first := ResolveTargets(testProviders(), role)
	second := ResolveTargets(testProviders(), role)
	assert.Equal(t, first, second)
}

func TestResolveTargets_DeduplicatesIdentity(t *testing.T) {
	providers := []domain.ProviderConfig{
		{Kind: domain.ProviderOpenAI, Name: "same", APIKey: "k", BaseURL: "https://x.example/v1", Auth: domain.AuthBearer, Models: []string{"m"}},
		{Kind: domain.ProviderCustom, Name: "same", APIKey: "k", BaseURL: "https://x.example/v1/", Auth: domain.AuthBearer, Models: []string{"m"}},
	}

	got := ResolveTargets(providers, domain.RoleModels{Primary: "m"})

	assert.Equal(t, []string{"same | m"}, labels(got))
}
