package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dexter/internal/domain"
)

func TestValidate(t *testing.T) {
	valid := domain.Config{
		Providers: []domain.ProviderConfig{{Kind: domain.ProviderGroq, APIKey: "k"}},
		Models: domain.ModelPreferences{
			RouterRoutes: []domain.ModelRoute{{Provider: domain.ProviderGroq, Model: "m"}},
		},
		History: domain.HistorySettings{Enabled: true, Path: "/tmp/h.db"},
	}
	require.NoError(t, Validate(valid))

	broken := valid
	broken.Providers = append(broken.Providers,
		domain.ProviderConfig{Kind: domain.ProviderGroq},
		domain.ProviderConfig{Kind: domain.ProviderCustom},
	)
	broken.Models.ExecutorRoutes = []domain.ModelRoute{{Provider: domain.ProviderDeepseek, Model: ""}}
	broken.History.Path = ""

	err := Validate(broken)
	require.Error(t, err)
	for _, want := range []string{
		"duplicate provider kind groq",
		"custom provider requires base_url",
		"models.executor_routes[0]: model must be set",
		"provider deepseek is not declared",
		"history.path must be set",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestWarnings(t *testing.T) {
	cfg := domain.Config{
		Providers: []domain.ProviderConfig{{Kind: domain.ProviderGemini, APIKeyEnv: "DEXTER_TEST_UNSET_KEY"}},
	}
	warnings := Warnings(cfg)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "local Ollama")
	assert.Contains(t, warnings[1], "export DEXTER_TEST_UNSET_KEY")
}
