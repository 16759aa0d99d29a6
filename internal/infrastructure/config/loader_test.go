package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dexter/internal/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileLoader_CreatesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.Equal(t, domain.DefaultRouterModel, cfg.Models.RouterModel)
	assert.True(t, cfg.History.Enabled)
	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, domain.ProviderGemini, cfg.Providers[0].Kind)
}

func TestFileLoader_ReadsProvidersAndRoutes(t *testing.T) {
	path := writeFile(t, `
providers:
  - kind: groq
    api_key: gsk-test
    models: [llama-3.3-70b-versatile]
  - kind: ollama
    enabled: false
models:
  router_model: llama-3.3-70b-versatile
  executor_routes:
    - provider: groq
      model: mixtral-8x7b-32768
cache:
  capacity: 16
`)

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "gsk-test", cfg.Providers[0].APIKey)
	require.NotNil(t, cfg.Providers[1].Enabled)
	assert.False(t, *cfg.Providers[1].Enabled)
	assert.Equal(t, domain.DefaultExecutorModel, cfg.Models.ExecutorModel, "defaults fill unset keys")
	require.Len(t, cfg.Models.ExecutorRoutes, 1)
	assert.Equal(t, domain.ProviderGroq, cfg.Models.ExecutorRoutes[0].Provider)
	assert.Equal(t, 16, cfg.Cache.Capacity)
	assert.True(t, cfg.History.Enabled)
}

func TestFileLoader_EnvOverride(t *testing.T) {
	path := writeFile(t, "models:\n  router_model: from-file\n")
	t.Setenv("DEXTER_MODELS__ROUTER_MODEL", "from-env")

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Models.RouterModel)
}

func TestFileLoader_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown provider kind", content: "providers:\n  - kind: mystery\n"},
		{name: "bad auth scheme", content: "providers:\n  - kind: custom\n    auth: magic\n"},
		{name: "cache too large", content: "cache:\n  capacity: 999999\n"},
		{name: "route without provider", content: "models:\n  router_routes:\n    - model: x\n"},
		{name: "malformed yaml", content: "providers: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileLoader(writeFile(t, tt.content)).Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFileLoader_PathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom-dexter.yaml")
	assert.Equal(t, "/tmp/custom-dexter.yaml", NewFileLoader("").Path())
	assert.Equal(t, "/explicit.yaml", NewFileLoader("/explicit.yaml").Path())
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false))
	assert.NoError(t, WriteDefault(path, true))
}

func TestFileLoader_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewFileLoader(path)

	cfg := DefaultConfig()
	cfg.SetRoleModel(domain.RoleExecutor, "deepseek-chat")
	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", loaded.Models.ExecutorModel)
}

func TestWriteDefaultRules_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules", "safety.yaml")

	wrote, err := WriteDefaultRules(path)
	require.NoError(t, err)
	assert.True(t, wrote)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "danger_patterns")

	require.NoError(t, os.WriteFile(path, []byte("rules: {}\n"), 0o600))
	wrote, err = WriteDefaultRules(path)
	require.NoError(t, err)
	assert.False(t, wrote)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rules: {}\n", string(data))
}
