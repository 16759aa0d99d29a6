package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/dexter/assets"
	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/pkg/filesystem"
	"github.com/doeshing/dexter/internal/ports"
)

// EnvPrefix marks environment overrides. Nested keys use a double underscore,
// e.g. DEXTER_MODELS__ROUTER_MODEL=gemini-2.5-flash.
const EnvPrefix = "DEXTER_"

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "DEXTER_CONFIG"

// FileLoader loads YAML configuration from ~/.dexter/config.yaml (overridable via DEXTER_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Path returns the file Load reads.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filesystem.AppPath("config.yaml")
}

// Load implements ports.ConfigProvider. A missing file is created with defaults.
// Priority: environment > file > defaults.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := WriteDefault(path, false); err != nil {
			return domain.Config{}, err
		}
	}

	k := koanf.New(".")
	for key, value := range defaultKeys() {
		if err := k.Set(key, value); err != nil {
			return domain.Config{}, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
		return domain.Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return domain.Config{}, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var cfg domain.Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return domain.Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return domain.Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return hydrateDefaults(cfg), nil
}

// Save writes cfg back to the loader's path.
func (l *FileLoader) Save(cfg domain.Config) error {
	return writeConfig(l.Path(), cfg)
}

// WriteDefault writes the default config to path. An existing file is kept
// unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
	}
	return writeConfig(path, DefaultConfig())
}

// WriteDefaultRules writes the starter safety rules file unless one exists.
// It reports whether a file was written.
func WriteDefaultRules(path string) (bool, error) {
	path = filesystem.ExpandPath(path)
	if path == "" {
		return false, nil
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return false, fmt.Errorf("create rules dir: %w", err)
	}
	if err := os.WriteFile(path, assets.DefaultSafetyYAML, domain.SecureFilePermissions); err != nil {
		return false, fmt.Errorf("write safety rules: %w", err)
	}
	return true, nil
}

func writeConfig(path string, cfg domain.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// DefaultConfig is what `dexter config init` writes.
func DefaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Providers: []domain.ProviderConfig{
			{Kind: domain.ProviderGemini, APIKeyEnv: "GEMINI_API_KEY"},
			{Kind: domain.ProviderOllama},
		},
		Models: domain.ModelPreferences{
			RouterModel:   domain.DefaultRouterModel,
			ExecutorModel: domain.DefaultExecutorModel,
		},
		Safety: domain.SafetySettings{
			RulesFile: filepath.Join("~", filesystem.AppDirName, "safety.yaml"),
		},
		History: domain.HistorySettings{
			Enabled: true,
			Path:    filepath.Join("~", filesystem.AppDirName, "history.db"),
		},
		Cache: domain.CacheSettings{Capacity: domain.DefaultCacheCapacity},
	}
}

func defaultKeys() map[string]interface{} {
	return map[string]interface{}{
		"config_format_version": "1",
		"models.router_model":   domain.DefaultRouterModel,
		"models.executor_model": domain.DefaultExecutorModel,
		"history.enabled":       true,
		"cache.capacity":        domain.DefaultCacheCapacity,
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.History.Path == "" {
		cfg.History.Path = filesystem.AppPath("history.db")
	}
	cfg.History.Path = filesystem.ExpandPath(cfg.History.Path)
	cfg.Safety.RulesFile = filesystem.ExpandPath(cfg.Safety.RulesFile)
	return cfg
}

// envTransform converts environment variable names to config keys.
// Example: DEXTER_CACHE__CAPACITY -> cache.capacity
func envTransform(s string) string {
	if s == EnvConfigPath {
		return ""
	}
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
