package domain

// Config mirrors ~/.dexter/config.yaml.
type Config struct {
	ConfigFormatVersion string           `yaml:"config_format_version"`
	Providers           []ProviderConfig `yaml:"providers" validate:"dive"`
	Models              ModelPreferences `yaml:"models"`
	Safety              SafetySettings   `yaml:"safety"`
	History             HistorySettings  `yaml:"history"`
	Cache               CacheSettings    `yaml:"cache"`
}

// ModelPreferences holds per-role model choices. Routes take precedence over
// the primary/fallback model lists when they resolve to at least one target.
type ModelPreferences struct {
	RouterModel            string       `yaml:"router_model"`
	ExecutorModel          string       `yaml:"executor_model"`
	RouterFallbackModels   []string     `yaml:"router_fallback_models"`
	ExecutorFallbackModels []string     `yaml:"executor_fallback_models"`
	RouterRoutes           []ModelRoute `yaml:"router_routes" validate:"dive"`
	ExecutorRoutes         []ModelRoute `yaml:"executor_routes" validate:"dive"`
}

// ModelRoute pins one provider/model pair at a fixed priority.
type ModelRoute struct {
	Provider ProviderKind `yaml:"provider" validate:"required"`
	Model    string       `yaml:"model"`
}

// SafetySettings points at an optional YAML file with extra blocked patterns.
type SafetySettings struct {
	RulesFile string `yaml:"rules_file"`
}

// HistorySettings controls the execution history database.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// CacheSettings bounds the in-memory response cache.
type CacheSettings struct {
	Capacity int `yaml:"capacity" validate:"gte=0,lte=10000"`
}

// Role selects which model preferences a completion client is built from.
type Role string

const (
	RoleRouter   Role = "router"
	RoleExecutor Role = "executor"
)

// RoleModels is the per-role slice of ModelPreferences consumed by the target resolver.
type RoleModels struct {
	Routes    []ModelRoute
	Primary   string
	Fallbacks []string
}

// ForRole extracts the routes and model lists for one pipeline role.
func (m ModelPreferences) ForRole(role Role) RoleModels {
	if role == RoleRouter {
		return RoleModels{
			Routes:    m.RouterRoutes,
			Primary:   m.RouterModel,
			Fallbacks: m.RouterFallbackModels,
		}
	}
	return RoleModels{
		Routes:    m.ExecutorRoutes,
		Primary:   m.ExecutorModel,
		Fallbacks: m.ExecutorFallbackModels,
	}
}
