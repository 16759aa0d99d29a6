package domain

import "strings"

// Behavior attached to Config so callers never walk the provider list by hand.

// ConfiguredProviders returns normalized providers that are enabled and have
// the credentials their auth scheme needs, in declaration order.
func (c Config) ConfiguredProviders() []ProviderConfig {
	var out []ProviderConfig
	for _, p := range c.Providers {
		p = p.Normalized()
		if p.IsConfigured() {
			out = append(out, p)
		}
	}
	return out
}

// HasProviders reports whether at least one provider can be dispatched to.
func (c Config) HasProviders() bool {
	return len(c.ConfiguredProviders()) > 0
}

// FindProvider returns the first entry of the given kind (normalized).
func (c Config) FindProvider(kind ProviderKind) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Kind == kind {
			return p.Normalized(), true
		}
	}
	return ProviderConfig{}, false
}

// SetProvider replaces the first entry of the same kind or appends a new one.
func (c *Config) SetProvider(provider ProviderConfig) {
	for i, p := range c.Providers {
		if p.Kind == provider.Kind {
			c.Providers[i] = provider
			return
		}
	}
	c.Providers = append(c.Providers, provider)
}

// RemoveProvider drops every entry of the given kind and reports whether any existed.
func (c *Config) RemoveProvider(kind ProviderKind) bool {
	kept := c.Providers[:0]
	removed := false
	for _, p := range c.Providers {
		if p.Kind == kind {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	c.Providers = kept
	return removed
}

// SetRoleModel changes the primary model for a role.
func (c *Config) SetRoleModel(role Role, model string) {
	model = strings.TrimSpace(model)
	if role == RoleRouter {
		c.Models.RouterModel = model
		return
	}
	c.Models.ExecutorModel = model
}

// CacheCapacity returns the configured capacity or the default.
func (c Config) CacheCapacity() int {
	if c.Cache.Capacity <= 0 {
		return DefaultCacheCapacity
	}
	return c.Cache.Capacity
}
