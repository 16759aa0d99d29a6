package plugins

import (
	"sort"

	"github.com/doeshing/dexter/internal/ports"
)

// Registry is the ordered plugin catalog handed to the router.
type Registry struct {
	plugins []ports.Plugin
	byName  map[string]ports.Plugin
}

// NewRegistry keeps plugins in the given order; later duplicates are ignored.
func NewRegistry(plugins ...ports.Plugin) *Registry {
	r := &Registry{byName: make(map[string]ports.Plugin)}
	for _, p := range plugins {
		if _, dup := r.byName[p.Name()]; dup {
			continue
		}
		r.byName[p.Name()] = p
		r.plugins = append(r.plugins, p)
	}
	return r
}

// Default registers every built-in tool adapter on a shared runner.
func Default(runner *Runner) *Registry {
	return NewRegistry(
		NewF2Plugin(runner),
		NewFFmpegPlugin(runner),
		NewPandocPlugin(runner),
		NewQpdfPlugin(runner),
		NewOcrmypdfPlugin(runner),
		NewYtDlpPlugin(runner),
		NewWhisperCppPlugin(runner),
		NewJdupesPlugin(runner),
		NewLibvipsPlugin(runner),
	)
}

// All returns the plugins in registration order.
func (r *Registry) All() []ports.Plugin {
	return append([]ports.Plugin(nil), r.plugins...)
}

// Get finds a plugin by name.
func (r *Registry) Get(name string) (ports.Plugin, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Names lists plugin names alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}
