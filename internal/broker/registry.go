package broker

import (
	"sort"
	"strings"
	"sync"
)

// Plugin describes a registered broker implementation.
type Plugin struct {
	// Name is the broker key, matched case-insensitively.
	Name string
	// Version of the adapter.
	Version string
	// Description of the broker integration.
	Description string
	// Capabilities advertises optional features (e.g. "oauth", "totp").
	Capabilities []string
	// New builds a fresh adapter instance. Session state lives on the
	// instance, so callers wanting per-account continuity reuse one.
	New func() Broker
}

// Registry is the process-wide catalog mapping broker keys to plugin
// descriptors. It is constructed explicitly and passed by reference; it
// performs no network or authentication side effects.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
	}
}

// Register adds or replaces the plugin under its key. Re-registration is an
// idempotent upsert: last write wins and the key is listed exactly once.
func (r *Registry) Register(p Plugin) {
	key := strings.ToLower(p.Name)
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[key] = p
}

// AvailableBrokers returns the registered broker keys, sorted for stable
// output (order is not significant to callers).
func (r *Registry) AvailableBrokers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.plugins))
	for key := range r.plugins {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Plugins returns all registered plugin descriptors.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugins := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		plugins = append(plugins, p)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return strings.ToLower(plugins[i].Name) < strings.ToLower(plugins[j].Name)
	})
	return plugins
}

// Lookup returns the plugin registered under key, case-insensitively.
func (r *Registry) Lookup(key string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[strings.ToLower(key)]
	return p, ok
}
