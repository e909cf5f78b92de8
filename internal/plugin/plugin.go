// Package plugin provides the bundling-engine plugin pipeline: plugin
// identity, the fixed built-in pre/post plugins, and the composer that
// assembles the final ordered pipeline around user plugins.
package plugin

import (
	"fmt"

	"git.home.luguber.info/inful/sitepack/internal/engine"
)

// Plugin is one entry in the bundling pipeline.
type Plugin interface {
	// Name is the stable plugin identifier surfaced in diagnostics.
	Name() string
}

// EnginePlugin is a Plugin carrying an engine-native implementation. The
// orchestrator never inspects the implementation; it is handed to the engine
// adapter verbatim.
type EnginePlugin interface {
	Plugin

	// EngineImpl returns the engine-specific plugin object.
	EngineImpl() any
}

// Validator is an optional hook letting a plugin reject the configuration it
// is about to run under.
type Validator interface {
	Validate() error
}

// Refs converts a plugin list to the engine's reference representation.
func Refs(plugins []Plugin) []engine.PluginRef {
	refs := make([]engine.PluginRef, 0, len(plugins))
	for _, p := range plugins {
		ref := engine.PluginRef{Name: p.Name()}
		if ep, ok := p.(EnginePlugin); ok {
			ref.Impl = ep.EngineImpl()
		}
		refs = append(refs, ref)
	}
	return refs
}

// Names returns the ordered plugin names, for logs and tests.
func Names(plugins []Plugin) []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name()
	}
	return names
}

// ValidateAll runs every plugin's Validate hook, failing on the first error.
func ValidateAll(plugins []Plugin) error {
	for _, p := range plugins {
		v, ok := p.(Validator)
		if !ok {
			continue
		}
		if err := v.Validate(); err != nil {
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
	}
	return nil
}
