package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepack/internal/engine"
)

// Target sentinels recognized by the options resolver.
const (
	TargetModules = "modules"
	TargetESNext  = "esnext"
)

// DefaultTargets is the compatibility set the "modules" sentinel expands to:
// native ES module support in evergreen browsers.
var DefaultTargets = []string{"es2019", "edge16", "firefox60", "chrome61", "safari11"}

// ESNextFallbackTarget is the concrete downlevel target used when "esnext" is
// paired with a minifier whose parser cannot accept esnext output.
const ESNextFallbackTarget = "es2021"

// MinifyMode selects the minifier applied to final output.
type MinifyMode string

const (
	MinifyOff     MinifyMode = "off"
	MinifyTerser  MinifyMode = "terser"
	MinifyEsbuild MinifyMode = "esbuild"
)

// NormalizeMinifyMode maps raw user input onto a MinifyMode. The string
// "false" is treated as off: configuration passed through text-based layers
// (CI variables, CLI flags) stringifies booleans. Unknown values return "".
func NormalizeMinifyMode(raw string) MinifyMode {
	switch raw {
	case "false", "off", "none":
		return MinifyOff
	case "true", "", "terser":
		return MinifyTerser
	case "esbuild":
		return MinifyEsbuild
	default:
		return ""
	}
}

// TargetList is a compatibility target that unmarshals from either a single
// YAML scalar or a sequence.
type TargetList []string

func (t *TargetList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*t = TargetList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = TargetList(list)
		return nil
	default:
		return fmt.Errorf("target must be a string or list of strings")
	}
}

// LibraryOptions configure a redistributable library build.
type LibraryOptions struct {
	// Entry is the library's entry module path, relative to the project root.
	Entry string `yaml:"entry"`

	// Name is the exported global for UMD/IIFE formats.
	Name string `yaml:"name,omitempty"`

	// Formats are the requested module formats; empty means the default pair
	// {es, umd}.
	Formats []engine.OutputFormat `yaml:"formats,omitempty"`
}

// OutputSpec is one user-supplied output configuration passed through to the
// engine, possibly overridden per library format.
type OutputSpec struct {
	Format         engine.OutputFormat `yaml:"format,omitempty"`
	EntryFileNames string              `yaml:"entryFileNames,omitempty"`
	ChunkFileNames string              `yaml:"chunkFileNames,omitempty"`
	AssetFileNames string              `yaml:"assetFileNames,omitempty"`
	Dir            string              `yaml:"dir,omitempty"`
	GlobalName     string              `yaml:"name,omitempty"`
}

// OutputList holds the user's raw output configuration: absent, a single
// mapping, or a sequence. Whether the user wrote a sequence is load-bearing
// for library format resolution, so it is recorded.
type OutputList struct {
	Specs   []OutputSpec
	IsArray bool
}

func (o *OutputList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var spec OutputSpec
		if err := node.Decode(&spec); err != nil {
			return err
		}
		o.Specs = []OutputSpec{spec}
		o.IsArray = false
		return nil
	case yaml.SequenceNode:
		if err := node.Decode(&o.Specs); err != nil {
			return err
		}
		o.IsArray = true
		return nil
	default:
		return fmt.Errorf("output must be a mapping or a list of mappings")
	}
}

// Empty reports whether the user supplied no output configuration.
func (o *OutputList) Empty() bool { return o == nil || len(o.Specs) == 0 }

// EngineOptions are raw bundling-engine passthrough options. The orchestrator
// forwards them as a base and overrides the fields it owns.
type EngineOptions struct {
	// Input overrides the build entry point(s).
	Input TargetList `yaml:"input,omitempty"`

	// External lists module identifiers excluded from the bundle.
	External []string `yaml:"external,omitempty"`

	// Output is the user's output configuration (single or array).
	Output *OutputList `yaml:"output,omitempty"`

	// Raw carries engine options the orchestrator does not interpret.
	Raw map[string]any `yaml:"raw,omitempty"`
}

// BuildOptions are the user-facing build options. Pointer fields distinguish
// "unset" from an explicit zero value so interdependent defaults can key off
// what the user actually wrote.
type BuildOptions struct {
	Base                  *string         `yaml:"base,omitempty"`
	Target                TargetList      `yaml:"target,omitempty"`
	PolyfillDynamicImport *bool           `yaml:"polyfillDynamicImport,omitempty"`
	OutDir                *string         `yaml:"outDir,omitempty"`
	AssetsDir             *string         `yaml:"assetsDir,omitempty"`
	AssetsInlineLimit     *int            `yaml:"assetsInlineLimit,omitempty"`
	CSSCodeSplit          *bool           `yaml:"cssCodeSplit,omitempty"`
	Sourcemap             *string         `yaml:"sourcemap,omitempty"`
	Minify                *string         `yaml:"minify,omitempty"`
	TerserOptions         map[string]any  `yaml:"terserOptions,omitempty"`
	Engine                *EngineOptions  `yaml:"engine,omitempty"`
	Write                 *bool           `yaml:"write,omitempty"`
	Manifest              *bool           `yaml:"manifest,omitempty"`
	Lib                   *LibraryOptions `yaml:"lib,omitempty"`
	SSR                   *bool           `yaml:"ssr,omitempty"`
}

// ResolvedBuildOptions is BuildOptions with every field populated. Produced
// only by ResolveBuildOptions.
type ResolvedBuildOptions struct {
	Base                  string
	Targets               []string
	PolyfillDynamicImport bool
	OutDir                string
	AssetsDir             string
	AssetsInlineLimit     int
	CSSCodeSplit          bool
	Sourcemap             string
	Minify                MinifyMode
	TerserOptions         map[string]any
	Engine                EngineOptions
	Write                 bool
	Manifest              bool
	Lib                   *LibraryOptions
	SSR                   bool
}

// IsLibrary reports whether the build produces a library bundle.
func (r *ResolvedBuildOptions) IsLibrary() bool { return r.Lib != nil }
