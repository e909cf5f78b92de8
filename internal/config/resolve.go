package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sitepack/internal/engine"
	foundation "git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

// Build option defaults.
const (
	DefaultBase              = "/"
	DefaultOutDir            = "dist"
	DefaultAssetsDir         = "assets"
	DefaultAssetsInlineLimit = 4096
)

// DefaultLibFormats is the format pair used when a library build does not
// request explicit formats.
var DefaultLibFormats = []engine.OutputFormat{engine.FormatES, engine.FormatUMD}

// ResolveBuildOptions merges raw user options with defaults, resolving the
// interdependent fields. It is a pure function: no I/O, no mutation of raw.
// Structurally invalid inputs fail with a CategoryValidation error before any
// engine call.
//
// Defaulting rules depend on raw values only, never on already-resolved
// fields, so rule order cannot create hidden coupling.
func ResolveBuildOptions(raw *BuildOptions) (*ResolvedBuildOptions, error) {
	if raw == nil {
		raw = &BuildOptions{}
	}

	resolved := &ResolvedBuildOptions{
		Base:              DefaultBase,
		OutDir:            DefaultOutDir,
		AssetsDir:         DefaultAssetsDir,
		AssetsInlineLimit: DefaultAssetsInlineLimit,
		Sourcemap:         "",
		TerserOptions:     raw.TerserOptions,
		Write:             true,
		Manifest:          false,
		Lib:               raw.Lib,
		SSR:               false,
	}

	if raw.Lib != nil {
		if err := validateLibrary(raw.Lib); err != nil {
			return nil, err
		}
	}

	rawTarget := ""
	if len(raw.Target) == 1 {
		rawTarget = raw.Target[0]
	}

	// polyfillDynamicImport: on by default, pointless for esnext output and
	// unwanted in redistributable libraries.
	resolved.PolyfillDynamicImport = true
	if rawTarget == TargetESNext || raw.Lib != nil {
		resolved.PolyfillDynamicImport = false
	}
	if raw.PolyfillDynamicImport != nil {
		resolved.PolyfillDynamicImport = *raw.PolyfillDynamicImport
	}

	// cssCodeSplit: on by default, off for libraries.
	resolved.CSSCodeSplit = raw.Lib == nil
	if raw.CSSCodeSplit != nil {
		resolved.CSSCodeSplit = *raw.CSSCodeSplit
	}

	rawMinify := ""
	if raw.Minify != nil {
		rawMinify = *raw.Minify
	}
	minify := NormalizeMinifyMode(rawMinify)
	if minify == "" {
		return nil, foundation.NewError(foundation.CategoryValidation,
			fmt.Sprintf("unknown minify mode %q", rawMinify)).
			WithContext("minify", rawMinify).
			Build()
	}
	resolved.Minify = minify

	targets, err := resolveTargets(raw.Target, minify)
	if err != nil {
		return nil, err
	}
	resolved.Targets = targets

	if raw.Base != nil {
		resolved.Base = *raw.Base
	}
	if !strings.HasSuffix(resolved.Base, "/") {
		resolved.Base += "/"
	}

	if raw.OutDir != nil {
		resolved.OutDir = *raw.OutDir
	}
	if raw.AssetsDir != nil {
		resolved.AssetsDir = *raw.AssetsDir
	}
	if raw.AssetsInlineLimit != nil {
		resolved.AssetsInlineLimit = *raw.AssetsInlineLimit
	}
	if raw.Sourcemap != nil {
		resolved.Sourcemap = *raw.Sourcemap
	}
	if raw.Engine != nil {
		resolved.Engine = *raw.Engine
	}
	if raw.Write != nil {
		resolved.Write = *raw.Write
	}
	if raw.Manifest != nil {
		resolved.Manifest = *raw.Manifest
	}
	if raw.SSR != nil {
		resolved.SSR = *raw.SSR
	}

	return resolved, nil
}

// resolveTargets expands the "modules" sentinel and downgrades "esnext" when
// the configured minifier's parser cannot consume esnext syntax. Explicit
// target lists pass through unchanged.
func resolveTargets(raw TargetList, minify MinifyMode) ([]string, error) {
	if len(raw) == 0 {
		return append([]string(nil), DefaultTargets...), nil
	}
	if len(raw) == 1 {
		switch raw[0] {
		case TargetModules:
			return append([]string(nil), DefaultTargets...), nil
		case TargetESNext:
			if minify != MinifyOff && minify != MinifyEsbuild {
				return []string{ESNextFallbackTarget}, nil
			}
			return []string{TargetESNext}, nil
		}
	}
	for _, t := range raw {
		if t == TargetModules {
			return nil, foundation.NewError(foundation.CategoryValidation,
				`target "modules" cannot be combined with other targets`).
				Build()
		}
	}
	return append([]string(nil), raw...), nil
}

// validateLibrary checks library option structure. Format validation happens
// here so that a UMD/IIFE build without a name fails at resolution time, not
// inside the engine.
func validateLibrary(lib *LibraryOptions) error {
	if lib.Entry == "" {
		return foundation.NewError(foundation.CategoryValidation,
			"library build requires an entry module").
			Build()
	}
	for _, f := range lib.Formats {
		if !f.IsValid() {
			return foundation.NewError(foundation.CategoryValidation,
				fmt.Sprintf("unknown library format %q", f)).
				Build()
		}
	}
	return ValidateLibraryName(lib.Formats, lib.Name)
}

// ValidateLibraryName enforces the UMD/IIFE name requirement for the formats
// the build will actually generate.
func ValidateLibraryName(formats []engine.OutputFormat, name string) error {
	if len(formats) == 0 {
		formats = DefaultLibFormats
	}
	for _, f := range formats {
		if (f == engine.FormatUMD || f == engine.FormatIIFE) && name == "" {
			return foundation.NewError(foundation.CategoryValidation,
				fmt.Sprintf("library format %q requires a name: set lib.name", f)).
				WithContext("format", string(f)).
				Build()
		}
	}
	return nil
}
