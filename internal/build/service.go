package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/engine"
	"git.home.luguber.info/inful/sitepack/internal/plugin"
)

// Service is the canonical interface for executing production builds.
type Service interface {
	// Run executes one build invocation end-to-end: resolve options, compose
	// the plugin pipeline, drive the bundling engine, and generate every
	// resolved output descriptor.
	Run(ctx context.Context, req Request) (*Result, error)
}

// WarnHandler receives warnings the triage table forwards to the user.
type WarnHandler func(rec engine.WarningRecord)

// Request contains all inputs required to execute a build.
type Request struct {
	// Config is the loaded project configuration.
	Config *config.Config

	// Inline are build options layered over Config.Build; inline fields that
	// are set win.
	Inline *config.BuildOptions

	// UserPlugins are caller-assembled capability plugins, inserted at the
	// fixed position inside the pre pipeline in the order given.
	UserPlugins []plugin.Plugin

	// OnWarn is the optional user warning handler.
	OnWarn WarnHandler
}

// Result contains the outcome of one build invocation. Application builds
// produce a single output set; library builds produce one per resolved
// format, in descriptor order.
type Result struct {
	// BuildID uniquely identifies this invocation.
	BuildID string

	// Resolved is the fully-populated configuration the build ran under.
	Resolved *config.ResolvedBuildOptions

	// Outputs are the generated output sets, in generation order.
	Outputs []*engine.Output

	Duration time.Duration
}

// MergeOptions layers inline options over file options without mutating
// either. Set inline fields win; unset fields fall through.
func MergeOptions(base, inline *config.BuildOptions) *config.BuildOptions {
	if base == nil {
		base = &config.BuildOptions{}
	}
	merged := *base
	if inline == nil {
		return &merged
	}
	if inline.Base != nil {
		merged.Base = inline.Base
	}
	if len(inline.Target) > 0 {
		merged.Target = inline.Target
	}
	if inline.PolyfillDynamicImport != nil {
		merged.PolyfillDynamicImport = inline.PolyfillDynamicImport
	}
	if inline.OutDir != nil {
		merged.OutDir = inline.OutDir
	}
	if inline.AssetsDir != nil {
		merged.AssetsDir = inline.AssetsDir
	}
	if inline.AssetsInlineLimit != nil {
		merged.AssetsInlineLimit = inline.AssetsInlineLimit
	}
	if inline.CSSCodeSplit != nil {
		merged.CSSCodeSplit = inline.CSSCodeSplit
	}
	if inline.Sourcemap != nil {
		merged.Sourcemap = inline.Sourcemap
	}
	if inline.Minify != nil {
		merged.Minify = inline.Minify
	}
	if inline.TerserOptions != nil {
		merged.TerserOptions = inline.TerserOptions
	}
	if inline.Engine != nil {
		merged.Engine = inline.Engine
	}
	if inline.Write != nil {
		merged.Write = inline.Write
	}
	if inline.Manifest != nil {
		merged.Manifest = inline.Manifest
	}
	if inline.Lib != nil {
		merged.Lib = inline.Lib
	}
	if inline.SSR != nil {
		merged.SSR = inline.SSR
	}
	return &merged
}
