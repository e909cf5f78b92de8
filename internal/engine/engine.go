// Package engine defines the capability interface over the external bundling
// engine. The orchestrator depends only on Engine and Handle; one concrete
// adapter (EsbuildEngine) binds the real engine, fakes serve tests.
package engine

import "context"

// Engine creates bundle sessions from input options.
type Engine interface {
	// CreateBundle analyzes the entry points and returns a Handle from which
	// one or more outputs can be generated. A returned Handle must eventually
	// be closed, though not necessarily by the caller that created it.
	CreateBundle(ctx context.Context, opts InputOptions) (Handle, error)
}

// Handle is the opaque bundle session returned by CreateBundle.
type Handle interface {
	// Generate produces one output set in memory.
	Generate(ctx context.Context, opts OutputOptions) (*Output, error)

	// Write produces one output set and materializes it under opts.Dir.
	Write(ctx context.Context, opts OutputOptions) (*Output, error)

	// Close releases session resources. Close is idempotent.
	Close() error
}

// PreserveMode controls how entry export signatures survive bundling.
type PreserveMode string

const (
	// PreserveStrict keeps exported bindings of entry modules stable; used
	// for library builds where the public surface must not be rewritten.
	PreserveStrict PreserveMode = "strict"

	// PreserveNone allows aggressive tree-shaking of entry exports; used for
	// application builds.
	PreserveNone PreserveMode = "none"
)

// OutputFormat identifies a module format for generated output.
type OutputFormat string

const (
	FormatES   OutputFormat = "es"
	FormatCJS  OutputFormat = "cjs"
	FormatUMD  OutputFormat = "umd"
	FormatIIFE OutputFormat = "iife"
)

// IsValid reports whether the format is one of the recognized module formats.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatES, FormatCJS, FormatUMD, FormatIIFE:
		return true
	default:
		return false
	}
}

func (f OutputFormat) String() string { return string(f) }
