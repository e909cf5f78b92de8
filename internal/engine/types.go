package engine

import "fmt"

// PluginRef is the minimal view of a pipeline plugin the engine needs: a
// stable identifier plus an opaque implementation handed through verbatim.
// The concrete plugin surface lives in internal/plugin; the engine never
// inspects Impl beyond passing it to the underlying bundler.
type PluginRef struct {
	Name string
	Impl any
}

// WarnFunc receives one engine warning. Returning a non-nil error aborts the
// bundle; the engine propagates it unchanged to the CreateBundle caller.
type WarnFunc func(rec WarningRecord) error

// InputOptions are the inputs for one bundle session.
type InputOptions struct {
	// Entries are module or HTML entry points, absolute or root-relative.
	Entries []string

	// Preserve selects entry export-signature handling.
	Preserve PreserveMode

	// External lists module identifiers excluded from the bundle.
	External []string

	// Plugins is the full ordered pipeline (pre + user + post).
	Plugins []PluginRef

	// OnWarn is invoked synchronously for every engine warning. May be nil.
	OnWarn WarnFunc

	// Raw carries user passthrough options the orchestrator does not
	// interpret; orchestrator-required fields above take precedence.
	Raw map[string]any
}

// OutputOptions describe one generated output set.
type OutputOptions struct {
	Format OutputFormat

	// Naming templates. Placeholders: [name], [hash], [ext], [format].
	EntryFileNames string
	ChunkFileNames string
	AssetFileNames string

	// Dir is the destination directory for Write.
	Dir string

	Sourcemap string

	// GlobalName is the exported global for UMD/IIFE output.
	GlobalName string

	// NamespaceToStringTag marks exported namespace objects with an explicit
	// Symbol.toStringTag for module-interop correctness.
	NamespaceToStringTag bool
}

// OutputFile is one emitted file.
type OutputFile struct {
	// Name is the path relative to the output directory.
	Name     string
	Contents []byte

	// IsEntry marks the file generated for an entry point.
	IsEntry bool
}

// Output is the result of one Generate or Write call.
type Output struct {
	Format OutputFormat
	Files  []OutputFile
}

// SourceLocation points into an input module.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// WarningRecord is one engine-emitted warning. Records are consumed
// synchronously by the warning callback and never persisted.
type WarningRecord struct {
	// Code is the engine's warning classification (e.g. UNRESOLVED_IMPORT).
	Code string

	Message string

	// Plugin identifies the plugin that produced the warning, if any.
	Plugin string

	// Source is the unresolved or offending module identifier, if any.
	Source string

	// Importer is the module that referenced Source, if any.
	Importer string

	Loc *SourceLocation
}

// Warning codes emitted by bundling engines and referenced by triage.
const (
	WarnUnresolvedImport   = "UNRESOLVED_IMPORT"
	WarnCircularDependency = "CIRCULAR_DEPENDENCY"
	WarnThisIsUndefined    = "THIS_IS_UNDEFINED"
)

// BuildFailure is an engine-level failure enriched with whatever positional
// context the engine supplied.
type BuildFailure struct {
	Plugin  string
	Message string
	// ID is the module being processed when the failure occurred.
	ID    string
	Loc   *SourceLocation
	Frame string
	Cause error
}

func (e *BuildFailure) Error() string {
	if e.Plugin != "" {
		return fmt.Sprintf("[plugin %s] %s", e.Plugin, e.Message)
	}
	return e.Message
}

func (e *BuildFailure) Unwrap() error { return e.Cause }
