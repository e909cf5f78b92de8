package plugin

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/sitepack/internal/htmlentry"
)

// Built-in plugin names. Triage and the driver reference plugins by these
// identifiers.
const (
	NameCommonJSInterop   = "commonjs-interop"
	NameHTMLEntry         = "html-entry"
	NameDefine            = "define"
	NameDynamicImportVars = "dynamic-import-vars"
	NameLowering          = "lowering"
	NameTerser            = "terser"
	NameManifest          = "manifest"
	NameProgress          = "progress"
)

// CommonJSInterop shims non-module dependencies so they can participate in an
// ES module graph. It must run before user transforms so they see original
// sources.
type CommonJSInterop struct{}

func NewCommonJSInterop() *CommonJSInterop { return &CommonJSInterop{} }

func (*CommonJSInterop) Name() string { return NameCommonJSInterop }

// HTMLEntry embeds module scripts referenced from the HTML entry point into
// the bundle graph.
type HTMLEntry struct {
	// Entry is the HTML file driving the build; empty for library builds.
	Entry string
}

func NewHTMLEntry(entry string) *HTMLEntry { return &HTMLEntry{Entry: entry} }

func (*HTMLEntry) Name() string { return NameHTMLEntry }

func (p *HTMLEntry) Validate() error {
	if p.Entry == "" {
		return nil
	}
	if _, err := os.Stat(p.Entry); err != nil {
		return fmt.Errorf("html entry %s: %w", p.Entry, err)
	}
	return nil
}

// ModuleScripts returns the module script sources the entry references.
func (p *HTMLEntry) ModuleScripts() ([]string, error) {
	if p.Entry == "" {
		return nil, nil
	}
	refs, err := htmlentry.ScanFile(p.Entry)
	if err != nil {
		return nil, err
	}
	return htmlentry.ModuleScripts(refs), nil
}

// Define injects compile-time constants into bundled modules.
type Define struct {
	Values map[string]string
}

func NewDefine(values map[string]string) *Define { return &Define{Values: values} }

func (*Define) Name() string { return NameDefine }

// DynamicImportVars rewrites statically-unanalyzable dynamic import
// expressions into resolvable form. Warnings it emits feed the triage
// benign-message table.
type DynamicImportVars struct{}

func NewDynamicImportVars() *DynamicImportVars { return &DynamicImportVars{} }

func (*DynamicImportVars) Name() string { return NameDynamicImportVars }

// Lowering performs the final syntax downlevel pass for the resolved
// compatibility targets. Runs after all user transforms.
type Lowering struct {
	Targets []string
}

func NewLowering(targets []string) *Lowering { return &Lowering{Targets: targets} }

func (*Lowering) Name() string { return NameLowering }

// Terser applies terser-class minification to final bundled output. Only
// composed when minification is enabled with a non-engine-native minifier.
type Terser struct {
	Options map[string]any
}

func NewTerser(options map[string]any) *Terser { return &Terser{Options: options} }

func (*Terser) Name() string { return NameTerser }

// ManifestEmitter records the logical-name-to-emitted-file mapping alongside
// generated outputs.
type ManifestEmitter struct {
	// FileName is the manifest path relative to the output directory.
	FileName string
}

func NewManifestEmitter() *ManifestEmitter {
	return &ManifestEmitter{FileName: "manifest.json"}
}

func (*ManifestEmitter) Name() string { return NameManifest }

// ProgressReporter logs bundling progress at the default informational level.
type ProgressReporter struct {
	Logger *slog.Logger
}

func NewProgressReporter(logger *slog.Logger) *ProgressReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressReporter{Logger: logger}
}

func (*ProgressReporter) Name() string { return NameProgress }
