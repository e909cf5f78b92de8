package plugin

import (
	"log/slog"

	"git.home.luguber.info/inful/sitepack/internal/config"
)

// Pipeline is the composed plugin lists surrounding user plugins. Pre runs
// before bundling transforms, Post after the bundle is formed.
type Pipeline struct {
	Pre  []Plugin
	Post []Plugin
}

// All returns the full ordered pipeline: pre (user plugins already placed at
// its tail) followed by post.
func (p Pipeline) All() []Plugin {
	all := make([]Plugin, 0, len(p.Pre)+len(p.Post))
	all = append(all, p.Pre...)
	all = append(all, p.Post...)
	return all
}

// Compose assembles the fixed pipeline around user plugins.
//
// Pre order is load-bearing: interop and markup embedding must see original
// sources before any user transform; define injection and dynamic-import
// rewriting must run before user code observes the constants. User plugins
// are appended at the tail of pre in the order given and are never reordered.
//
// Post order is equally fixed: lowering and minification must see final
// bundled output, the manifest must record final file names, and progress
// reporting observes everything.
func Compose(resolved *config.ResolvedBuildOptions, htmlEntry string, userPlugins []Plugin, logLevel string) Pipeline {
	var p Pipeline

	p.Pre = append(p.Pre,
		NewCommonJSInterop(),
		NewHTMLEntry(htmlEntry),
		NewDefine(defineValues(resolved)),
		NewDynamicImportVars(),
	)
	p.Pre = append(p.Pre, userPlugins...)

	p.Post = append(p.Post, NewLowering(resolved.Targets))
	if resolved.Minify != config.MinifyOff && resolved.Minify != config.MinifyEsbuild {
		p.Post = append(p.Post, NewTerser(resolved.TerserOptions))
	}
	if resolved.Manifest {
		p.Post = append(p.Post, NewManifestEmitter())
	}
	if logLevel == "" || logLevel == "info" {
		p.Post = append(p.Post, NewProgressReporter(slog.Default()))
	}
	return p
}

// defineValues computes the compile-time constants injected into every build.
func defineValues(resolved *config.ResolvedBuildOptions) map[string]string {
	values := map[string]string{
		"process.env.NODE_ENV": `"production"`,
	}
	if resolved.SSR {
		values["import.meta.env.SSR"] = "true"
	} else {
		values["import.meta.env.SSR"] = "false"
	}
	values["import.meta.env.BASE_URL"] = `"` + resolved.Base + `"`
	return values
}
