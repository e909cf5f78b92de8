package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

// EsbuildEngine adapts the esbuild bundler to the Engine capability set.
type EsbuildEngine struct {
	// Targets are compatibility target identifiers ("es2019", "chrome61").
	Targets []string
}

// NewEsbuildEngine returns an engine bound to the given compatibility targets.
func NewEsbuildEngine(targets []string) *EsbuildEngine {
	return &EsbuildEngine{Targets: targets}
}

// CreateBundle validates the entry points and returns a session handle. The
// underlying bundler is single-shot, so analysis is deferred: each Generate
// or Write call runs one bundling pass with the session's input options, and
// warnings are routed through OnWarn at that point.
func (e *EsbuildEngine) CreateBundle(_ context.Context, opts InputOptions) (Handle, error) {
	if len(opts.Entries) == 0 {
		return nil, fmt.Errorf("create bundle: no entry points")
	}
	for _, entry := range opts.Entries {
		if _, err := os.Stat(entry); err != nil {
			return nil, &BuildFailure{
				Message: fmt.Sprintf("could not resolve entry %q", entry),
				ID:      entry,
				Cause:   err,
			}
		}
	}
	return &esbuildHandle{engine: e, opts: opts}, nil
}

type esbuildHandle struct {
	engine *EsbuildEngine
	opts   InputOptions

	mu     sync.Mutex
	closed bool
}

func (h *esbuildHandle) Generate(ctx context.Context, out OutputOptions) (*Output, error) {
	return h.run(ctx, out, false)
}

func (h *esbuildHandle) Write(ctx context.Context, out OutputOptions) (*Output, error) {
	return h.run(ctx, out, true)
}

// Close marks the handle unusable. Safe to call more than once.
func (h *esbuildHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *esbuildHandle) run(ctx context.Context, out OutputOptions, write bool) (*Output, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, fmt.Errorf("bundle handle is closed")
	}
	h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buildOpts := api.BuildOptions{
		EntryPoints: h.opts.Entries,
		Bundle:      true,
		Write:       write,
		Outdir:      out.Dir,
		External:    h.opts.External,
		Format:      esbuildFormat(out.Format),
		GlobalName:  out.GlobalName,
		Sourcemap:   esbuildSourcemap(out.Sourcemap),
		EntryNames:  esbuildNames(out.EntryFileNames, out.Format),
		ChunkNames:  esbuildNames(out.ChunkFileNames, out.Format),
		AssetNames:  esbuildNames(out.AssetFileNames, out.Format),
		LogLevel:    api.LogLevelSilent,
	}
	applyTargets(&buildOpts, h.engine.Targets)
	applyRaw(&buildOpts, h.opts.Raw)
	for _, ref := range h.opts.Plugins {
		// Only plugins implemented against the real engine participate in the
		// bundling pass; collaborator stubs carry no engine implementation.
		if p, ok := ref.Impl.(api.Plugin); ok {
			buildOpts.Plugins = append(buildOpts.Plugins, p)
		}
	}

	result := api.Build(buildOpts)

	for _, msg := range result.Warnings {
		if h.opts.OnWarn == nil {
			continue
		}
		if err := h.opts.OnWarn(warningFromMessage(msg)); err != nil {
			return nil, err
		}
	}
	if len(result.Errors) > 0 {
		return nil, failureFromMessage(result.Errors[0])
	}

	output := &Output{Format: out.Format}
	for _, f := range result.OutputFiles {
		name := strings.TrimPrefix(f.Path, out.Dir)
		name = strings.TrimPrefix(name, string(os.PathSeparator))
		output.Files = append(output.Files, OutputFile{
			Name:     name,
			Contents: f.Contents,
			IsEntry:  strings.HasSuffix(name, ".js") || strings.HasSuffix(name, ".mjs"),
		})
	}
	return output, nil
}

// esbuildFormat maps the descriptor format onto the engine's format set. The
// engine has no native UMD emitter; UMD descriptors are lowered to an IIFE
// with the library's global name.
func esbuildFormat(f OutputFormat) api.Format {
	switch f {
	case FormatCJS:
		return api.FormatCommonJS
	case FormatUMD, FormatIIFE:
		return api.FormatIIFE
	default:
		return api.FormatESModule
	}
}

func esbuildSourcemap(mode string) api.SourceMap {
	switch mode {
	case "inline":
		return api.SourceMapInline
	case "hidden":
		return api.SourceMapExternal
	case "true", "linked":
		return api.SourceMapLinked
	default:
		return api.SourceMapNone
	}
}

// esbuildNames converts orchestrator naming templates to engine templates.
// The engine appends file extensions itself, so trailing [ext]/.js segments
// are stripped, and [format] is substituted here since the engine has no such
// placeholder.
func esbuildNames(tmpl string, format OutputFormat) string {
	if tmpl == "" {
		return ""
	}
	tmpl = strings.ReplaceAll(tmpl, "[format]", string(format))
	tmpl = strings.TrimSuffix(tmpl, ".js")
	tmpl = strings.TrimSuffix(tmpl, ".[ext]")
	return tmpl
}

var esTargets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"safari":  api.EngineSafari,
	"node":    api.EngineNode,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
}

// applyTargets splits compatibility targets into a language level and browser
// engine versions. Unknown identifiers are ignored rather than failing the
// build; the engine's own validation covers malformed passthrough targets.
func applyTargets(opts *api.BuildOptions, targets []string) {
	for _, t := range targets {
		lower := strings.ToLower(strings.TrimSpace(t))
		if tgt, ok := esTargets[lower]; ok {
			opts.Target = tgt
			continue
		}
		for name, engineName := range engineNames {
			if strings.HasPrefix(lower, name) {
				version := strings.TrimPrefix(lower, name)
				if version != "" {
					opts.Engines = append(opts.Engines, api.Engine{Name: engineName, Version: version})
				}
				break
			}
		}
	}
}

// applyRaw applies recognized user passthrough keys. Orchestrator-required
// fields always win, so only keys the orchestrator does not set are honored.
func applyRaw(opts *api.BuildOptions, raw map[string]any) {
	if raw == nil {
		return
	}
	if define, ok := raw["define"].(map[string]string); ok {
		opts.Define = define
	}
	if banner, ok := raw["banner"].(string); ok {
		opts.Banner = map[string]string{"js": banner}
	}
	if footer, ok := raw["footer"].(string); ok {
		opts.Footer = map[string]string{"js": footer}
	}
	if minify, ok := raw["minify"].(bool); ok && minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}
}

func warningFromMessage(msg api.Message) WarningRecord {
	rec := WarningRecord{
		Code:    codeFromMessage(msg),
		Message: msg.Text,
		Plugin:  msg.PluginName,
	}
	if msg.Location != nil {
		rec.Loc = &SourceLocation{
			File:   msg.Location.File,
			Line:   msg.Location.Line,
			Column: msg.Location.Column,
		}
		rec.Importer = msg.Location.File
	}
	return rec
}

// codeFromMessage recovers a coarse warning code from the engine's free-form
// message text; the engine does not expose structured codes.
func codeFromMessage(msg api.Message) string {
	text := strings.ToLower(msg.Text)
	switch {
	case strings.Contains(text, "could not be resolved") || strings.Contains(text, "could not resolve"):
		return WarnUnresolvedImport
	case strings.Contains(text, "this\" is undefined") || strings.Contains(text, `"this" is undefined`):
		return WarnThisIsUndefined
	case strings.Contains(text, "circular"):
		return WarnCircularDependency
	default:
		return "PLUGIN_WARNING"
	}
}

func failureFromMessage(msg api.Message) *BuildFailure {
	f := &BuildFailure{
		Plugin:  msg.PluginName,
		Message: msg.Text,
	}
	if msg.Location != nil {
		f.ID = msg.Location.File
		f.Loc = &SourceLocation{
			File:   msg.Location.File,
			Line:   msg.Location.Line,
			Column: msg.Location.Column,
		}
		f.Frame = msg.Location.LineText
	}
	return f
}
