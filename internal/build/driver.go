package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/engine"
	foundation "git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/history"
	"git.home.luguber.info/inful/sitepack/internal/lifecycle"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/manifest"
	"git.home.luguber.info/inful/sitepack/internal/metrics"
	"git.home.luguber.info/inful/sitepack/internal/plugin"
	"git.home.luguber.info/inful/sitepack/internal/triage"
)

// DefaultService drives one build invocation end-to-end against a bundling
// engine, sharing a lifecycle tracker with concurrently running invocations.
type DefaultService struct {
	engine   engine.Engine
	tracker  *lifecycle.Tracker
	recorder metrics.Recorder
	logger   *slog.Logger
	history  *history.Store
}

// Option configures a DefaultService.
type Option func(*DefaultService)

// WithRecorder installs a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *DefaultService) { s.recorder = r }
}

// WithLogger installs a logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *DefaultService) { s.logger = l }
}

// WithHistory installs a build-history store. Recording is best-effort.
func WithHistory(h *history.Store) Option {
	return func(s *DefaultService) { s.history = h }
}

// NewService constructs the default build service.
func NewService(eng engine.Engine, tracker *lifecycle.Tracker, opts ...Option) *DefaultService {
	s := &DefaultService{
		engine:   eng,
		tracker:  tracker,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one build. Option resolution happens before the lifecycle
// tracker is entered, so validation failures never hold shared resources.
// Leave runs on every exit path; whichever invocation drives the active count
// to zero closes all registered handles.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Config == nil {
		return nil, foundation.NewError(foundation.CategoryInternal, "build request has no configuration").Build()
	}

	merged := MergeOptions(&req.Config.Build, req.Inline)
	resolved, err := config.ResolveBuildOptions(merged)
	if err != nil {
		return nil, err
	}

	buildID := uuid.NewString()
	logger := s.logger.With(logfields.BuildID(buildID))
	start := time.Now()

	s.tracker.Enter()
	defer func() {
		if err := s.tracker.Leave(); err != nil {
			logger.Warn("Failed to release bundle handles", logfields.Error(err))
		}
	}()

	result, runErr := s.run(ctx, req, resolved, buildID, logger)
	duration := time.Since(start)

	s.recorder.ObserveBuildDuration(duration)
	outcome := metrics.OutcomeSuccess
	if runErr != nil {
		outcome = metrics.OutcomeFailed
	}
	s.recorder.IncBuildOutcome(outcome)
	s.recordHistory(ctx, buildID, start, duration, resolved, result, runErr)

	if runErr != nil {
		return nil, runErr
	}
	result.Duration = duration
	logger.Info("Build finished", "outputs", len(result.Outputs), "duration", duration)
	return result, nil
}

func (s *DefaultService) run(ctx context.Context, req Request, resolved *config.ResolvedBuildOptions, buildID string, logger *slog.Logger) (*Result, error) {
	root := req.Config.Root

	entries := buildEntries(root, resolved)
	htmlEntry := ""
	if !resolved.IsLibrary() && len(entries) == 1 && strings.HasSuffix(entries[0], ".html") {
		htmlEntry = entries[0]
	}

	pipeline := plugin.Compose(resolved, htmlEntry, req.UserPlugins, req.Config.LogLevel)
	if err := plugin.ValidateAll(pipeline.All()); err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryValidation, "plugin pipeline validation failed").Build()
	}

	// An HTML entry is a shell, not bundler input: its module scripts become
	// the engine entries and the shell itself is copied into the output root.
	if htmlEntry != "" {
		scripts, err := htmlEntryScripts(pipeline, root)
		if err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryResolution, "scan html entry").Build()
		}
		if len(scripts) == 0 {
			return nil, foundation.NewError(foundation.CategoryValidation,
				fmt.Sprintf("html entry %s references no module scripts", htmlEntry)).Build()
		}
		entries = scripts
	}

	preserve := engine.PreserveNone
	if resolved.IsLibrary() {
		// Library consumers rely on the entry's exported bindings staying
		// stable across bundling.
		preserve = engine.PreserveStrict
	}

	in := engine.InputOptions{
		Entries:  entries,
		Preserve: preserve,
		External: resolved.Engine.External,
		Plugins:  plugin.Refs(pipeline.All()),
		OnWarn:   s.warnFunc(req, resolved, logger),
		Raw:      rawEngineOptions(resolved, pipeline),
	}

	logger.Info("Starting production build",
		"entries", entries,
		"library", resolved.IsLibrary(),
		"write", resolved.Write)

	handle, err := s.engine.CreateBundle(ctx, in)
	if err != nil {
		return nil, s.enrichEngineFailure(err, logger)
	}
	s.tracker.RegisterHandle(handle)

	outDir := req.Config.OutPath(resolved.OutDir)
	if resolved.Write {
		if err := EmptyDir(outDir); err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "prepare output directory").Build()
		}
		if publicDir := req.Config.PublicPath(); dirExists(publicDir) {
			if err := CopyDir(publicDir, outDir); err != nil {
				return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "copy static assets").Build()
			}
			logger.Debug("Copied static assets", "from", publicDir)
		}
		if htmlEntry != "" {
			if err := copyFile(htmlEntry, filepath.Join(outDir, filepath.Base(htmlEntry))); err != nil {
				return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "copy html entry shell").Build()
			}
		}
	}

	specs, err := ResolveOutputs(resolved.Engine.Output, resolved.Lib, logger)
	if err != nil {
		return nil, err
	}
	descriptors := Descriptors(specs, resolved, root, outDir)

	// Descriptors generate strictly in sequence, in resolved order. Files a
	// failed later format leaves behind on disk are not rolled back.
	outputs := make([]*engine.Output, 0, len(descriptors))
	for _, desc := range descriptors {
		var out *engine.Output
		if resolved.Write {
			out, err = handle.Write(ctx, desc)
		} else {
			out, err = handle.Generate(ctx, desc)
		}
		if err != nil {
			return nil, s.enrichEngineFailure(err, logger)
		}
		s.recorder.IncOutputGenerated(string(desc.Format))
		logger.Debug("Generated output", logfields.Format(string(desc.Format)), logfields.OutputFiles(len(out.Files)))
		outputs = append(outputs, out)
	}

	if resolved.Manifest && resolved.Write {
		if err := s.writeManifest(pipeline, outputs, outDir, logger); err != nil {
			return nil, err
		}
	}

	return &Result{
		BuildID:  buildID,
		Resolved: resolved,
		Outputs:  outputs,
	}, nil
}

// buildEntries determines the engine input: the library entry in library
// mode, then any user input override, then the default markup entry point.
func buildEntries(root string, resolved *config.ResolvedBuildOptions) []string {
	if resolved.IsLibrary() {
		return []string{joinRoot(root, resolved.Lib.Entry)}
	}
	if len(resolved.Engine.Input) > 0 {
		entries := make([]string, len(resolved.Engine.Input))
		for i, in := range resolved.Engine.Input {
			entries[i] = joinRoot(root, in)
		}
		return entries
	}
	return []string{filepath.Join(root, "index.html")}
}

// htmlEntryScripts resolves the HTML entry's module scripts into engine entry
// files. Script sources are URL paths; absolute ones anchor at the project
// root.
func htmlEntryScripts(pipeline plugin.Pipeline, root string) ([]string, error) {
	var he *plugin.HTMLEntry
	for _, p := range pipeline.Pre {
		if h, ok := p.(*plugin.HTMLEntry); ok {
			he = h
			break
		}
	}
	if he == nil {
		return nil, nil
	}
	srcs, err := he.ModuleScripts()
	if err != nil {
		return nil, err
	}
	entries := make([]string, 0, len(srcs))
	for _, src := range srcs {
		entries = append(entries, joinRoot(root, strings.TrimPrefix(src, "/")))
	}
	return entries, nil
}

func joinRoot(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// warnFunc wires the triage table as the engine warning callback. An
// Escalate verdict aborts the bundle by returning the classified error.
func (s *DefaultService) warnFunc(req Request, resolved *config.ResolvedBuildOptions, logger *slog.Logger) engine.WarnFunc {
	opts := triage.Options{
		AllowedBuiltinPrefixes: req.Config.AllowedBuiltinPrefixes,
		Root:                   req.Config.Root,
		HasUserHandler:         req.OnWarn != nil,
	}
	return func(rec engine.WarningRecord) error {
		verdict := triage.Classify(rec, opts)
		s.recorder.IncWarningVerdict(verdict.Action.String())
		switch verdict.Action {
		case triage.Suppress:
			return nil
		case triage.Escalate:
			return verdict.Err
		default:
			if verdict.ToUser {
				req.OnWarn(rec)
				return nil
			}
			logger.Warn("Bundler warning",
				logfields.WarningCode(rec.Code),
				logfields.Plugin(rec.Plugin),
				"message", rec.Message)
			return nil
		}
	}
}

// rawEngineOptions forwards user passthrough options as the base and lays the
// orchestrator-owned fields over them.
func rawEngineOptions(resolved *config.ResolvedBuildOptions, pipeline plugin.Pipeline) map[string]any {
	raw := map[string]any{}
	maps.Copy(raw, resolved.Engine.Raw)
	for _, p := range pipeline.Pre {
		if d, ok := p.(*plugin.Define); ok {
			raw["define"] = d.Values
		}
	}
	if resolved.Minify == config.MinifyEsbuild {
		raw["minify"] = true
	}
	return raw
}

// enrichEngineFailure converts an engine error into a fatal classified error
// carrying plugin, location, and code-frame context. Errors that triage
// already classified pass through untouched.
func (s *DefaultService) enrichEngineFailure(err error, logger *slog.Logger) error {
	if _, ok := foundation.AsClassified(err); ok {
		return err
	}

	builder := foundation.WrapError(err, foundation.CategoryBundler, "bundling engine failed").Fatal()
	var failure *engine.BuildFailure
	if errors.As(err, &failure) {
		logger.Error("Bundle failed", "message", failure.Message)
		if failure.Plugin != "" {
			logger.Error("Offending plugin", logfields.Plugin(failure.Plugin))
			builder = builder.WithContext(foundation.ContextPlugin, failure.Plugin)
		}
		if failure.Loc != nil {
			logger.Error("Failure location", "loc", failure.Loc.String())
			builder = builder.WithContext(foundation.ContextLocation, failure.Loc.String())
		}
		if failure.Frame != "" {
			logger.Error("Code frame", "frame", failure.Frame)
			builder = builder.WithContext(foundation.ContextFrame, failure.Frame)
		}
	} else {
		logger.Error("Bundle failed", logfields.Error(err))
	}
	return builder.Build()
}

func (s *DefaultService) writeManifest(pipeline plugin.Pipeline, outputs []*engine.Output, outDir string, logger *slog.Logger) error {
	fileName := ""
	for _, p := range pipeline.Post {
		if m, ok := p.(*plugin.ManifestEmitter); ok {
			fileName = m.FileName
		}
	}
	if fileName == "" {
		return nil
	}
	if err := manifest.FromOutputs(outputs).WriteFile(outDir, fileName); err != nil {
		return foundation.WrapError(err, foundation.CategoryFileSystem, "emit asset manifest").Build()
	}
	logger.Debug("Wrote asset manifest", "file", fileName)
	return nil
}

func (s *DefaultService) recordHistory(ctx context.Context, buildID string, start time.Time, duration time.Duration, resolved *config.ResolvedBuildOptions, result *Result, runErr error) {
	if s.history == nil {
		return
	}
	rec := history.BuildRecord{
		ID:        buildID,
		StartedAt: start,
		Duration:  duration,
		Mode:      "app",
		Outcome:   metrics.OutcomeSuccess,
	}
	if resolved.IsLibrary() {
		rec.Mode = "lib"
	}
	if runErr != nil {
		rec.Outcome = metrics.OutcomeFailed
		rec.Error = runErr.Error()
	} else {
		rec.Outputs = len(result.Outputs)
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn("Failed to record build history", logfields.Error(err))
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
