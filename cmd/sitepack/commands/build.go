package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"git.home.luguber.info/inful/sitepack/internal/build"
	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/engine"
	"git.home.luguber.info/inful/sitepack/internal/history"
	"git.home.luguber.info/inful/sitepack/internal/lifecycle"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	OutDir     string   `short:"o" name:"out-dir" help:"Output directory, relative to the project root"`
	Base       string   `help:"Public base path the bundle will be served from"`
	Target     []string `help:"Compatibility targets (\"modules\", \"esnext\", \"es2019\", \"chrome61\", ...)"`
	Minify     string   `help:"Minifier to use (terser|esbuild|false)"`
	Sourcemap  string   `help:"Source map generation (true|false|inline|hidden)"`
	LibEntry   string   `name:"lib-entry" help:"Build in library mode with this entry file"`
	LibName    string   `name:"lib-name" help:"Exposed global name for umd/iife library formats"`
	LibFormats []string `name:"lib-formats" help:"Library output formats (es|cjs|umd|iife)"`
	NoWrite    bool     `name:"no-write" help:"Bundle in memory without touching disk"`
	Manifest   bool     `help:"Emit a manifest.json mapping logical names to hashed files"`
	Metrics    bool     `help:"Print build metrics in Prometheus text format after the build"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}

	inline := b.inlineOptions()

	// Resolve once up front so the engine is constructed with the final
	// compatibility targets; the service re-runs the same pure resolution.
	merged := build.MergeOptions(&cfg.Build, inline)
	resolved, err := config.ResolveBuildOptions(merged)
	if err != nil {
		return err
	}

	logger := slog.Default()
	eng := engine.NewEsbuildEngine(resolved.Targets)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var registry *prometheus.Registry
	if b.Metrics {
		registry = prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}
	tracker := lifecycle.NewTracker(logger, recorder)

	opts := []build.Option{build.WithLogger(logger), build.WithRecorder(recorder)}
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.OutPath(cfg.HistoryDB))
		if err != nil {
			logger.Warn("Build history disabled", "error", err)
		} else {
			defer func() { _ = store.Close() }()
			opts = append(opts, build.WithHistory(store))
		}
	}

	svc := build.NewService(eng, tracker, opts...)
	result, runErr := svc.Run(context.Background(), build.Request{Config: cfg, Inline: inline})

	// Metrics cover failed builds too, so dump before reporting the error.
	if registry != nil {
		if err := dumpMetrics(os.Stdout, registry); err != nil {
			logger.Warn("Failed to render metrics", logfields.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	files := 0
	for _, out := range result.Outputs {
		files += len(out.Files)
	}
	logger.Info("Build complete",
		logfields.BuildID(result.BuildID),
		"outputs", len(result.Outputs),
		logfields.OutputFiles(files),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return nil
}

// dumpMetrics writes every gathered metric family in the text exposition
// format.
func dumpMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// inlineOptions maps the command flags onto build options. Unset flags stay
// nil so file configuration shows through the merge.
func (b *BuildCmd) inlineOptions() *config.BuildOptions {
	inline := &config.BuildOptions{}
	if b.OutDir != "" {
		inline.OutDir = &b.OutDir
	}
	if b.Base != "" {
		inline.Base = &b.Base
	}
	if len(b.Target) > 0 {
		inline.Target = config.TargetList(b.Target)
	}
	if b.Minify != "" {
		inline.Minify = &b.Minify
	}
	if b.Sourcemap != "" {
		inline.Sourcemap = &b.Sourcemap
	}
	if b.NoWrite {
		write := false
		inline.Write = &write
	}
	if b.Manifest {
		manifest := true
		inline.Manifest = &manifest
	}
	if b.LibEntry != "" {
		lib := &config.LibraryOptions{Entry: b.LibEntry, Name: b.LibName}
		for _, f := range b.LibFormats {
			lib.Formats = append(lib.Formats, engine.OutputFormat(f))
		}
		inline.Lib = lib
	}
	return inline
}

// loadConfig reads the configuration file when present. A missing file is not
// an error; builds then run on defaults against the current directory.
func loadConfig(configPath string) (*config.Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		cfg := &config.Config{}
		cfg.ApplyDefaults(cwd)
		return cfg, nil
	}
	return config.Load(configPath)
}
