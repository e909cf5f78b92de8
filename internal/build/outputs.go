package build

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/engine"
)

// ResolveOutputs computes the final output descriptor list from the user's
// raw output configuration and library options.
//
// Application builds pass the user configuration through unchanged; the
// driver applies the single-descriptor default later. Library builds produce
// one descriptor per resolved format, unless the user supplied an array of
// output configurations, which always wins.
func ResolveOutputs(user *config.OutputList, lib *config.LibraryOptions, logger *slog.Logger) ([]config.OutputSpec, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if lib == nil {
		if user.Empty() {
			return nil, nil
		}
		return user.Specs, nil
	}

	formats := lib.Formats
	if len(formats) == 0 {
		formats = config.DefaultLibFormats
	}
	if err := config.ValidateLibraryName(formats, lib.Name); err != nil {
		return nil, err
	}

	if user.Empty() {
		specs := make([]config.OutputSpec, len(formats))
		for i, f := range formats {
			specs[i] = config.OutputSpec{Format: f}
		}
		return specs, nil
	}

	if !user.IsArray {
		base := user.Specs[0]
		specs := make([]config.OutputSpec, len(formats))
		for i, f := range formats {
			spec := base
			spec.Format = f
			specs[i] = spec
		}
		return specs, nil
	}

	if len(lib.Formats) > 0 {
		logger.Warn("lib.formats is ignored when engine.output is an array; the array entries decide the formats")
	}
	return user.Specs, nil
}

// Descriptors turn output specs into concrete engine output options, applying
// the naming scheme: library builds use flat format-qualified names derived
// from the package's declared name, application builds use content-hashed
// names nested under the assets subdirectory.
func Descriptors(specs []config.OutputSpec, resolved *config.ResolvedBuildOptions, root, outDir string) []engine.OutputOptions {
	if len(specs) == 0 {
		// Single unnamed descriptor default for application builds.
		specs = []config.OutputSpec{{Format: engine.FormatES}}
	}

	descriptors := make([]engine.OutputOptions, len(specs))
	for i, spec := range specs {
		opts := engine.OutputOptions{
			Format:               spec.Format,
			EntryFileNames:       spec.EntryFileNames,
			ChunkFileNames:       spec.ChunkFileNames,
			AssetFileNames:       spec.AssetFileNames,
			Dir:                  outDir,
			Sourcemap:            resolved.Sourcemap,
			NamespaceToStringTag: true,
		}
		if spec.Dir != "" {
			opts.Dir = spec.Dir
		}
		if opts.Format == "" {
			opts.Format = engine.FormatES
		}

		if resolved.IsLibrary() {
			name := LibFileBase(root, resolved.Lib)
			if opts.EntryFileNames == "" {
				opts.EntryFileNames = fmt.Sprintf("%s.%s.js", name, opts.Format)
			}
			if opts.ChunkFileNames == "" {
				opts.ChunkFileNames = "[name].js"
			}
			if opts.AssetFileNames == "" {
				opts.AssetFileNames = "[name].[ext]"
			}
			opts.GlobalName = resolved.Lib.Name
			if spec.GlobalName != "" {
				opts.GlobalName = spec.GlobalName
			}
		} else {
			assets := resolved.AssetsDir
			if opts.EntryFileNames == "" {
				opts.EntryFileNames = filepath.ToSlash(filepath.Join(assets, "[name].[hash].js"))
			}
			if opts.ChunkFileNames == "" {
				opts.ChunkFileNames = filepath.ToSlash(filepath.Join(assets, "[name].[hash].js"))
			}
			if opts.AssetFileNames == "" {
				opts.AssetFileNames = filepath.ToSlash(filepath.Join(assets, "[name].[hash].[ext]"))
			}
		}
		descriptors[i] = opts
	}
	return descriptors
}

// LibFileBase derives the flat library filename stem: the package's declared
// name (scope stripped), falling back to the library display name, then to
// "lib".
func LibFileBase(root string, lib *config.LibraryOptions) string {
	if name := packageName(root); name != "" {
		return filepath.Base(name)
	}
	if lib != nil && lib.Name != "" {
		return lib.Name
	}
	return "lib"
}

// packageName reads the declared name from the project's package manifest.
func packageName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return ""
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(data, &pkg) != nil {
		return ""
	}
	return pkg.Name
}
