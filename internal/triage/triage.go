// Package triage classifies bundling-engine warnings. Classification is a
// pure tagged-result function: the bundle driver interprets an Escalate
// verdict by aborting the build, keeping control flow explicit instead of
// unwinding out of the warning callback.
package triage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitepack/internal/engine"
	foundation "git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/plugin"
)

// Action is the triage outcome for one warning.
type Action int

const (
	// Suppress drops the warning entirely.
	Suppress Action = iota

	// Forward hands the warning to a print handler.
	Forward

	// Escalate aborts the build with Verdict.Err.
	Escalate
)

func (a Action) String() string {
	switch a {
	case Suppress:
		return "suppress"
	case Forward:
		return "forward"
	case Escalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// Verdict is the classification result for one warning record.
type Verdict struct {
	Action Action

	// ToUser directs a Forward to the user-supplied handler instead of the
	// default one.
	ToUser bool

	// Err is the fatal error for an Escalate verdict.
	Err error
}

// Options parameterize classification.
type Options struct {
	// AllowedBuiltinPrefixes lists dependency-name prefixes permitted to
	// import runtime built-ins.
	AllowedBuiltinPrefixes []string

	// Root bounds the upward package-manifest search.
	Root string

	// HasUserHandler reports whether a user warning handler is configured.
	HasUserHandler bool

	// PackageNameFor overrides manifest lookup, for tests. When nil the
	// filesystem walk is used.
	PackageNameFor func(importer string) string
}

// commonjsExternalMarker tags importers produced by the interop shim for
// deliberately-external CommonJS dependencies.
const commonjsExternalMarker = "?commonjs-external"

// benignDynamicImportMessages are substrings of dynamic-import-rewriting
// warnings that indicate a statically-unanalyzable but semantically fine
// dynamic import.
var benignDynamicImportMessages = []string{
	"Unsupported expression",
	"statically analyzed",
}

// ignoredWarningCodes are always suppressed, user handler or not.
var ignoredWarningCodes = map[string]bool{
	engine.WarnCircularDependency: true,
	engine.WarnThisIsUndefined:    true,
}

// Classify applies the triage decision table to one warning record.
func Classify(rec engine.WarningRecord, opts Options) Verdict {
	if rec.Code == engine.WarnUnresolvedImport {
		return classifyUnresolved(rec, opts)
	}

	if rec.Plugin == plugin.NameDynamicImportVars {
		for _, benign := range benignDynamicImportMessages {
			if strings.Contains(rec.Message, benign) {
				return Verdict{Action: Suppress}
			}
		}
	}

	if ignoredWarningCodes[rec.Code] {
		return Verdict{Action: Suppress}
	}

	return Verdict{Action: Forward, ToUser: opts.HasUserHandler}
}

func classifyUnresolved(rec engine.WarningRecord, opts Options) Verdict {
	// Interop-externalized CommonJS modules resolve at runtime; advisory only.
	if strings.Contains(rec.Importer, commonjsExternalMarker) {
		return Verdict{Action: Forward}
	}

	if IsBuiltinModule(rec.Source) {
		depName := opts.packageName(rec.Importer)
		for _, prefix := range opts.AllowedBuiltinPrefixes {
			if prefix != "" && strings.HasPrefix(depName, prefix) {
				return Verdict{Action: Suppress}
			}
		}
		return Verdict{
			Action: Escalate,
			Err: foundation.NewError(foundation.CategoryResolution,
				fmt.Sprintf("dependency %q imports runtime built-in module %q, which cannot be bundled for the browser", depName, rec.Source)).
				WithContext("dependency", depName).
				WithContext("module", rec.Source).
				Build(),
		}
	}

	return Verdict{
		Action: Escalate,
		Err: foundation.NewError(foundation.CategoryResolution,
			fmt.Sprintf("import %q cannot be resolved; add it to engine.external if it is intentionally unbundled", rec.Source)).
			WithContext("module", rec.Source).
			WithContext("importer", rec.Importer).
			Build(),
	}
}

func (o Options) packageName(importer string) string {
	if o.PackageNameFor != nil {
		return o.PackageNameFor(importer)
	}
	return NearestPackageName(importer, o.Root)
}

// NearestPackageName walks up from importer to root looking for the closest
// package manifest and returns its declared name. Returns "" when no manifest
// is found or it carries no name.
func NearestPackageName(importer, root string) string {
	dir := filepath.Dir(importer)
	for {
		data, err := os.ReadFile(filepath.Join(dir, "package.json"))
		if err == nil {
			var pkg struct {
				Name string `json:"name"`
			}
			if json.Unmarshal(data, &pkg) == nil && pkg.Name != "" {
				return pkg.Name
			}
		}
		if dir == root || dir == filepath.Dir(dir) {
			return ""
		}
		dir = filepath.Dir(dir)
	}
}

// nodeBuiltins are module identifiers resolvable only inside a non-browser
// runtime.
var nodeBuiltins = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true,
	"cluster": true, "console": true, "constants": true, "crypto": true,
	"dgram": true, "dns": true, "domain": true, "events": true, "fs": true,
	"http": true, "http2": true, "https": true, "inspector": true,
	"module": true, "net": true, "os": true, "path": true, "perf_hooks": true,
	"process": true, "punycode": true, "querystring": true, "readline": true,
	"repl": true, "stream": true, "string_decoder": true, "timers": true,
	"tls": true, "trace_events": true, "tty": true, "url": true, "util": true,
	"v8": true, "vm": true, "worker_threads": true, "zlib": true,
}

// IsBuiltinModule reports whether id names a runtime built-in module.
func IsBuiltinModule(id string) bool {
	id = strings.TrimPrefix(id, "node:")
	if i := strings.IndexByte(id, '/'); i >= 0 {
		id = id[:i]
	}
	return nodeBuiltins[id]
}
