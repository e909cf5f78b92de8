package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyMode        = "mode"
	KeyFormat      = "format"
	KeyPlugin      = "plugin"
	KeyOutputFiles = "output_files"
	KeyDurationMS  = "duration_ms"
	KeyWarningCode = "warning_code"
	KeyEntry       = "entry"
	KeyOutDir      = "out_dir"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr       { return slog.String(KeyBuildID, id) }
func Mode(m string) slog.Attr           { return slog.String(KeyMode, m) }
func Format(f string) slog.Attr         { return slog.String(KeyFormat, f) }
func Plugin(name string) slog.Attr      { return slog.String(KeyPlugin, name) }
func OutputFiles(n int) slog.Attr       { return slog.Int(KeyOutputFiles, n) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func WarningCode(code string) slog.Attr { return slog.String(KeyWarningCode, code) }
func Entry(path string) slog.Attr       { return slog.String(KeyEntry, path) }
func OutDir(dir string) slog.Attr       { return slog.String(KeyOutDir, dir) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
