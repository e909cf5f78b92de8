// Package manifest maps logical asset names onto the hashed filenames a build
// emitted, so deployment tooling can locate outputs without knowing hashes.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitepack/internal/engine"
)

// Entry describes one emitted file.
type Entry struct {
	// File is the emitted path relative to the output directory.
	File string `json:"file"`

	// IsEntry marks files generated for an entry point.
	IsEntry bool `json:"isEntry,omitempty"`
}

// AssetManifest maps logical names to emitted files.
type AssetManifest map[string]Entry

// hashSuffix matches a content-hash qualifier like "main.4f8a1c2b" before the
// extension.
var hashSuffix = regexp.MustCompile(`\.[0-9a-f]{8,}$`)

// FromOutputs builds a manifest from generated output sets. The logical name
// of a file is its emitted name with any content-hash qualifier removed.
func FromOutputs(outputs []*engine.Output) AssetManifest {
	m := AssetManifest{}
	for _, out := range outputs {
		if out == nil {
			continue
		}
		for _, f := range out.Files {
			m[LogicalName(f.Name)] = Entry{File: f.Name, IsEntry: f.IsEntry}
		}
	}
	return m
}

// LogicalName strips the content-hash qualifier from an emitted filename:
// "assets/main.4f8a1c2b.js" becomes "assets/main.js".
func LogicalName(emitted string) string {
	ext := filepath.Ext(emitted)
	stem := strings.TrimSuffix(emitted, ext)
	stem = hashSuffix.ReplaceAllString(stem, "")
	return stem + ext
}

// WriteFile serializes the manifest as JSON under dir.
func (m AssetManifest) WriteFile(dir, name string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
