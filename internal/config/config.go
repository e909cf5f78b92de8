package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the resolved project configuration the orchestrator consumes.
type Config struct {
	// Root is the project root directory; relative paths resolve against it.
	Root string `yaml:"root,omitempty"`

	// PublicDir is the conventional static-assets directory copied verbatim
	// into the output root during write-mode builds.
	PublicDir string `yaml:"publicDir,omitempty"`

	// LogLevel controls CLI logging ("debug", "info", "warn", "error").
	// Empty means the default informational level.
	LogLevel string `yaml:"logLevel,omitempty"`

	// AllowedBuiltinPrefixes lists dependency-name prefixes permitted to
	// import runtime built-in modules without failing the build.
	AllowedBuiltinPrefixes []string `yaml:"allowedBuiltinPrefixes,omitempty"`

	// HistoryDB is the optional path of the sqlite build-history database.
	// Empty disables history recording.
	HistoryDB string `yaml:"historyDb,omitempty"`

	Build BuildOptions `yaml:"build,omitempty"`
}

// Load reads the project configuration from configPath. Environment variables
// referenced as ${VAR} in the file are expanded; a .env file next to the
// config is loaded first if present.
func Load(configPath string) (*Config, error) {
	if envPath := filepath.Join(filepath.Dir(configPath), ".env"); fileExists(envPath) {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ApplyDefaults(filepath.Dir(configPath))
	return cfg, nil
}

// ApplyDefaults fills zero-valued project fields. baseDir anchors a relative
// or empty root.
func (c *Config) ApplyDefaults(baseDir string) {
	if c.Root == "" {
		c.Root = baseDir
	}
	if c.Root == "" {
		c.Root = "."
	}
	if !filepath.IsAbs(c.Root) {
		c.Root = filepath.Join(baseDir, c.Root)
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
}

// PublicPath returns the absolute static-assets directory.
func (c *Config) PublicPath() string {
	if filepath.IsAbs(c.PublicDir) {
		return c.PublicDir
	}
	return filepath.Join(c.Root, c.PublicDir)
}

// OutPath resolves an output directory against the project root.
func (c *Config) OutPath(outDir string) string {
	if filepath.IsAbs(outDir) {
		return outDir
	}
	return filepath.Join(c.Root, outDir)
}

// Init writes a starter configuration file to configPath. An existing file is
// only overwritten when force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	base := "/"
	outDir := "dist"
	sourcemap := "false"
	minify := "terser"
	example := Config{
		Root:      ".",
		PublicDir: "public",
		Build: BuildOptions{
			Base:      &base,
			OutDir:    &outDir,
			Target:    TargetList{TargetModules},
			Sourcemap: &sourcemap,
			Minify:    &minify,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
