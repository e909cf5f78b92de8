package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_ExpandsEnvAndDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SITEPACK_TEST_OUT", "build-out")

	cfgPath := filepath.Join(dir, "sitepack.yaml")
	content := `
logLevel: debug
build:
  outDir: ${SITEPACK_TEST_OUT}
  base: /app
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.Root)
	require.Equal(t, "public", cfg.PublicDir)
	require.Equal(t, "debug", cfg.LogLevel)
	require.NotNil(t, cfg.Build.OutDir)
	require.Equal(t, "build-out", *cfg.Build.OutDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestTargetList_ScalarAndSequence(t *testing.T) {
	var opts BuildOptions
	require.NoError(t, yaml.Unmarshal([]byte("target: esnext"), &opts))
	require.Equal(t, TargetList{"esnext"}, opts.Target)

	opts = BuildOptions{}
	require.NoError(t, yaml.Unmarshal([]byte("target: [chrome61, edge18]"), &opts))
	require.Equal(t, TargetList{"chrome61", "edge18"}, opts.Target)
}

func TestOutputList_SingleVsArray(t *testing.T) {
	var eng EngineOptions
	single := `
output:
  entryFileNames: main.js
`
	require.NoError(t, yaml.Unmarshal([]byte(single), &eng))
	require.False(t, eng.Output.IsArray)
	require.Len(t, eng.Output.Specs, 1)
	require.Equal(t, "main.js", eng.Output.Specs[0].EntryFileNames)

	eng = EngineOptions{}
	array := `
output:
  - format: es
  - format: cjs
`
	require.NoError(t, yaml.Unmarshal([]byte(array), &eng))
	require.True(t, eng.Output.IsArray)
	require.Len(t, eng.Output.Specs, 2)
}

func TestConfigPaths(t *testing.T) {
	cfg := &Config{Root: "/proj", PublicDir: "public"}
	require.Equal(t, filepath.Join("/proj", "public"), cfg.PublicPath())
	require.Equal(t, filepath.Join("/proj", "dist"), cfg.OutPath("dist"))
	require.Equal(t, "/elsewhere", cfg.OutPath("/elsewhere"))
}
