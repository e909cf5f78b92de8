package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepack/internal/engine"
	foundation "git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestResolveBuildOptions_Defaults(t *testing.T) {
	r, err := ResolveBuildOptions(nil)
	require.NoError(t, err)

	require.Equal(t, "/", r.Base)
	require.Equal(t, "dist", r.OutDir)
	require.Equal(t, "assets", r.AssetsDir)
	require.Equal(t, 4096, r.AssetsInlineLimit)
	require.True(t, r.CSSCodeSplit)
	require.True(t, r.PolyfillDynamicImport)
	require.True(t, r.Write)
	require.False(t, r.Manifest)
	require.Equal(t, MinifyTerser, r.Minify)
	require.Equal(t, DefaultTargets, r.Targets)
}

func TestResolveBuildOptions_BaseSeparator(t *testing.T) {
	cases := map[string]string{
		"/sub":   "/sub/",
		"/sub/":  "/sub/",
		"./":     "./",
		".":      "./",
		"https://cdn.example.com/app": "https://cdn.example.com/app/",
	}
	for in, want := range cases {
		r, err := ResolveBuildOptions(&BuildOptions{Base: strPtr(in)})
		require.NoError(t, err)
		require.Equal(t, want, r.Base, "base %q", in)
	}
}

func TestResolveBuildOptions_TargetModulesExpands(t *testing.T) {
	r, err := ResolveBuildOptions(&BuildOptions{Target: TargetList{TargetModules}})
	require.NoError(t, err)
	require.Equal(t, []string{"es2019", "edge16", "firefox60", "chrome61", "safari11"}, r.Targets)
}

func TestResolveBuildOptions_ESNextWithTerserDowngrades(t *testing.T) {
	r, err := ResolveBuildOptions(&BuildOptions{Target: TargetList{TargetESNext}})
	require.NoError(t, err)
	require.Equal(t, []string{ESNextFallbackTarget}, r.Targets)
}

func TestResolveBuildOptions_ESNextWithEsbuildMinifyKept(t *testing.T) {
	r, err := ResolveBuildOptions(&BuildOptions{
		Target: TargetList{TargetESNext},
		Minify: strPtr("esbuild"),
	})
	require.NoError(t, err)
	require.Equal(t, []string{TargetESNext}, r.Targets)
}

func TestResolveBuildOptions_ExplicitTargetPassesThrough(t *testing.T) {
	r, err := ResolveBuildOptions(&BuildOptions{Target: TargetList{"chrome80", "firefox72"}})
	require.NoError(t, err)
	require.Equal(t, []string{"chrome80", "firefox72"}, r.Targets)
}

func TestResolveBuildOptions_PolyfillDynamicImport(t *testing.T) {
	r, err := ResolveBuildOptions(&BuildOptions{Target: TargetList{TargetESNext}})
	require.NoError(t, err)
	require.False(t, r.PolyfillDynamicImport)

	r, err = ResolveBuildOptions(&BuildOptions{
		Lib: &LibraryOptions{Entry: "src/index.ts", Name: "MyLib"},
	})
	require.NoError(t, err)
	require.False(t, r.PolyfillDynamicImport)
	require.False(t, r.CSSCodeSplit)

	// Explicit user value beats the library default.
	r, err = ResolveBuildOptions(&BuildOptions{
		Lib:                   &LibraryOptions{Entry: "src/index.ts", Name: "MyLib"},
		PolyfillDynamicImport: boolPtr(true),
	})
	require.NoError(t, err)
	require.True(t, r.PolyfillDynamicImport)
}

func TestResolveBuildOptions_MinifyStringFalse(t *testing.T) {
	r, err := ResolveBuildOptions(&BuildOptions{Minify: strPtr("false")})
	require.NoError(t, err)
	require.Equal(t, MinifyOff, r.Minify)

	_, err = ResolveBuildOptions(&BuildOptions{Minify: strPtr("uglify")})
	require.Error(t, err)
	require.True(t, foundation.IsCategory(err, foundation.CategoryValidation))
}

func TestResolveBuildOptions_UMDWithoutNameFails(t *testing.T) {
	_, err := ResolveBuildOptions(&BuildOptions{
		Lib: &LibraryOptions{
			Entry:   "src/index.ts",
			Formats: []engine.OutputFormat{engine.FormatUMD},
		},
	})
	require.Error(t, err)
	require.True(t, foundation.IsCategory(err, foundation.CategoryValidation))
	require.Contains(t, err.Error(), "requires a name")
}

func TestResolveBuildOptions_DefaultLibFormatsNeedName(t *testing.T) {
	// Default formats are {es, umd}, so a nameless library must fail even
	// without explicit formats.
	_, err := ResolveBuildOptions(&BuildOptions{
		Lib: &LibraryOptions{Entry: "src/index.ts"},
	})
	require.Error(t, err)
	require.True(t, foundation.IsCategory(err, foundation.CategoryValidation))
}

func TestResolveBuildOptions_ESOnlyLibraryNeedsNoName(t *testing.T) {
	r, err := ResolveBuildOptions(&BuildOptions{
		Lib: &LibraryOptions{
			Entry:   "src/index.ts",
			Formats: []engine.OutputFormat{engine.FormatES, engine.FormatCJS},
		},
	})
	require.NoError(t, err)
	require.True(t, r.IsLibrary())
}

func TestResolveBuildOptions_ModulesMixedWithOthersFails(t *testing.T) {
	_, err := ResolveBuildOptions(&BuildOptions{Target: TargetList{"modules", "chrome61"}})
	require.Error(t, err)
	require.True(t, foundation.IsCategory(err, foundation.CategoryValidation))
}
