package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/engine"
	foundation "git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

func TestResolveOutputs_AppPassesThrough(t *testing.T) {
	specs, err := ResolveOutputs(nil, nil, nil)
	require.NoError(t, err)
	require.Nil(t, specs)

	user := &config.OutputList{Specs: []config.OutputSpec{{EntryFileNames: "app.js"}}}
	specs, err = ResolveOutputs(user, nil, nil)
	require.NoError(t, err)
	require.Equal(t, user.Specs, specs)
}

func TestResolveOutputs_LibDefaultFormats(t *testing.T) {
	lib := &config.LibraryOptions{Entry: "src/index.ts", Name: "MyLib"}
	specs, err := ResolveOutputs(nil, lib, nil)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	require.Equal(t, engine.FormatES, specs[0].Format)
	require.Equal(t, engine.FormatUMD, specs[1].Format)
}

func TestResolveOutputs_LibExplicitFormatsTwoDescriptors(t *testing.T) {
	lib := &config.LibraryOptions{
		Entry:   "src/index.ts",
		Formats: []engine.OutputFormat{engine.FormatES, engine.FormatCJS},
	}
	specs, err := ResolveOutputs(nil, lib, nil)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	require.Equal(t, engine.FormatES, specs[0].Format)
	require.Equal(t, engine.FormatCJS, specs[1].Format)
}

func TestResolveOutputs_UMDWithoutNameFails(t *testing.T) {
	lib := &config.LibraryOptions{
		Entry:   "src/index.ts",
		Formats: []engine.OutputFormat{engine.FormatUMD},
	}
	_, err := ResolveOutputs(nil, lib, nil)
	require.Error(t, err)
	require.True(t, foundation.IsCategory(err, foundation.CategoryValidation))
}

func TestResolveOutputs_SingleUserConfigOverriddenPerFormat(t *testing.T) {
	lib := &config.LibraryOptions{
		Entry:   "src/index.ts",
		Name:    "MyLib",
		Formats: []engine.OutputFormat{engine.FormatES, engine.FormatIIFE},
	}
	user := &config.OutputList{Specs: []config.OutputSpec{{ChunkFileNames: "shared-[name].js"}}}

	specs, err := ResolveOutputs(user, lib, nil)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	for i, f := range lib.Formats {
		require.Equal(t, f, specs[i].Format)
		require.Equal(t, "shared-[name].js", specs[i].ChunkFileNames)
	}
}

func TestResolveOutputs_ArrayWinsOverFormats(t *testing.T) {
	lib := &config.LibraryOptions{
		Entry:   "src/index.ts",
		Name:    "MyLib",
		Formats: []engine.OutputFormat{engine.FormatES},
	}
	user := &config.OutputList{
		IsArray: true,
		Specs: []config.OutputSpec{
			{Format: engine.FormatCJS},
			{Format: engine.FormatIIFE},
		},
	}

	specs, err := ResolveOutputs(user, lib, nil)
	require.NoError(t, err)
	require.Equal(t, user.Specs, specs)
}

func libResolved(t *testing.T, lib *config.LibraryOptions) *config.ResolvedBuildOptions {
	t.Helper()
	r, err := config.ResolveBuildOptions(&config.BuildOptions{Lib: lib})
	require.NoError(t, err)
	return r
}

func TestDescriptors_LibraryFlatNames(t *testing.T) {
	root := t.TempDir()
	pkg := []byte(`{"name": "@scope/mylib"}`)
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), pkg, 0o644))

	lib := &config.LibraryOptions{Entry: "src/index.ts", Name: "MyLib"}
	resolved := libResolved(t, lib)

	specs := []config.OutputSpec{{Format: engine.FormatES}, {Format: engine.FormatUMD}}
	descs := Descriptors(specs, resolved, root, filepath.Join(root, "dist"))
	require.Len(t, descs, 2)

	require.Equal(t, "mylib.es.js", descs[0].EntryFileNames)
	require.Equal(t, "mylib.umd.js", descs[1].EntryFileNames)
	require.Equal(t, "[name].js", descs[0].ChunkFileNames)
	require.Equal(t, "[name].[ext]", descs[0].AssetFileNames)
	require.Equal(t, "MyLib", descs[1].GlobalName)
	require.True(t, descs[0].NamespaceToStringTag)
}

func TestDescriptors_ApplicationHashedNames(t *testing.T) {
	resolved, err := config.ResolveBuildOptions(nil)
	require.NoError(t, err)

	descs := Descriptors(nil, resolved, t.TempDir(), "/out")
	require.Len(t, descs, 1)
	require.Equal(t, engine.FormatES, descs[0].Format)
	require.Equal(t, "assets/[name].[hash].js", descs[0].EntryFileNames)
	require.Equal(t, "assets/[name].[hash].js", descs[0].ChunkFileNames)
	require.Equal(t, "assets/[name].[hash].[ext]", descs[0].AssetFileNames)
	require.Equal(t, "/out", descs[0].Dir)
	require.True(t, descs[0].NamespaceToStringTag)
}

func TestLibFileBase_Fallbacks(t *testing.T) {
	emptyRoot := t.TempDir()
	lib := &config.LibraryOptions{Entry: "src/index.ts", Name: "MyLib"}
	require.Equal(t, "MyLib", LibFileBase(emptyRoot, lib))
	require.Equal(t, "lib", LibFileBase(emptyRoot, &config.LibraryOptions{Entry: "e.ts"}))
}
