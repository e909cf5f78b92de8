package build

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepack/internal/config"
)

func TestMergeOptions_InlineWins(t *testing.T) {
	fileOut := "dist"
	fileBase := "/app"
	inlineOut := "build"

	base := &config.BuildOptions{OutDir: &fileOut, Base: &fileBase}
	inline := &config.BuildOptions{OutDir: &inlineOut}

	merged := MergeOptions(base, inline)
	require.Equal(t, "build", *merged.OutDir)
	require.Equal(t, "/app", *merged.Base)

	// Inputs are not mutated.
	require.Equal(t, "dist", *base.OutDir)
}

func TestMergeOptions_NilSafe(t *testing.T) {
	merged := MergeOptions(nil, nil)
	require.NotNil(t, merged)
	require.Nil(t, merged.OutDir)

	lib := &config.LibraryOptions{Entry: "src/index.ts", Name: "L"}
	merged = MergeOptions(nil, &config.BuildOptions{Lib: lib})
	require.Equal(t, lib, merged.Lib)
}
