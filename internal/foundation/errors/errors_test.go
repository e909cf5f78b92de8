package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifiedError_ErrorString(t *testing.T) {
	err := NewError(CategoryValidation, "library name required").Build()
	require.Equal(t, "[validation:error] library name required", err.Error())

	wrapped := WrapError(fmt.Errorf("boom"), CategoryBundler, "engine failed").Fatal().Build()
	require.Equal(t, "[bundler:fatal] engine failed: boom", wrapped.Error())
}

func TestClassifiedError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := WrapError(cause, CategoryBundler, "engine failed").Build()
	require.ErrorIs(t, err, cause)
}

func TestIsCategory(t *testing.T) {
	err := NewError(CategoryResolution, "unresolved import").Build()
	outer := fmt.Errorf("build: %w", err)

	require.True(t, IsCategory(outer, CategoryResolution))
	require.False(t, IsCategory(outer, CategoryValidation))
	require.False(t, IsCategory(stderrors.New("plain"), CategoryResolution))
}

func TestWithContext_DoesNotMutateOriginal(t *testing.T) {
	base := NewError(CategoryBundler, "engine failed").Build()
	enriched := base.WithContext(ContextPlugin, "terser")

	_, ok := base.Context().Get(ContextPlugin)
	require.False(t, ok)
	v, ok := enriched.Context().Get(ContextPlugin)
	require.True(t, ok)
	require.Equal(t, "terser", v)
}

func TestCLIAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	require.Equal(t, 0, a.ExitCodeFor(nil))
	require.Equal(t, 1, a.ExitCodeFor(stderrors.New("plain")))
	require.Equal(t, 2, a.ExitCodeFor(NewError(CategoryValidation, "x").Build()))
	require.Equal(t, 7, a.ExitCodeFor(NewError(CategoryConfig, "x").Build()))
	require.Equal(t, 9, a.ExitCodeFor(NewError(CategoryResolution, "x").Build()))
	require.Equal(t, 11, a.ExitCodeFor(NewError(CategoryBundler, "x").Build()))
}

func TestCLIAdapter_FormatIncludesBundlerContext(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	err := NewError(CategoryBundler, "transform failed").
		WithContext(ContextPlugin, "terser").
		WithContext(ContextLocation, "src/main.ts:4:12").
		WithContext(ContextFrame, "  const x =").
		Build()

	out := a.FormatError(err)
	require.Contains(t, out, "transform failed")
	require.Contains(t, out, "plugin: terser")
	require.Contains(t, out, "at: src/main.ts:4:12")
	require.Contains(t, out, "const x =")
}
