// Package errors provides foundational, type-safe error primitives used
// across sitepack.
//
// This package contains classified error types and helpers for robust error
// handling, including a fluent builder API for constructing ClassifiedError
// values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, validation, bundler, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for error presentation and exit codes
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryValidation, "UMD format requires a library name").
//		WithContext("formats", formats).
//		Build()
package errors
