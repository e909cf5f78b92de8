// Package build provides the canonical production-build execution pipeline
// for sitepack. All execution paths (CLI, tests, embedding callers) route
// through Service.
package build
