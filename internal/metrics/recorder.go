// Package metrics defines observability hooks for build execution.
package metrics

import "time"

// Build outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Recorder defines observability hooks for build metrics. Implementations may
// forward to Prometheus, OpenTelemetry, etc. The NoopRecorder is used when
// metrics are not configured.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string)
	IncWarningVerdict(verdict string)
	IncOutputGenerated(format string)
	SetActiveBuilds(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string)             {}
func (NoopRecorder) IncWarningVerdict(string)           {}
func (NoopRecorder) IncOutputGenerated(string)          {}
func (NoopRecorder) SetActiveBuilds(int)                {}
