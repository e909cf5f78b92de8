package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_Registers(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveBuildDuration(2 * time.Second)
	pr.IncBuildOutcome(OutcomeSuccess)
	pr.IncWarningVerdict("suppress")
	pr.IncOutputGenerated("es")
	pr.SetActiveBuilds(2)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["sitepack_build_duration_seconds"])
	require.True(t, names["sitepack_build_outcomes_total"])
	require.True(t, names["sitepack_warning_verdicts_total"])
	require.True(t, names["sitepack_outputs_generated_total"])
	require.True(t, names["sitepack_active_builds"])
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(OutcomeFailed)
	r.IncWarningVerdict("forward")
	r.IncOutputGenerated("umd")
	r.SetActiveBuilds(0)
}
