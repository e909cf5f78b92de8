package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
	warningVerdicts *prom.CounterVec
	outputsTotal    *prom.CounterVec
	activeBuilds    prom.Gauge
}

// NewPrometheusRecorder constructs and registers build metrics on reg
// (a private registry is created when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitepack",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepack",
			Name:      "build_outcomes_total",
			Help:      "Build outcome counts",
		}, []string{"outcome"}),
		warningVerdicts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepack",
			Name:      "warning_verdicts_total",
			Help:      "Engine warnings by triage verdict",
		}, []string{"verdict"}),
		outputsTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepack",
			Name:      "outputs_generated_total",
			Help:      "Generated output sets by module format",
		}, []string{"format"}),
		activeBuilds: prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitepack",
			Name:      "active_builds",
			Help:      "Currently active build invocations",
		}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.warningVerdicts, pr.outputsTotal, pr.activeBuilds)
	return pr
}

func (pr *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	pr.buildDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncBuildOutcome(outcome string) {
	pr.buildOutcome.WithLabelValues(outcome).Inc()
}

func (pr *PrometheusRecorder) IncWarningVerdict(verdict string) {
	pr.warningVerdicts.WithLabelValues(verdict).Inc()
}

func (pr *PrometheusRecorder) IncOutputGenerated(format string) {
	pr.outputsTotal.WithLabelValues(format).Inc()
}

func (pr *PrometheusRecorder) SetActiveBuilds(n int) {
	pr.activeBuilds.Set(float64(n))
}
