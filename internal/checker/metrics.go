package checker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preflight_runs_total",
		Help: "Check runs by mode and outcome",
	}, []string{"mode", "outcome"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "preflight_run_duration_seconds",
		Help:    "Time to complete a check run",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	}, []string{"mode"})

	fieldsChecked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preflight_fields_total",
		Help: "Fields seen by check runs, by result",
	}, []string{"result"})

	pluginOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preflight_plugin_outcomes_total",
		Help: "Plugin outcomes by plugin and result",
	}, []string{"plugin", "result"})
)

func outcomeLabel(failed bool) string {
	if failed {
		return "failed"
	}
	return "passed"
}
