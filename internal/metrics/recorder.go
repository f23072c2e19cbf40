// Package metrics records run outcomes in Prometheus form for the textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"vcheck/internal/domain"
)

// Recorder collects per-case and per-run metrics. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry   *prometheus.Registry
	cases      *prometheus.CounterVec
	invocation *prometheus.HistogramVec
	runs       *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vcheck",
			Name:      "cases_total",
			Help:      "Scored cases by outcome (passed or the error kind).",
		}, []string{"fixture", "outcome"}),
		invocation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vcheck",
			Name:      "invocation_seconds",
			Help:      "Time from invocation to a scored verdict.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"fixture"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vcheck",
			Name:      "runs_total",
			Help:      "Fixture runs by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.cases, r.invocation, r.runs)
	return r
}

// ObserveCase records one scored case
func (r *Recorder) ObserveCase(fixture string, res domain.CaseResult) {
	if r == nil {
		return
	}
	outcome := "passed"
	if !res.Passed {
		outcome = string(res.Kind)
	}
	r.cases.WithLabelValues(fixture, outcome).Inc()
	r.invocation.WithLabelValues(fixture).Observe(res.DurationMs / 1000)
}

// ObserveRun records the result of one fixture run
func (r *Recorder) ObserveRun(report *domain.RunReport) {
	if r == nil {
		return
	}
	result := "passed"
	switch {
	case report.Meta.Error != "":
		result = "error"
	case report.Meta.Aborted:
		result = "aborted"
	case !report.AllPassed:
		result = "failed"
	}
	r.runs.WithLabelValues(result).Inc()
}

// Gatherer exposes the registry, mostly for tests
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
