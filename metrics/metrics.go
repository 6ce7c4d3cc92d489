// Package metrics exposes Prometheus instrumentation for report runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors recorded by the workflow controller.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RunsStarted    prometheus.Counter
	RunsCompleted  *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	StageRuns      *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	RosterFallback prometheus.Counter
	InterviewsLost prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sage_runs_started_total",
			Help: "Total number of report runs started",
		}),
		RunsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sage_runs_completed_total",
			Help: "Total number of report runs finished, by status",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sage_run_duration_seconds",
			Help:    "Report run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		StageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sage_stage_executions_total",
			Help: "Total number of workflow stage executions, by stage and status",
		}, []string{"stage", "status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sage_stage_duration_seconds",
			Help:    "Workflow stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		RosterFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sage_roster_fallback_total",
			Help: "Total number of runs that used the fallback analyst roster",
		}),
		InterviewsLost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sage_interviews_skipped_total",
			Help: "Total number of interviews skipped after a failure",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RunsStarted,
			m.RunsCompleted,
			m.RunDuration,
			m.StageRuns,
			m.StageDuration,
			m.RosterFallback,
			m.InterviewsLost,
		)
	}
	return m
}

// RunStarted records the start of a run.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsStarted.Inc()
}

// RunFinished records the outcome of a run.
func (m *Metrics) RunFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsCompleted.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// StageFinished records one stage execution.
func (m *Metrics) StageFinished(stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageRuns.WithLabelValues(stage, status).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Fallback records a run that fell back to the default roster.
func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.RosterFallback.Inc()
}

// InterviewSkipped records an isolated interview failure.
func (m *Metrics) InterviewSkipped() {
	if m == nil {
		return
	}
	m.InterviewsLost.Inc()
}
