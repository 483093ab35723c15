// Package metrics defines the Prometheus collectors exported by the bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Skip reasons reported by a sweep.
const (
	SkipNotDue    = "not_due"
	SkipPending   = "pending"
	SkipEmptyPool = "empty_pool"
	SkipRaced     = "raced"
	SkipFailed    = "failed"
)

// Metrics groups the bot's collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry prometheus.Gatherer

	sweeps           prometheus.Counter
	sweepDuration    prometheus.Histogram
	tasksAssigned    *prometheus.CounterVec
	sweepSkips       *prometheus.CounterVec
	deliveryFailures prometheus.Counter
	answersGraded    *prometheus.CounterVec
	gradingDuration  *prometheus.HistogramVec
	activeSessions   prometheus.Gauge
}

// New registers the collectors with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := NewWith(reg)
	m.registry = reg
	return m
}

// NewWith registers the collectors with reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sweeps: f.NewCounter(prometheus.CounterOpts{
			Name: "tutorbot_sweeps_total",
			Help: "Total number of daily-task sweeps",
		}),
		sweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutorbot_sweep_duration_seconds",
			Help:    "Time spent in one daily-task sweep",
			Buckets: prometheus.DefBuckets,
		}),
		tasksAssigned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorbot_tasks_assigned_total",
			Help: "Daily tasks assigned",
		}, []string{"level"}),
		sweepSkips: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorbot_sweep_skips_total",
			Help: "Users skipped during a sweep",
		}, []string{"reason"}),
		deliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tutorbot_delivery_failures_total",
			Help: "Daily tasks that were assigned but could not be sent",
		}),
		answersGraded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorbot_answers_graded_total",
			Help: "Grading calls, by purpose and verdict",
		}, []string{"purpose", "verdict"}),
		gradingDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutorbot_grading_duration_seconds",
			Help:    "Time spent grading one answer",
			Buckets: prometheus.DefBuckets,
		}, []string{"purpose"}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "tutorbot_assessments_in_progress",
			Help: "Assessments currently awaiting consent or answers",
		}),
	}
}

// Handler serves the registry created by New, or the default gatherer.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSweep records one finished sweep.
func (m *Metrics) ObserveSweep(d time.Duration) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.sweepDuration.Observe(d.Seconds())
}

// TaskAssigned counts an assignment at lvl.
func (m *Metrics) TaskAssigned(lvl string) {
	if m == nil {
		return
	}
	m.tasksAssigned.WithLabelValues(lvl).Inc()
}

// SweepSkip counts a user skipped for reason.
func (m *Metrics) SweepSkip(reason string) {
	if m == nil {
		return
	}
	m.sweepSkips.WithLabelValues(reason).Inc()
}

// DeliveryFailed counts a task that could not be sent.
func (m *Metrics) DeliveryFailed() {
	if m == nil {
		return
	}
	m.deliveryFailures.Inc()
}

// AnswerGraded records one grading call.
func (m *Metrics) AnswerGraded(purpose, verdict string, d time.Duration) {
	if m == nil {
		return
	}
	m.answersGraded.WithLabelValues(purpose, verdict).Inc()
	m.gradingDuration.WithLabelValues(purpose).Observe(d.Seconds())
}

// SessionsActive sets the number of open assessments.
func (m *Metrics) SessionsActive(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
