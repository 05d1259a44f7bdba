// Package metrics defines Prometheus metrics for the polling pipeline.
//
// Metric naming follows Prometheus conventions:
//   - gbelt_ prefix for all metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll results.
const (
	PollOK = "ok"
)

// Metrics groups the collectors of one agent.
type Metrics struct {
	registry *prometheus.Registry

	// PollsTotal counts polls by device nickname and result.
	PollsTotal *prometheus.CounterVec
	// TransitionsTotal counts alarm transitions by kind.
	TransitionsTotal *prometheus.CounterVec
	// NotificationsTotal counts notification attempts by result.
	NotificationsTotal *prometheus.CounterVec
	// SkipsTotal counts alarms skipped by correlation, by device nickname.
	SkipsTotal *prometheus.CounterVec
	// ActiveAlarms is the number of currently tripped fingerprints.
	ActiveAlarms prometheus.Gauge
	// CycleDurationSeconds observes the duration of whole poll cycles.
	CycleDurationSeconds prometheus.Histogram
	// ConfigReloadsTotal counts reload attempts by result.
	ConfigReloadsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbelt_polls_total",
				Help: "Total device polls by device and result.",
			},
			[]string{"device", "result"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbelt_alarm_transitions_total",
				Help: "Total alarm state transitions by kind.",
			},
			[]string{"kind"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbelt_notifications_total",
				Help: "Total notification attempts by result.",
			},
			[]string{"result"},
		),
		SkipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbelt_correlation_skips_total",
				Help: "Total alarms skipped because their device or field was not reported.",
			},
			[]string{"device"},
		),
		ActiveAlarms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gbelt_active_alarms",
				Help: "Number of alarm rules currently tripped.",
			},
		),
		CycleDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gbelt_cycle_duration_seconds",
				Help:    "Duration of poll cycles in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		ConfigReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbelt_config_reloads_total",
				Help: "Total configuration reload attempts by result.",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.PollsTotal,
		m.TransitionsTotal,
		m.NotificationsTotal,
		m.SkipsTotal,
		m.ActiveAlarms,
		m.CycleDurationSeconds,
		m.ConfigReloadsTotal,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordPoll records a poll outcome; result is PollOK or a failure kind.
func (m *Metrics) RecordPoll(device, result string) {
	if m == nil {
		return
	}

	m.PollsTotal.WithLabelValues(device, result).Inc()
}

// RecordTransition records an alert or clear transition.
func (m *Metrics) RecordTransition(kind string) {
	if m == nil {
		return
	}

	m.TransitionsTotal.WithLabelValues(kind).Inc()
}

// RecordSkip records an alarm dropped by correlation.
func (m *Metrics) RecordSkip(device string) {
	if m == nil {
		return
	}

	m.SkipsTotal.WithLabelValues(device).Inc()
}

// SetActiveAlarms sets the active alarm gauge.
func (m *Metrics) SetActiveAlarms(n int) {
	if m == nil {
		return
	}

	m.ActiveAlarms.Set(float64(n))
}

// RecordCycle observes the duration of one cycle.
func (m *Metrics) RecordCycle(d time.Duration) {
	if m == nil {
		return
	}

	m.CycleDurationSeconds.Observe(d.Seconds())
}

// NotificationSent implements the notifier's delivery observer.
func (m *Metrics) NotificationSent(ok bool) {
	if m == nil {
		return
	}

	m.NotificationsTotal.WithLabelValues(outcome(ok, "sent")).Inc()
}

// ConfigReloaded implements the store's reload observer.
func (m *Metrics) ConfigReloaded(ok bool) {
	if m == nil {
		return
	}

	m.ConfigReloadsTotal.WithLabelValues(outcome(ok, "ok")).Inc()
}

func outcome(ok bool, success string) string {
	if ok {
		return success
	}

	return "failed"
}
