// Package metrics exposes Prometheus collectors for the savings-group service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the service records. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	paymentsRecorded   *prometheus.CounterVec
	remindersSent      *prometheus.CounterVec
	versionConflicts   prometheus.Counter
	reportCacheResults *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New builds and registers the collectors on registerer. Passing nil uses
// prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		paymentsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ajo_payments_recorded_total",
				Help: "Payment records created or updated, by operation.",
			},
			[]string{"operation"}, // record | update
		),
		remindersSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ajo_reminders_dispatched_total",
				Help: "Reminder recipients handed to a dispatcher, by channel and result.",
			},
			[]string{"channel", "result"}, // result: accepted | failed
		),
		versionConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ajo_group_version_conflicts_total",
				Help: "Optimistic concurrency conflicts detected while saving a group.",
			},
		),
		reportCacheResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ajo_report_cache_requests_total",
				Help: "Report cache lookups by result.",
			},
			[]string{"result"}, // hit | miss
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ajo_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern and status code.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}

	registerer.MustRegister(
		m.paymentsRecorded,
		m.remindersSent,
		m.versionConflicts,
		m.reportCacheResults,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) PaymentRecorded(operation string) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(operation).Inc()
}

func (m *Metrics) RemindersDispatched(channel string, count int, err error) {
	if m == nil || count == 0 {
		return
	}
	result := "accepted"
	if err != nil {
		result = "failed"
	}
	m.remindersSent.WithLabelValues(channel, result).Add(float64(count))
}

func (m *Metrics) VersionConflict() {
	if m == nil {
		return
	}
	m.versionConflicts.Inc()
}

func (m *Metrics) ReportCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reportCacheResults.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
