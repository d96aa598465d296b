// Package metrics exports journal activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stash"

// Journal implements journal.Recorder with Prometheus collectors
type Journal struct {
	commitsTotal   *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
	volatileTotal  *prometheus.CounterVec
	recordDuration *prometheus.HistogramVec
	replayEntries  *prometheus.GaugeVec
	replayDuration *prometheus.HistogramVec
}

// NewJournal creates the journal collectors and registers them on reg. A nil reg leaves
// them unregistered.
func NewJournal(reg prometheus.Registerer) *Journal {
	factory := promauto.With(reg)

	return &Journal{
		commitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "journal",
				Name:      "commits_total",
				Help:      "Total number of committed journal entries",
			},
			[]string{"journal", "method"},
		),

		failuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "journal",
				Name:      "failures_total",
				Help:      "Total number of recorded calls that failed and were rolled back",
			},
			[]string{"journal", "method"},
		),

		volatileTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "journal",
				Name:      "volatile_calls_total",
				Help:      "Total number of volatile calls forwarded without recording",
			},
			[]string{"journal", "method"},
		),

		recordDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "journal",
				Name:      "record_duration_seconds",
				Help:      "Time to encode, apply and commit one journal entry",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
			},
			[]string{"journal"},
		),

		replayEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "journal",
				Name:      "replay_entries",
				Help:      "Number of entries replayed by the last open",
			},
			[]string{"journal"},
		),

		replayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "journal",
				Name:      "replay_duration_seconds",
				Help:      "Time to replay a journal log on open",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"journal"},
		),
	}
}

// Committed records a committed entry
func (m *Journal) Committed(journal, method string, took time.Duration) {
	m.commitsTotal.WithLabelValues(journal, method).Inc()
	m.recordDuration.WithLabelValues(journal).Observe(took.Seconds())
}

// Failed records a rolled back call
func (m *Journal) Failed(journal, method string) {
	m.failuresTotal.WithLabelValues(journal, method).Inc()
}

// Volatile records a forwarded volatile call
func (m *Journal) Volatile(journal, method string) {
	m.volatileTotal.WithLabelValues(journal, method).Inc()
}

// Replayed records a completed replay
func (m *Journal) Replayed(journal string, entries uint64, took time.Duration) {
	m.replayEntries.WithLabelValues(journal).Set(float64(entries))
	m.replayDuration.WithLabelValues(journal).Observe(took.Seconds())
}
