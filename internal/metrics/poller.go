package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Poller Prometheus metrics.
var (
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glmusage",
			Name:      "polls_total",
			Help:      "Total number of completed polls by outcome",
		},
		[]string{"result"}, // "changed" / "unchanged" / "error"
	)

	PollErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glmusage",
			Name:      "poll_errors_total",
			Help:      "Total poll failures by class",
		},
		[]string{"kind"},
	)

	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "glmusage",
			Name:      "poll_duration_seconds",
			Help:      "Duration of one fetch against the monitor API",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	PollInterval = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "glmusage",
			Name:      "poll_interval_seconds",
			Help:      "Interval the scheduler armed for the next poll",
		},
	)

	HistoryEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "glmusage",
			Name:      "history_entries",
			Help:      "Entries currently held in the in-memory history buffer",
		},
	)

	QuotaPercentage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "glmusage",
			Name:      "quota_percentage",
			Help:      "Last observed usage percentage per quota entry",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// Register registers the poller and HTTP metrics with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PollsTotal,
			PollErrorsTotal,
			PollDuration,
			PollInterval,
			HistoryEntries,
			QuotaPercentage,
			HTTPRequestDuration,
			HTTPRequestsTotal,
		)
	})
}
