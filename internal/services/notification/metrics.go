package notification

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the processor's prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	outcomes   *prometheus.CounterVec
	casRetries prometheus.Counter
	duration   prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payhook",
			Subsystem: "processor",
			Name:      "notifications_total",
			Help:      "Notifications processed, by outcome.",
		}, []string{"outcome"}),
		casRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "payhook",
			Subsystem: "processor",
			Name:      "cas_conflicts_total",
			Help:      "Compare-and-set attempts that lost to a concurrent writer.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "payhook",
			Subsystem: "processor",
			Name:      "process_duration_seconds",
			Help:      "Time spent applying one notification.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
}

// Register adds the collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.outcomes, m.casRetries, m.duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observe(outcome Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(string(outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) casRetry() {
	if m == nil {
		return
	}
	m.casRetries.Inc()
}
