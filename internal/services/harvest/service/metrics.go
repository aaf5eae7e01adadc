package service

import (
	"time"

	"tubemail/internal/platform/metrics"
	"tubemail/internal/services/harvest/discover"
	"tubemail/internal/services/harvest/domain"
	"tubemail/internal/services/harvest/pacing"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the run counters exported to the textfile collector
// a nil *Metrics records nothing
type Metrics struct {
	iterations      prometheus.Counter
	discovered      prometheus.Gauge
	extractions     *prometheus.CounterVec
	emailsFound     prometheus.Counter
	pacingSleep     *prometheus.CounterVec
	extractDuration prometheus.Histogram
}

// extraction outcomes
const (
	outcomeOK            = "ok"
	outcomeNoDescription = "no_description"
	outcomeFailed        = "failed"
)

// NewMetrics registers the harvest collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metrics.Namespace, Name: "discover_iterations_total",
			Help: "Snapshot queries issued while discovering videos.",
		}),
		discovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace, Name: "items_discovered",
			Help: "Unique videos returned by the last discovery.",
		}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace, Name: "extractions_total",
			Help: "Processed videos by outcome.",
		}, []string{"outcome"}),
		emailsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metrics.Namespace, Name: "emails_found_total",
			Help: "Email occurrences found in descriptions.",
		}),
		pacingSleep: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace, Name: "pacing_sleep_seconds_total",
			Help: "Seconds the submit loop spent pacing, by rule.",
		}, []string{"kind"}),
		extractDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metrics.Namespace, Name: "extract_duration_seconds",
			Help:    "Wall time of one video extraction.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.iterations, m.discovered, m.extractions, m.emailsFound, m.pacingSleep, m.extractDuration)
	}
	return m
}

func (m *Metrics) observeDiscovery(r discover.Result) {
	if m == nil {
		return
	}
	m.iterations.Add(float64(r.Iterations))
	m.discovered.Set(float64(len(r.Items)))
}

func (m *Metrics) observeExtraction(r domain.ExtractionResult, took time.Duration) {
	if m == nil {
		return
	}
	m.extractDuration.Observe(took.Seconds())
	switch {
	case r.Failed():
		m.extractions.WithLabelValues(outcomeFailed).Inc()
	case !r.HasDescription:
		m.extractions.WithLabelValues(outcomeNoDescription).Inc()
	default:
		m.extractions.WithLabelValues(outcomeOK).Inc()
	}
	m.emailsFound.Add(float64(len(r.Emails)))
}

func (m *Metrics) observePause(p pacing.Pause) {
	if m == nil {
		return
	}
	m.pacingSleep.WithLabelValues(string(p.Kind)).Add(p.D.Seconds())
}
