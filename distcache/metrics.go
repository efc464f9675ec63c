package distcache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/propstream/metric"
)

const subsystem = "distcache"

// distributorMetrics holds Prometheus metrics for cache publication
type distributorMetrics struct {
	puts      *prometheus.CounterVec   // component, result (ok/error)
	publishes *prometheus.CounterVec   // component, result (ok/error)
	duration  *prometheus.HistogramVec // component
	entries   *prometheus.GaugeVec     // component
}

func newDistributorMetrics(registry *metric.MetricsRegistry) (*distributorMetrics, error) {
	if registry == nil {
		return nil, nil
	}

	var err error
	m := &distributorMetrics{}

	if m.puts, err = metric.Shared(registry, subsystem, "puts_total", prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: subsystem,
		Name:      "puts_total",
		Help:      "Cache puts by result",
	}, []string{"component", "result"})); err != nil {
		return nil, err
	}

	if m.publishes, err = metric.Shared(registry, subsystem, "publishes_total", prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: subsystem,
		Name:      "publishes_total",
		Help:      "Snapshot publications by result",
	}, []string{"component", "result"})); err != nil {
		return nil, err
	}

	if m.duration, err = metric.Shared(registry, subsystem, "publish_duration_seconds", prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metric.Namespace,
		Subsystem: subsystem,
		Name:      "publish_duration_seconds",
		Help:      "Time to publish a full snapshot",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"component"})); err != nil {
		return nil, err
	}

	if m.entries, err = metric.Shared(registry, subsystem, "published_entries", prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metric.Namespace,
		Subsystem: subsystem,
		Name:      "published_entries",
		Help:      "Entries in the last successfully published snapshot",
	}, []string{"component"})); err != nil {
		return nil, err
	}

	return m, nil
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (m *distributorMetrics) recordPut(component string, ok bool) {
	if m == nil {
		return
	}
	m.puts.WithLabelValues(component, result(ok)).Inc()
}

func (m *distributorMetrics) recordPublish(component string, ok bool, entries int, duration time.Duration) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(component, result(ok)).Inc()
	m.duration.WithLabelValues(component).Observe(duration.Seconds())
	if ok {
		m.entries.WithLabelValues(component).Set(float64(entries))
	}
}
