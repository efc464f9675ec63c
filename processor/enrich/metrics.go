package enrich

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/propstream/metric"
)

const subsystem = "retrieve_properties"

// enrichMetrics holds Prometheus metrics for record enrichment
type enrichMetrics struct {
	records    *prometheus.CounterVec   // component, route
	attributes *prometheus.CounterVec   // component
	errors     *prometheus.CounterVec   // component, error_type
	duration   *prometheus.HistogramVec // component
}

func newEnrichMetrics(registry *metric.MetricsRegistry) (*enrichMetrics, error) {
	if registry == nil {
		return nil, nil
	}

	var err error
	m := &enrichMetrics{}

	if m.records, err = metric.Shared(registry, subsystem, "records_total", prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: subsystem,
		Name:      "records_total",
		Help:      "Records routed, by route",
	}, []string{"component", "route"})); err != nil {
		return nil, err
	}

	if m.attributes, err = metric.Shared(registry, subsystem, "attributes_written_total", prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: subsystem,
		Name:      "attributes_written_total",
		Help:      "Attributes set on records",
	}, []string{"component"})); err != nil {
		return nil, err
	}

	// error_type: record, provider, attributes, panic, decode, encode, queue, publish
	if m.errors, err = metric.Shared(registry, subsystem, "errors_total", prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: subsystem,
		Name:      "errors_total",
		Help:      "Enrichment and transport errors",
	}, []string{"component", "error_type"})); err != nil {
		return nil, err
	}

	if m.duration, err = metric.Shared(registry, subsystem, "enrich_duration_seconds", prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metric.Namespace,
		Subsystem: subsystem,
		Name:      "enrich_duration_seconds",
		Help:      "Time to enrich one record",
		Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	}, []string{"component"})); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *enrichMetrics) recordRoute(component string, route Route, attrs int, duration time.Duration) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(component, string(route)).Inc()
	if attrs > 0 {
		m.attributes.WithLabelValues(component).Add(float64(attrs))
	}
	m.duration.WithLabelValues(component).Observe(duration.Seconds())
}

func (m *enrichMetrics) recordError(component, errorType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(component, errorType).Inc()
}
