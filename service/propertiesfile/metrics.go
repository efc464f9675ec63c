package propertiesfile

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/propstream/metric"
)

const subsystem = "properties_file"

// serviceMetrics holds Prometheus metrics for activations
type serviceMetrics struct {
	activations *prometheus.CounterVec // component, result (ok/load_error/publish_error)
	properties  *prometheus.GaugeVec   // component
}

func newServiceMetrics(registry *metric.MetricsRegistry) (*serviceMetrics, error) {
	if registry == nil {
		return nil, nil
	}

	var err error
	m := &serviceMetrics{}

	if m.activations, err = metric.Shared(registry, subsystem, "activations_total", prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metric.Namespace,
		Subsystem: subsystem,
		Name:      "activations_total",
		Help:      "Activations by result",
	}, []string{"component", "result"})); err != nil {
		return nil, err
	}

	if m.properties, err = metric.Shared(registry, subsystem, "properties", prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metric.Namespace,
		Subsystem: subsystem,
		Name:      "properties",
		Help:      "Properties currently held",
	}, []string{"component"})); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *serviceMetrics) recordActivation(component, result string) {
	if m == nil {
		return
	}
	m.activations.WithLabelValues(component, result).Inc()
}

func (m *serviceMetrics) setProperties(component string, count int) {
	if m == nil {
		return
	}
	m.properties.WithLabelValues(component).Set(float64(count))
}
