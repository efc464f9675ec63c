package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/c360/propstream/component"
)

func TestFromComponentHealth(t *testing.T) {
	tests := []struct {
		name    string
		in      component.HealthStatus
		want    string
		message string
	}{
		{"running", component.HealthStatus{Healthy: true, Uptime: time.Minute}, StatusHealthy, "Component healthy"},
		{"running with errors", component.HealthStatus{Healthy: true, ErrorCount: 2}, StatusDegraded,
			"Component running with errors"},
		{"stopped", component.HealthStatus{}, StatusUnhealthy, "Component not running"},
		{"failed", component.HealthStatus{ErrorCount: 1, LastError: "open /etc/app.properties: denied"},
			StatusUnhealthy, "open [PATH]: denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromComponentHealth("config", tt.in)
			assert.Equal(t, "config", got.Component)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.want == StatusHealthy, got.Healthy)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.in.ErrorCount, got.Metrics.ErrorCount)
		})
	}
}

func TestAggregate(t *testing.T) {
	healthy := NewHealthy("a", "")
	degraded := NewDegraded("b", "")
	unhealthy := NewUnhealthy("c", "")

	assert.True(t, Aggregate("sys", nil).IsHealthy())
	assert.True(t, Aggregate("sys", []Status{healthy}).IsHealthy())
	assert.True(t, Aggregate("sys", []Status{healthy, degraded}).IsDegraded())
	assert.True(t, Aggregate("sys", []Status{degraded, unhealthy, healthy}).IsUnhealthy())

	agg := Aggregate("sys", []Status{healthy, degraded})
	assert.Equal(t, "sys", agg.Component)
	assert.Len(t, agg.SubStatuses, 2)
	assert.False(t, agg.Healthy)
}

func TestSanitizeErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"unix path", "failed to open /etc/propstream/app.properties", "failed to open [PATH]"},
		{"windows path", "cannot read C:\\config\\app.properties", "cannot read [PATH]"},
		{"nats url", "cannot connect to nats://localhost:4222", "cannot connect to [URL]"},
		{"http url", "push to https://cache.example.com/v1 failed", "push to [URL] failed"},
		{"ip address", "timeout connecting to 10.0.0.12", "timeout connecting to [IP]"},
		{"port", "failed to bind to :9090", "failed to bind to [PORT]"},
		{"credential", "auth failed password=hunter2", "auth failed [REDACTED]"},
		{"plain", "cache publish failed", "cache publish failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeErrorMessage(tt.input))
		})
	}
}
