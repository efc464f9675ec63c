package component

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// StubComponent is a minimal LifecycleComponent for tests in this and
// dependent packages.
type StubComponent struct {
	Name     string
	Kind     string
	StartErr error

	mu     sync.Mutex
	starts int
	stops  int
	events *[]string
}

// NewStubComponent creates a stub that appends "start:<name>"/"stop:<name>"
// to events when events is non-nil.
func NewStubComponent(name, kind string, events *[]string) *StubComponent {
	return &StubComponent{Name: name, Kind: kind, events: events}
}

// StubFactory returns a Factory producing a stub with the name found in the
// raw config ("name" key) and the given kind.
func StubFactory(kind string, events *[]string) Factory {
	return func(rawConfig json.RawMessage, _ Dependencies) (Discoverable, error) {
		cfg := struct {
			Name        string `json:"name"`
			FailOnStart bool   `json:"fail_on_start"`
		}{Name: "stub"}
		if len(rawConfig) > 0 {
			if err := json.Unmarshal(rawConfig, &cfg); err != nil {
				return nil, err
			}
		}
		stub := NewStubComponent(cfg.Name, kind, events)
		if cfg.FailOnStart {
			stub.StartErr = context.DeadlineExceeded
		}
		return stub, nil
	}
}

func (s *StubComponent) record(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events != nil {
		*s.events = append(*s.events, event+":"+s.Name)
	}
}

// Meta returns the stub metadata
func (s *StubComponent) Meta() Metadata {
	return Metadata{Name: s.Name, Type: s.Kind, Version: "test"}
}

// InputPorts returns no ports
func (s *StubComponent) InputPorts() []Port { return nil }

// OutputPorts returns no ports
func (s *StubComponent) OutputPorts() []Port { return nil }

// ConfigSchema returns an empty schema
func (s *StubComponent) ConfigSchema() ConfigSchema { return ConfigSchema{} }

// Health reports healthy
func (s *StubComponent) Health() HealthStatus { return HealthStatus{Healthy: true} }

// DataFlow returns zero metrics
func (s *StubComponent) DataFlow() FlowMetrics { return FlowMetrics{} }

// Initialize does nothing
func (s *StubComponent) Initialize() error { return nil }

// Start records the start and returns StartErr
func (s *StubComponent) Start(_ context.Context) error {
	s.mu.Lock()
	s.starts++
	s.mu.Unlock()
	s.record("start")
	return s.StartErr
}

// Stop records the stop
func (s *StubComponent) Stop(_ time.Duration) error {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	s.record("stop")
	return nil
}

// Counts returns the number of Start and Stop calls
func (s *StubComponent) Counts() (starts, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops
}
