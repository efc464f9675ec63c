package enrich

import (
	"fmt"
	"log/slog"
	"maps"
	"runtime/debug"
	"sync"
	"time"

	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/properties"
)

// Route is the outcome a record is transferred to
type Route string

// Routes
const (
	RouteSuccess Route = "success"
	RouteFailure Route = "failure"
)

// Record is the attribute view of a record
type Record interface {
	GetAttributes() map[string]string
	// SetAttributes overlays attrs on the existing attributes
	SetAttributes(attrs map[string]string) error
}

// Session hands out pending records and accepts routed ones
type Session interface {
	// Get returns the next pending record, or false when none is available
	Get() (Record, bool)
	Transfer(rec Record, route Route)
}

// MergeAttributes returns existing overlaid with config. Neither input is modified.
func MergeAttributes(existing, config map[string]string) map[string]string {
	merged := make(map[string]string, len(existing)+len(config))
	maps.Copy(merged, existing)
	maps.Copy(merged, config)
	return merged
}

// Enricher sets provider properties on records. It is safe for concurrent use.
type Enricher struct {
	name     string
	provider properties.Provider
	logger   *slog.Logger
	metrics  *enrichMetrics
}

// NewEnricher creates an enricher reading from provider; name labels logs and metrics
func NewEnricher(name string, provider properties.Provider, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{name: name, provider: provider, logger: logger}
}

// Enrich overlays the provider's properties on rec and returns the route the
// record belongs to. The error explains a RouteFailure and is nil otherwise.
func (e *Enricher) Enrich(rec Record) (route Route, err error) {
	start := time.Now()
	attrs := 0
	errType := ""

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Unexpected panic while enriching record",
				"component", e.name, "panic", r, "stack", string(debug.Stack()))
			route = RouteFailure
			errType = "panic"
			err = errors.WrapFatal(fmt.Errorf("%w: panic: %v", errors.ErrEnrichment, r),
				"Enricher", "Enrich", "set attributes")
		}
		if errType != "" {
			e.metrics.recordError(e.name, errType)
		}
		e.metrics.recordRoute(e.name, route, attrs, time.Since(start))
	}()

	if rec == nil {
		errType = "record"
		return RouteFailure, errors.WrapInvalid(
			fmt.Errorf("%w: no record", errors.ErrEnrichment), "Enricher", "Enrich", "record check")
	}
	if e.provider == nil {
		errType = "provider"
		return RouteFailure, errors.WrapFatal(
			fmt.Errorf("%w: %w", errors.ErrEnrichment, errors.ErrMissingConfig),
			"Enricher", "Enrich", "provider check")
	}

	config := e.provider.GetAllProperties()
	if len(config) == 0 {
		e.logger.Info("Provider has no properties, passing record through unchanged", "component", e.name)
		return RouteSuccess, nil
	}

	if err := rec.SetAttributes(config); err != nil {
		e.logger.Error("Failed to set attributes on record", "component", e.name, "error", err)
		errType = "attributes"
		return RouteFailure, errors.WrapInvalid(errors.Join(errors.ErrEnrichment, err),
			"Enricher", "Enrich", "set attributes")
	}

	attrs = len(config)
	e.logger.Debug("Set properties as record attributes", "component", e.name, "count", attrs)
	return RouteSuccess, nil
}

// OnTrigger takes one record from session, enriches it and transfers it to its
// route. It returns false when the session had no record.
func (e *Enricher) OnTrigger(session Session) bool {
	rec, ok := session.Get()
	if !ok {
		return false
	}
	route, _ := e.Enrich(rec)
	session.Transfer(rec, route)
	return true
}

// MemorySession is an in-memory Session backed by a FIFO of records.
// It is safe for concurrent use.
type MemorySession struct {
	mu      sync.Mutex
	pending []Record
	routed  map[Route][]Record
}

// NewSession creates a session holding records in order
func NewSession(records ...Record) *MemorySession {
	return &MemorySession{
		pending: append([]Record(nil), records...),
		routed:  make(map[Route][]Record),
	}
}

// Get implements Session
func (s *MemorySession) Get() (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, false
	}
	rec := s.pending[0]
	s.pending = s.pending[1:]
	return rec, true
}

// Transfer implements Session
func (s *MemorySession) Transfer(rec Record, route Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routed[route] = append(s.routed[route], rec)
}

// Routed returns the records transferred to route, in transfer order
func (s *MemorySession) Routed(route Route) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.routed[route]...)
}

// Pending returns the number of records not yet taken
func (s *MemorySession) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
