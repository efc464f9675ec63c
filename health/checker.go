package health

import (
	"cmp"
	"encoding/json"
	"net/http"
	"slices"
	"sync"

	"github.com/c360/propstream/component"
)

// ComponentSource returns the current health of a set of components by
// instance name.
type ComponentSource func() map[string]component.HealthStatus

// Check returns the status of one named dependency
type Check func() Status

// Checker aggregates component sources and checks into one system status.
// Safe for concurrent use.
type Checker struct {
	name string

	mu         sync.RWMutex
	components []ComponentSource
	checks     map[string]Check
}

// NewChecker creates a checker reporting under name
func NewChecker(name string) *Checker {
	return &Checker{name: name, checks: make(map[string]Check)}
}

// AddComponents adds a component source
func (c *Checker) AddComponents(source ComponentSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components = append(c.components, source)
}

// AddCheck adds or replaces a named check
func (c *Checker) AddCheck(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Check runs every source and check and aggregates the result. Sub-statuses
// are sorted by name.
func (c *Checker) Check() Status {
	c.mu.RLock()
	sources := slices.Clone(c.components)
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	var subs []Status
	for _, source := range sources {
		for name, ch := range source() {
			subs = append(subs, FromComponentHealth(name, ch))
		}
	}
	for name, check := range checks {
		status := check()
		status.Component = name
		status.Message = sanitizeErrorMessage(status.Message)
		subs = append(subs, status)
	}

	slices.SortFunc(subs, func(a, b Status) int { return cmp.Compare(a.Component, b.Component) })
	return Aggregate(c.name, subs)
}

// ServeHTTP writes the aggregated status as JSON; 503 when unhealthy.
func (c *Checker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	status := c.Check()

	w.Header().Set("Content-Type", "application/json")
	if status.IsUnhealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}
