package health

import (
	"regexp"
	"strings"
	"time"

	"github.com/c360/propstream/component"
)

// Status values
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

var (
	urlRegex         = regexp.MustCompile(`(?:https?|nats|wss?)://[^\s]+`)
	unixPathRegex    = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	windowsPathRegex = regexp.MustCompile(`[A-Z]:\\[^:\s]+`)
	ipAddrRegex      = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex        = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex  = regexp.MustCompile(`(?i)(password|token|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status is the health of a component or of the whole system
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}

// Metrics carries the numbers behind a component status
type Metrics struct {
	Uptime     time.Duration `json:"uptime"`
	ErrorCount int           `json:"error_count"`
	LastCheck  time.Time     `json:"last_check,omitempty"`
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == StatusHealthy
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == StatusDegraded
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.Status == StatusUnhealthy
}

// FromComponentHealth converts a component.HealthStatus. A running component
// with recorded errors is degraded; a component that is not running is
// unhealthy.
func FromComponentHealth(name string, ch component.HealthStatus) Status {
	var status Status
	switch {
	case !ch.Healthy:
		status = NewUnhealthy(name, "Component not running")
	case ch.ErrorCount > 0:
		status = NewDegraded(name, "Component running with errors")
	default:
		status = NewHealthy(name, "Component healthy")
	}

	if ch.LastError != "" {
		status.Message = sanitizeErrorMessage(ch.LastError)
	}
	status.Metrics = &Metrics{
		Uptime:     ch.Uptime,
		ErrorCount: ch.ErrorCount,
		LastCheck:  ch.LastCheck,
	}
	return status
}

// sanitizeErrorMessage masks URLs, paths, IP addresses, ports and
// credential assignments. URLs go first since they contain paths.
func sanitizeErrorMessage(err string) string {
	if err == "" {
		return ""
	}

	sanitized := urlRegex.ReplaceAllString(err, "[URL]")
	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = windowsPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	lower := strings.ToLower(sanitized)
	for _, word := range []string{"password", "token", "secret", "credential"} {
		if strings.Contains(lower, word) {
			sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
			break
		}
	}
	return sanitized
}
