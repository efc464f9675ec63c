// Package health turns component health into a system status served over HTTP.
//
// A Checker aggregates named checks. Component checks read the
// component.HealthStatus map produced by the component manager; ad hoc checks
// such as NATS connectivity return a Status directly. Aggregation follows
// three levels:
//
//   - unhealthy: a component is not running, or a check failed
//   - degraded: everything runs but a component has recorded errors
//   - healthy: everything runs and no errors were recorded
//
// The HTTP handler answers 200 for healthy and degraded, 503 for unhealthy,
// with the aggregated Status as JSON. Error messages are sanitized before
// they leave the process: URLs, paths, addresses and credentials are masked.
package health
