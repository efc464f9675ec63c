package component

import (
	"fmt"
	"log/slog"

	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/metric"
	"github.com/c360/propstream/natsclient"
	"github.com/c360/propstream/types"
)

// PlatformMeta provides platform identity to components.
type PlatformMeta = types.PlatformMeta

// Resolver finds running component instances by name. *Registry implements it.
type Resolver interface {
	Component(name string) Discoverable
}

// Dependencies provides all external dependencies needed by components.
type Dependencies struct {
	NATSClient      *natsclient.Client      // NATS client for messaging and KV
	MetricsRegistry *metric.MetricsRegistry // Metrics registry for Prometheus (can be nil)
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
	Platform        PlatformMeta            // Platform identity
	Components      Resolver                // Instance lookup for components that read from others (can be nil)
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger configured with component context
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}

// Lookup returns the named component instance.
func (d *Dependencies) Lookup(name string) (Discoverable, error) {
	if d.Components == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Dependencies", "Lookup", "component resolver")
	}
	comp := d.Components.Component(name)
	if comp == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: component %q not found", errors.ErrMissingConfig, name),
			"Dependencies", "Lookup", "component lookup")
	}
	return comp, nil
}
