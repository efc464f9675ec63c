package service

import (
	"log/slog"

	"github.com/c360/propstream/component"
	"github.com/c360/propstream/metric"
	"github.com/c360/propstream/natsclient"
	"github.com/c360/propstream/types"
)

// Dependencies provides what the ComponentManager passes on to components
type Dependencies struct {
	NATSClient        *natsclient.Client
	MetricsRegistry   *metric.MetricsRegistry
	Logger            *slog.Logger
	Platform          types.PlatformMeta  // Platform identity
	ComponentRegistry *component.Registry // Factories and running instances
}

func (d Dependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
