package enrich

import (
	"fmt"

	"github.com/c360/propstream/component"
	"github.com/c360/propstream/errors"
)

// Port names
const (
	PortInput   = "nats_input"
	PortSuccess = "success"
	PortFailure = "failure"
)

// Config holds configuration for the retrieve_properties processor
type Config struct {
	Ports *component.PortConfig `json:"ports"`

	// PropertyFileService is the instance name of the properties provider
	PropertyFileService string `json:"property_file_service"`

	Workers   int `json:"workers,omitempty"`
	QueueSize int `json:"queue_size,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        PortInput,
					Type:        "nats",
					Subject:     "records.in",
					Required:    true,
					Description: "Records to enrich (message.Record JSON)",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        PortSuccess,
					Type:        "nats",
					Subject:     "records.enriched",
					Required:    true,
					Description: "Records with all properties set as attributes",
				},
				{
					Name:        PortFailure,
					Type:        "nats",
					Subject:     "records.failed",
					Required:    true,
					Description: "Records that could not be enriched or decoded",
				},
			},
		},
		Workers:   4,
		QueueSize: 256,
	}
}

// withDefaultPorts fills in any of the three ports missing from c.Ports
func (c Config) withDefaultPorts() Config {
	defaults := DefaultConfig().Ports
	if c.Ports == nil {
		c.Ports = defaults
		return c
	}

	ports := &component.PortConfig{
		Inputs:  append([]component.PortDefinition(nil), c.Ports.Inputs...),
		Outputs: append([]component.PortDefinition(nil), c.Ports.Outputs...),
	}
	if _, ok := ports.Find(PortInput); !ok {
		def, _ := defaults.Find(PortInput)
		ports.Inputs = append(ports.Inputs, def)
	}
	for _, name := range []string{PortSuccess, PortFailure} {
		if _, ok := ports.Find(name); !ok {
			def, _ := defaults.Find(name)
			ports.Outputs = append(ports.Outputs, def)
		}
	}
	c.Ports = ports
	return c
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.PropertyFileService == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: property_file_service is required", errors.ErrMissingConfig),
			"RetrievePropertiesProcessor", "Validate", "provider reference check")
	}
	if c.Workers < 1 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: workers must be at least 1", errors.ErrInvalidConfig),
			"RetrievePropertiesProcessor", "Validate", "workers check")
	}
	if c.QueueSize < 1 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: queue_size must be at least 1", errors.ErrInvalidConfig),
			"RetrievePropertiesProcessor", "Validate", "queue size check")
	}
	for _, name := range []string{PortInput, PortSuccess, PortFailure} {
		def, ok := c.Ports.Find(name)
		if !ok || def.Subject == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w: port %s needs a subject", errors.ErrInvalidConfig, name),
				"RetrievePropertiesProcessor", "Validate", "port check")
		}
	}
	return nil
}

func (c Config) subject(port string) string {
	def, _ := c.Ports.Find(port)
	return def.Subject
}

func (c Config) queue(port string) string {
	def, _ := c.Ports.Find(port)
	return def.Queue
}

var retrievePropertiesSchema = component.ConfigSchema{
	Properties: map[string]component.PropertySchema{
		"ports": {
			Type:        "ports",
			Description: "Input subject and success/failure output subjects",
			Category:    "basic",
		},
		"property_file_service": {
			Type:        "string",
			Description: "Instance name of the properties_file component to read from",
			Category:    "basic",
		},
		"workers": {
			Type:        "int",
			Description: "Concurrent enrichment workers",
			Default:     4,
			Minimum:     component.IntPtr(1),
			Category:    "advanced",
		},
		"queue_size": {
			Type:        "int",
			Description: "Records buffered before the subscription blocks",
			Default:     256,
			Minimum:     component.IntPtr(1),
			Category:    "advanced",
		},
	},
	Required: []string{"property_file_service"},
}
