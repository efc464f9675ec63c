package propertiesfile

import "github.com/c360/propstream/component"

// Register registers the properties_file factory with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "properties_file",
		Factory:     NewService,
		Schema:      propertiesFileSchema,
		Type:        "storage",
		Protocol:    "file",
		Domain:      "configuration",
		Description: "Properties file loader with optional NATS KV replication",
		Version:     "1.0.0",
	})
}
