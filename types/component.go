// Package types contains shared domain types used by the config, component
// and service packages without import cycles.
package types

import (
	"encoding/json"
	"fmt"

	"github.com/c360/propstream/errors"
)

// ComponentType represents the category of a component
type ComponentType string

// Component type constants
const (
	ComponentTypeProcessor ComponentType = "processor"
	ComponentTypeStorage   ComponentType = "storage"
)

// String implements fmt.Stringer for ComponentType
func (ct ComponentType) String() string {
	return string(ct)
}

// StartPriority orders component activation. Lower starts first: storage
// components hold configuration that processors read.
func (ct ComponentType) StartPriority() int {
	switch ct {
	case ComponentTypeStorage:
		return 0
	case ComponentTypeProcessor:
		return 1
	default:
		return 2
	}
}

// ComponentConfig provides configuration for creating a component instance.
// The instance name comes from the map key in the components configuration.
type ComponentConfig struct {
	Type    ComponentType   `json:"type"`    // processor or storage
	Name    string          `json:"name"`    // Factory name (e.g., "properties_file")
	Enabled bool            `json:"enabled"` // Whether component is enabled
	Config  json.RawMessage `json:"config"`  // Component-specific configuration
}

// Validate ensures the component configuration is valid
func (c ComponentConfig) Validate() error {
	if c.Type == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "ComponentConfig", "Validate",
			"component type cannot be empty")
	}
	if c.Name == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "ComponentConfig", "Validate",
			"component factory name cannot be empty")
	}

	switch c.Type {
	case ComponentTypeProcessor, ComponentTypeStorage:
		return nil
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ComponentConfig", "Validate",
			fmt.Sprintf("invalid component type: %s", c.Type))
	}
}

// ComponentConfigs holds component instance configurations keyed by instance name.
type ComponentConfigs map[string]ComponentConfig

// PlatformMeta provides platform identity to components.
type PlatformMeta struct {
	Org      string // Organization namespace (e.g., "c360")
	Platform string // Platform identifier (e.g., "edge-01")
}
