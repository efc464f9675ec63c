package component

import "fmt"

// Direction for data flow
type Direction string

// Direction constants for port data flow
const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Port describes any I/O interface
type Port struct {
	Name        string    `json:"name"`
	Direction   Direction `json:"direction"`
	Required    bool      `json:"required"`
	Description string    `json:"description"`
	Config      Portable  `json:"config"`
}

// Portable is implemented by every port configuration
type Portable interface {
	ResourceID() string // Unique identifier for conflict detection
	IsExclusive() bool  // Whether multiple components can share
	Type() string       // Port type identifier
}

// NATSPort - NATS pub/sub
type NATSPort struct {
	Subject string `json:"subject"`
	Queue   string `json:"queue,omitempty"`
}

// ResourceID returns unique identifier for NATS ports
func (n NATSPort) ResourceID() string {
	return fmt.Sprintf("nats:%s", n.Subject)
}

// IsExclusive returns false as multiple components can subscribe
func (n NATSPort) IsExclusive() bool {
	return false
}

// Type returns the port type identifier
func (n NATSPort) Type() string {
	return "nats"
}

// KVWritePort - NATS KV bucket written by a component
type KVWritePort struct {
	Bucket string `json:"bucket"`
}

// ResourceID returns unique identifier for KV write ports
func (k KVWritePort) ResourceID() string {
	return fmt.Sprintf("kvwrite:%s", k.Bucket)
}

// IsExclusive returns false; several nodes may replicate into one bucket
func (k KVWritePort) IsExclusive() bool {
	return false
}

// Type returns the port type identifier
func (k KVWritePort) Type() string {
	return "kvwrite"
}

// PortDefinition represents a port configuration from JSON
type PortDefinition struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`    // "nats" (default) or "kvwrite"
	Subject     string `json:"subject,omitempty"` // NATS subject, or bucket for kvwrite
	Queue       string `json:"queue,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// PortConfig represents port configuration in component config
type PortConfig struct {
	Inputs  []PortDefinition `json:"inputs,omitempty"`
	Outputs []PortDefinition `json:"outputs,omitempty"`
}

// Find returns the definition with the given name in inputs or outputs.
func (pc *PortConfig) Find(name string) (PortDefinition, bool) {
	if pc == nil {
		return PortDefinition{}, false
	}
	for _, def := range pc.Inputs {
		if def.Name == name {
			return def, true
		}
	}
	for _, def := range pc.Outputs {
		if def.Name == name {
			return def, true
		}
	}
	return PortDefinition{}, false
}

// BuildPorts converts definitions into ports with the given direction
func BuildPorts(defs []PortDefinition, direction Direction) []Port {
	ports := make([]Port, 0, len(defs))
	for _, def := range defs {
		ports = append(ports, BuildPortFromDefinition(def, direction))
	}
	return ports
}

// BuildPortFromDefinition creates a Port from a PortDefinition
func BuildPortFromDefinition(def PortDefinition, direction Direction) Port {
	port := Port{
		Name:        def.Name,
		Direction:   direction,
		Required:    def.Required,
		Description: def.Description,
	}

	switch def.Type {
	case "kv-write", "kvwrite":
		port.Config = KVWritePort{Bucket: def.Subject}
	default:
		port.Config = NATSPort{Subject: def.Subject, Queue: def.Queue}
	}

	return port
}
