package testutil

import (
	"encoding/json"
	"testing"

	"github.com/c360/propstream/types"
)

// ConfigBuilder assembles component configurations for tests.
type ConfigBuilder struct {
	t       *testing.T
	configs types.ComponentConfigs
}

// NewConfigBuilder creates an empty builder. Marshal failures fail t.
func NewConfigBuilder(t *testing.T) *ConfigBuilder {
	return &ConfigBuilder{t: t, configs: make(types.ComponentConfigs)}
}

// Add adds an enabled component instance.
func (b *ConfigBuilder) Add(
	instance string, kind types.ComponentType, factory string, config map[string]any,
) *ConfigBuilder {
	b.t.Helper()
	raw, err := json.Marshal(config)
	if err != nil {
		b.t.Fatalf("marshal config for %s: %v", instance, err)
	}
	b.configs[instance] = types.ComponentConfig{
		Type:    kind,
		Name:    factory,
		Enabled: true,
		Config:  raw,
	}
	return b
}

// AddStorage adds a storage component.
func (b *ConfigBuilder) AddStorage(instance, factory string, config map[string]any) *ConfigBuilder {
	b.t.Helper()
	return b.Add(instance, types.ComponentTypeStorage, factory, config)
}

// AddProcessor adds a processor component.
func (b *ConfigBuilder) AddProcessor(instance, factory string, config map[string]any) *ConfigBuilder {
	b.t.Helper()
	return b.Add(instance, types.ComponentTypeProcessor, factory, config)
}

// Disable marks an already added instance as disabled.
func (b *ConfigBuilder) Disable(instance string) *ConfigBuilder {
	if cfg, ok := b.configs[instance]; ok {
		cfg.Enabled = false
		b.configs[instance] = cfg
	}
	return b
}

// Build returns the configurations.
func (b *ConfigBuilder) Build() types.ComponentConfigs {
	return b.configs
}
