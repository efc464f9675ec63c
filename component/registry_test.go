package component

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/types"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, registry.RegisterWithConfig(RegistrationConfig{
		Name:        "stub_storage",
		Factory:     StubFactory("storage", nil),
		Type:        "storage",
		Description: "stub storage",
		Schema: ConfigSchema{
			Properties: map[string]PropertySchema{"name": {Type: "string"}},
			Required:   []string{"name"},
		},
	}))
	return registry
}

func TestRegistry_RegisterFactory(t *testing.T) {
	registry := newTestRegistry(t)

	err := registry.RegisterWithConfig(RegistrationConfig{
		Name:    "stub_storage",
		Factory: StubFactory("storage", nil),
		Type:    "storage",
	})
	assert.Error(t, err, "duplicate factory must be rejected")
	assert.True(t, errors.IsInvalid(err))

	tests := []struct {
		name string
		reg  *Registration
	}{
		{"nil registration", nil},
		{"missing factory", &Registration{Type: "storage"}},
		{"missing type", &Registration{Factory: StubFactory("storage", nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, registry.RegisterFactory("other", tt.reg))
		})
	}

	assert.Equal(t, []string{"stub_storage"}, registry.ListComponentTypes())

	schema, err := registry.GetComponentSchema("stub_storage")
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, schema.Required)

	_, err = registry.GetComponentSchema("missing")
	assert.Error(t, err)
}

func TestRegistry_CreateComponent(t *testing.T) {
	registry := newTestRegistry(t)

	comp, err := registry.CreateComponent("config-a", types.ComponentConfig{
		Type:    types.ComponentTypeStorage,
		Name:    "stub_storage",
		Enabled: true,
		Config:  json.RawMessage(`{"name":"config-a"}`),
	}, Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, "config-a", comp.Meta().Name)
	assert.Same(t, comp, registry.Component("config-a"))
	assert.Len(t, registry.ListComponents(), 1)

	_, err = registry.CreateComponent("config-a", types.ComponentConfig{
		Type:   types.ComponentTypeStorage,
		Name:   "stub_storage",
		Config: json.RawMessage(`{"name":"config-a"}`),
	}, Dependencies{})
	assert.Error(t, err, "duplicate instance must be rejected")

	registry.UnregisterInstance("config-a")
	assert.Nil(t, registry.Component("config-a"))
}

func TestRegistry_CreateComponentValidation(t *testing.T) {
	registry := newTestRegistry(t)

	tests := []struct {
		name     string
		instance string
		config   types.ComponentConfig
	}{
		{"bad instance name", "bad name!", types.ComponentConfig{Type: "storage", Name: "stub_storage"}},
		{"missing type", "x", types.ComponentConfig{Name: "stub_storage"}},
		{"unknown factory", "x", types.ComponentConfig{Type: "storage", Name: "nope"}},
		{"type mismatch", "x", types.ComponentConfig{Type: "processor", Name: "stub_storage"}},
		{"bad config json", "x", types.ComponentConfig{
			Type: "storage", Name: "stub_storage", Config: json.RawMessage(`{`),
		}},
		{"missing required property", "x", types.ComponentConfig{
			Type: "storage", Name: "stub_storage", Config: json.RawMessage(`{}`),
		}},
		{"wrong property type", "x", types.ComponentConfig{
			Type: "storage", Name: "stub_storage", Config: json.RawMessage(`{"name": 7}`),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.CreateComponent(tt.instance, tt.config, Dependencies{})
			assert.Error(t, err)
			assert.Nil(t, registry.Component(tt.instance))
		})
	}
}

func TestDependencies_Lookup(t *testing.T) {
	registry := newTestRegistry(t)
	stub := NewStubComponent("provider", "storage", nil)
	require.NoError(t, registry.RegisterInstance("provider", stub))

	deps := Dependencies{Components: registry}
	found, err := deps.Lookup("provider")
	require.NoError(t, err)
	assert.Same(t, stub, found)

	_, err = deps.Lookup("missing")
	assert.ErrorIs(t, err, errors.ErrMissingConfig)

	empty := Dependencies{}
	_, err = empty.Lookup("provider")
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
	assert.NotNil(t, empty.GetLogger())
}

func TestValidateComponentName(t *testing.T) {
	assert.NoError(t, ValidateComponentName("retrieve_properties"))
	assert.NoError(t, ValidateComponentName("config-file.v1"))
	assert.Error(t, ValidateComponentName(""))
	assert.Error(t, ValidateComponentName("a/b"))
}

func TestBuildPortFromDefinition(t *testing.T) {
	cfg := &PortConfig{
		Inputs: []PortDefinition{{Name: "nats_input", Subject: "records.in", Required: true}},
		Outputs: []PortDefinition{
			{Name: "success", Subject: "records.success"},
			{Name: "cache", Type: "kvwrite", Subject: "PROPERTIES"},
		},
	}

	def, ok := cfg.Find("success")
	require.True(t, ok)
	assert.Equal(t, "records.success", def.Subject)
	_, ok = cfg.Find("missing")
	assert.False(t, ok)

	inputs := BuildPorts(cfg.Inputs, DirectionInput)
	require.Len(t, inputs, 1)
	assert.Equal(t, "nats:records.in", inputs[0].Config.ResourceID())
	assert.Equal(t, DirectionInput, inputs[0].Direction)

	outputs := BuildPorts(cfg.Outputs, DirectionOutput)
	require.Len(t, outputs, 2)
	assert.Equal(t, "kvwrite", outputs[1].Config.Type())
	assert.Equal(t, "kvwrite:PROPERTIES", outputs[1].Config.ResourceID())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "unknown", State(99).String())
}
