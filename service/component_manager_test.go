package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/propstream/component"
	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/metric"
	"github.com/c360/propstream/processor/enrich"
	"github.com/c360/propstream/properties"
	"github.com/c360/propstream/service/propertiesfile"
	"github.com/c360/propstream/testutil"
	"github.com/c360/propstream/types"
)

func newTestRegistry(t *testing.T, events *[]string) *component.Registry {
	t.Helper()
	registry := component.NewRegistry()
	require.NoError(t, registry.RegisterWithConfig(component.RegistrationConfig{
		Name: "stub_storage", Type: "storage", Factory: component.StubFactory("storage", events),
	}))
	require.NoError(t, registry.RegisterWithConfig(component.RegistrationConfig{
		Name: "stub_processor", Type: "processor", Factory: component.StubFactory("processor", events),
	}))
	return registry
}

func stubStorage(b *testutil.ConfigBuilder, name string) *testutil.ConfigBuilder {
	return b.AddStorage(name, "stub_storage", map[string]any{"name": name})
}

func stubProcessor(b *testutil.ConfigBuilder, name string) *testutil.ConfigBuilder {
	return b.AddProcessor(name, "stub_processor", map[string]any{"name": name})
}

func newTestManager(t *testing.T, configs types.ComponentConfigs, events *[]string) *ComponentManager {
	t.Helper()
	cm, err := NewComponentManager(configs, Dependencies{
		Logger:            testutil.QuietLogger(),
		ComponentRegistry: newTestRegistry(t, events),
		MetricsRegistry:   metric.NewMetricsRegistry(),
	})
	require.NoError(t, err)
	return cm
}

func TestNewComponentManager_RequiresRegistry(t *testing.T) {
	_, err := NewComponentManager(nil, Dependencies{})
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestComponentManager_StartOrder(t *testing.T) {
	var events []string
	b := testutil.NewConfigBuilder(t)
	stubProcessor(b, "enricher")
	stubStorage(b, "b-config")
	stubStorage(b, "a-config")
	stubProcessor(b, "disabled").Disable("disabled")
	cm := newTestManager(t, b.Build(), &events)

	require.NoError(t, cm.Initialize())
	require.NoError(t, cm.Start(context.Background()))
	assert.True(t, cm.IsStarted())

	assert.Equal(t, []string{"a-config", "b-config", "enricher"}, cm.StartOrder())
	assert.Nil(t, cm.Component("disabled"))

	mc, ok := cm.GetManagedComponent("enricher")
	require.True(t, ok)
	assert.Equal(t, component.StateStarted, mc.State)
	assert.NotNil(t, mc.Context)

	require.NoError(t, cm.Stop(time.Second))
	assert.False(t, cm.IsStarted())

	assert.Equal(t, []string{
		"start:a-config", "start:b-config", "start:enricher",
		"stop:enricher", "stop:b-config", "stop:a-config",
	}, events)

	mc, _ = cm.GetManagedComponent("a-config")
	assert.Equal(t, component.StateStopped, mc.State)
	assert.Nil(t, mc.Cancel)
}

func TestComponentManager_FailedStart(t *testing.T) {
	var events []string
	b := testutil.NewConfigBuilder(t).
		AddStorage("config", "stub_storage", map[string]any{"name": "config", "fail_on_start": true})
	cm := newTestManager(t, stubProcessor(b, "enricher").Build(), &events)

	require.NoError(t, cm.Initialize())
	err := cm.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Contains(t, err.Error(), "config")

	mc, ok := cm.GetManagedComponent("config")
	require.True(t, ok)
	assert.Equal(t, component.StateFailed, mc.State)
	assert.ErrorIs(t, mc.LastError, context.DeadlineExceeded)

	assert.Equal(t, []string{"enricher"}, cm.StartOrder())

	require.NoError(t, cm.Stop(time.Second))
	assert.Equal(t, []string{"start:config", "start:enricher", "stop:enricher"}, events)
}

func TestComponentManager_InitializeErrors(t *testing.T) {
	var events []string
	configs := stubStorage(testutil.NewConfigBuilder(t), "good").Build()
	configs["unknown"] = types.ComponentConfig{Type: types.ComponentTypeStorage, Name: "nope", Enabled: true}
	configs["badtype"] = types.ComponentConfig{Type: "output", Name: "stub_storage", Enabled: true}
	cm := newTestManager(t, configs, &events)

	err := cm.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
	assert.Contains(t, err.Error(), "badtype")

	assert.NotNil(t, cm.Component("good"))
	assert.Nil(t, cm.Component("unknown"))

	require.NoError(t, cm.Start(context.Background()))
	assert.Equal(t, []string{"good"}, cm.StartOrder())
}

func TestComponentManager_StartRequiresInitialize(t *testing.T) {
	cm := newTestManager(t, nil, nil)
	assert.Error(t, cm.Start(context.Background()))
	assert.NoError(t, cm.Stop(time.Second))
}

func TestComponentManager_StartStopIdempotent(t *testing.T) {
	var events []string
	cm := newTestManager(t, stubStorage(testutil.NewConfigBuilder(t), "config").Build(), &events)

	require.NoError(t, cm.Initialize())
	require.NoError(t, cm.Initialize())
	require.NoError(t, cm.Start(context.Background()))
	require.NoError(t, cm.Start(context.Background()))
	require.NoError(t, cm.Stop(time.Second))
	require.NoError(t, cm.Stop(time.Second))

	assert.Equal(t, []string{"start:config", "stop:config"}, events)
}

func TestComponentManager_Health(t *testing.T) {
	cm := newTestManager(t, stubStorage(testutil.NewConfigBuilder(t), "config").Build(), nil)
	require.NoError(t, cm.Initialize())

	health := cm.GetComponentHealth()
	require.Contains(t, health, "config")
	assert.True(t, health["config"].Healthy)
}

func TestComponentManager_PropertiesFileComponent(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, propertiesfile.Register(registry))

	path := testutil.WriteProperties(t, testutil.SampleProperties)
	configs := testutil.NewConfigBuilder(t).
		AddStorage("app-config", "properties_file", map[string]any{"property_file_location": path}).
		Build()

	cm, err := NewComponentManager(configs, Dependencies{
		Logger:            testutil.QuietLogger(),
		ComponentRegistry: registry,
	})
	require.NoError(t, err)
	require.NoError(t, cm.Initialize())
	require.NoError(t, cm.Start(context.Background()))

	provider, ok := cm.Component("app-config").(properties.Provider)
	require.True(t, ok)
	assert.Equal(t, testutil.SamplePropertiesValues, provider.GetAllProperties())

	require.NoError(t, cm.Stop(time.Second))
	assert.Empty(t, provider.GetAllProperties())
}

func TestComponentManager_ProcessorRequiresActiveProvider(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, propertiesfile.Register(registry))
	require.NoError(t, enrich.Register(registry))

	path := testutil.WriteProperties(t, "key=\xff\xfe\n")
	configs := testutil.NewConfigBuilder(t).
		AddStorage("app-config", "properties_file", map[string]any{"property_file_location": path}).
		AddProcessor("enricher", "retrieve_properties", map[string]any{"property_file_service": "app-config"}).
		Build()

	cm, err := NewComponentManager(configs, Dependencies{
		Logger:            testutil.QuietLogger(),
		ComponentRegistry: registry,
	})
	require.NoError(t, err)
	require.NoError(t, cm.Initialize())

	err = cm.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSourceRead)
	assert.ErrorIs(t, err, errors.ErrNotStarted)

	for _, name := range []string{"app-config", "enricher"} {
		mc, ok := cm.GetManagedComponent(name)
		require.True(t, ok)
		assert.Equal(t, component.StateFailed, mc.State, name)
	}
	assert.Empty(t, cm.StartOrder())
	assert.False(t, cm.GetComponentHealth()["enricher"].Healthy)

	require.NoError(t, cm.Stop(time.Second))
}
