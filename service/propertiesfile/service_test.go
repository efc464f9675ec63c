package propertiesfile

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/propstream/component"
	"github.com/c360/propstream/distcache"
	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/metric"
	"github.com/c360/propstream/properties"
	"github.com/c360/propstream/testutil"
	"github.com/c360/propstream/types"
)

func testDeps() component.Dependencies {
	return component.Dependencies{Logger: testutil.QuietLogger()}
}

// newCache returns an in-memory bucket and a cache client writing into it
func newCache() (*testutil.MockKVStore, *distcache.KVClient) {
	kv := testutil.NewMockKVStore()
	return kv, distcache.NewKVClient(kv)
}

func newTestService(t *testing.T, cfg map[string]any) *Service {
	t.Helper()
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	comp, err := NewService(raw, testDeps())
	require.NoError(t, err)
	return comp.(*Service)
}

func TestNewService_Config(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{"minimal", `{"property_file_location": "/tmp/a.properties"}`, false},
		{"with bucket", `{"property_file_location": "a", "cache_bucket": "PROPS", "cache_history": 5}`, false},
		{"missing location", `{}`, true},
		{"empty config", ``, true},
		{"bad json", `{"property_file_location": 1}`, true},
		{"history too large", `{"property_file_location": "a", "cache_history": 65}`, true},
		{"zero attempts", `{"property_file_location": "a", "publish_attempts": 0}`, true},
		{"bad bucket", `{"property_file_location": "a", "cache_bucket": "has.dot"}`, true},
		{"rate limited", `{"property_file_location": "a", "publish_rate": 50}`, false},
		{"negative rate", `{"property_file_location": "a", "publish_rate": -1}`, true},
		{"base64 keys", `{"property_file_location": "a", "cache_key_encoding": "base64"}`, false},
		{"unknown key encoding", `{"property_file_location": "a", "cache_key_encoding": "hex"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(json.RawMessage(tt.config), testDeps())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewService_Defaults(t *testing.T) {
	svc := newTestService(t, map[string]any{"property_file_location": "a"})

	assert.Equal(t, 1, svc.config.CacheHistory)
	assert.Equal(t, 1, svc.config.PublishAttempts)
	assert.Empty(t, svc.OutputPorts())
	assert.Empty(t, svc.InputPorts())
	assert.Equal(t, "storage", svc.Meta().Type)
	assert.Equal(t, []string{"property_file_location"}, svc.ConfigSchema().Required)
}

func TestService_StartWithoutCache(t *testing.T) {
	path := testutil.WriteProperties(t, "db.host=localhost\ndb.port=5432\n")
	svc := newTestService(t, map[string]any{"property_file_location": path})

	require.NoError(t, svc.Initialize())
	require.NoError(t, svc.Start(context.Background()))

	v, ok := svc.GetProperty("db.host")
	assert.True(t, ok)
	assert.Equal(t, "localhost", v)
	assert.Equal(t, map[string]string{"db.host": "localhost", "db.port": "5432"}, svc.GetAllProperties())
	assert.True(t, svc.Health().Healthy)
	assert.False(t, svc.DataFlow().LastActivity.IsZero())

	err := svc.Start(context.Background())
	assert.ErrorIs(t, err, errors.ErrAlreadyStarted)

	require.NoError(t, svc.Stop(time.Second))
	_, ok = svc.GetProperty("db.host")
	assert.False(t, ok)
	assert.Empty(t, svc.GetAllProperties())
	assert.False(t, svc.Health().Healthy)

	require.NoError(t, svc.Stop(time.Second))
}

func TestService_StartMissingFileActivatesEmpty(t *testing.T) {
	svc := newTestService(t, map[string]any{
		"property_file_location": filepath.Join(t.TempDir(), "missing.properties"),
	})

	require.NoError(t, svc.Start(context.Background()))
	assert.Empty(t, svc.GetAllProperties())
	assert.True(t, svc.Health().Healthy)
}

func TestService_StartInvalidFileFails(t *testing.T) {
	path := testutil.WriteProperties(t, "key=\xff\xfe\n")
	svc := newTestService(t, map[string]any{"property_file_location": path})

	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSourceRead)
	assert.False(t, svc.Health().Healthy)
	assert.Equal(t, 1, svc.Health().ErrorCount)
	assert.NotEmpty(t, svc.Health().LastError)
}

func TestService_StartWithBucketRequiresNATS(t *testing.T) {
	path := testutil.WriteProperties(t, "a=1\n")
	svc := newTestService(t, map[string]any{
		"property_file_location": path,
		"cache_bucket":           "PROPERTIES",
	})

	err := svc.Start(context.Background())
	assert.ErrorIs(t, err, errors.ErrMissingConfig)

	ports := svc.OutputPorts()
	require.Len(t, ports, 1)
	assert.Equal(t, component.KVWritePort{Bucket: "PROPERTIES"}, ports[0].Config)
}

func TestService_ActivatePublishes(t *testing.T) {
	path := testutil.WriteProperties(t, "a=1\nb=2\nc=3\n")
	svc := newTestService(t, map[string]any{"property_file_location": path})
	kv, cache := newCache()

	require.NoError(t, svc.Activate(context.Background(), path, cache))
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, kv.Entries())
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, svc.GetAllProperties())
}

func TestService_ActivatePublishFailure(t *testing.T) {
	path := testutil.WriteProperties(t, "a=1\nb=2\nc=3\n")
	svc := newTestService(t, map[string]any{"property_file_location": path})
	kv, cache := newCache()
	kv.FailOnPut(2, nil)

	err := svc.Activate(context.Background(), path, cache)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPublish)
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Contains(t, err.Error(), `key "b"`)

	// The first entry stays in the cache, the local snapshot is rolled back
	assert.Equal(t, map[string]string{"a": "1"}, kv.Entries())
	assert.Empty(t, svc.GetAllProperties())
}

func TestService_ActivateKeysOutsideKVAlphabet(t *testing.T) {
	path := testutil.WriteProperties(t, "café=1\nmy\\ key=2\nfeature#1=on\napp.name=x\n")
	want := map[string]string{"café": "1", "my key": "2", "feature#1": "on", "app.name": "x"}

	t.Run("plain keys fail activation", func(t *testing.T) {
		svc := newTestService(t, map[string]any{"property_file_location": path})
		assert.Equal(t, distcache.KeyEncodingNone, svc.config.keyEncoding())
		_, cache := newCache()

		err := svc.Activate(context.Background(), path, cache)
		require.Error(t, err)
		assert.ErrorIs(t, err, distcache.ErrInvalidKey)
		assert.Empty(t, svc.GetAllProperties())
	})

	t.Run("base64 keys", func(t *testing.T) {
		svc := newTestService(t, map[string]any{
			"property_file_location": path,
			"cache_key_encoding":     "base64",
		})
		enc := svc.config.keyEncoding()
		require.Equal(t, distcache.KeyEncodingBase64, enc)
		kv := testutil.NewMockKVStore()

		require.NoError(t, svc.Activate(context.Background(), path, distcache.NewKVClient(kv, distcache.WithKeyEncoding(enc))))
		assert.Equal(t, want, svc.GetAllProperties())

		replicated := make(map[string]string)
		for kvKey, value := range kv.Entries() {
			key, err := distcache.DecodeKey(enc, kvKey)
			require.NoError(t, err)
			replicated[key] = value
		}
		assert.Equal(t, want, replicated)
	})
}

func TestService_ActivatePublishFailureRestoresPrevious(t *testing.T) {
	first := testutil.WriteProperties(t, "env=prod\n")
	second := testutil.WriteProperties(t, "env=staging\nregion=us-east\n")
	svc := newTestService(t, map[string]any{"property_file_location": first})

	kv, cache := newCache()
	kv.FailOnPut(1, nil)

	require.NoError(t, svc.Activate(context.Background(), first, nil))
	err := svc.Activate(context.Background(), second, cache)
	require.Error(t, err)

	assert.Equal(t, map[string]string{"env": "prod"}, svc.GetAllProperties())
}

func TestService_ActivateInvalidSourceKeepsSnapshot(t *testing.T) {
	good := testutil.WriteProperties(t, "a=1\n")
	bad := testutil.WriteProperties(t, "a=\xff\n")
	svc := newTestService(t, map[string]any{"property_file_location": good})
	kv, cache := newCache()

	require.NoError(t, svc.Activate(context.Background(), good, nil))
	err := svc.Activate(context.Background(), bad, cache)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))

	assert.Zero(t, kv.Revision())
	assert.Equal(t, map[string]string{"a": "1"}, svc.GetAllProperties())
}

func TestService_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	deps := testDeps()
	deps.MetricsRegistry = registry

	path := testutil.WriteProperties(t, "a=1\nb=2\n")
	raw, _ := json.Marshal(map[string]any{"property_file_location": path})

	comp, err := NewService(raw, deps)
	require.NoError(t, err)
	_, err = NewService(raw, deps)
	require.NoError(t, err, "second instance shares collectors")

	svc := comp.(*Service)
	_, cache := newCache()
	require.NoError(t, svc.Activate(context.Background(), path, cache))

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetGauge() != nil {
				found[mf.GetName()] = m.GetGauge().GetValue()
			}
			if m.GetCounter() != nil {
				found[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, found["propstream_properties_file_properties"])
	assert.Equal(t, 1.0, found["propstream_properties_file_activations_total"])
	assert.Equal(t, 2.0, found["propstream_distcache_puts_total"])
}

func TestRegister(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, Register(registry))
	assert.Error(t, Register(registry))

	path := testutil.WriteProperties(t, "a=1\n")
	raw, _ := json.Marshal(map[string]any{"property_file_location": path})
	comp, err := registry.CreateComponent("config", types.ComponentConfig{
		Type:    types.ComponentTypeStorage,
		Name:    "properties_file",
		Enabled: true,
		Config:  raw,
	}, testDeps())
	require.NoError(t, err)

	provider, ok := comp.(properties.Provider)
	require.True(t, ok)
	require.NoError(t, comp.(component.LifecycleComponent).Start(context.Background()))
	v, ok := provider.GetProperty("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}
