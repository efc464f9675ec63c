//go:build integration

package enrich

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/propstream/component"
	"github.com/c360/propstream/message"
	"github.com/c360/propstream/natsclient"
	"github.com/c360/propstream/service/propertiesfile"
	"github.com/c360/propstream/testutil"
	"github.com/c360/propstream/types"
)

func TestProcessor_EndToEnd(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}

	testClient := natsclient.NewTestClient(t, natsclient.WithJetStream())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path := testutil.WriteProperties(t, "region=us-east\nenv=staging\n")

	registry := component.NewRegistry()
	require.NoError(t, propertiesfile.Register(registry))
	require.NoError(t, Register(registry))

	deps := component.Dependencies{
		NATSClient: testClient.Client,
		Logger:     testutil.QuietLogger(),
		Components: registry,
	}

	svcConfig, _ := json.Marshal(map[string]any{"property_file_location": path, "cache_bucket": "E2E_PROPS"})
	svc, err := registry.CreateComponent("app-config", types.ComponentConfig{
		Type: types.ComponentTypeStorage, Name: "properties_file", Enabled: true, Config: svcConfig,
	}, deps)
	require.NoError(t, err)

	proc, err := registry.CreateComponent("enricher", types.ComponentConfig{
		Type: types.ComponentTypeProcessor, Name: "retrieve_properties", Enabled: true,
		Config: json.RawMessage(`{"property_file_service": "app-config"}`),
	}, deps)
	require.NoError(t, err)

	require.NoError(t, svc.(component.LifecycleComponent).Start(ctx))
	require.NoError(t, proc.(component.LifecycleComponent).Start(ctx))
	defer proc.(component.LifecycleComponent).Stop(5 * time.Second)

	success := make(chan []byte, 1)
	failure := make(chan []byte, 1)
	_, err = testClient.Client.Subscribe(ctx, "records.enriched", func(_ context.Context, data []byte) { success <- data })
	require.NoError(t, err)
	_, err = testClient.Client.Subscribe(ctx, "records.failed", func(_ context.Context, data []byte) { failure <- data })
	require.NoError(t, err)
	require.NoError(t, testClient.Client.GetConnection().Flush())

	rec := message.NewRecord(json.RawMessage(`{"n": 1}`), map[string]string{"env": "prod"})
	data, err := rec.Marshal()
	require.NoError(t, err)
	require.NoError(t, testClient.Client.Publish(ctx, "records.in", data))
	require.NoError(t, testClient.Client.Publish(ctx, "records.in", []byte("garbage")))

	select {
	case out := <-success:
		enriched, err := message.UnmarshalRecord(out)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"env": "staging", "region": "us-east"}, enriched.Attributes)
	case <-time.After(10 * time.Second):
		t.Fatal("enriched record not received")
	}

	select {
	case out := <-failure:
		assert.Equal(t, "garbage", string(out))
	case <-time.After(10 * time.Second):
		t.Fatal("undecodable record not routed to failure")
	}
}
