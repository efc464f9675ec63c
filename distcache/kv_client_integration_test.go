//go:build integration

package distcache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/propstream/natsclient"
	"github.com/c360/propstream/properties"
)

func TestDistributor_PublishToKVBucket(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}

	testClient := natsclient.NewTestClient(t, natsclient.WithJetStream())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bucket, err := testClient.Client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:  "distcache-test",
		History: 1,
	})
	require.NoError(t, err)
	kv := testClient.Client.NewKVStore(bucket)

	d := newTestDistributor(t)
	store := properties.NewStore(map[string]string{
		"db.host": "localhost",
		"db.port": "5432",
	})
	require.NoError(t, d.Publish(ctx, store, NewKVClient(kv)))

	keys, err := kv.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"db.host", "db.port"}, keys)

	entry, err := kv.Get(ctx, "db.port")
	require.NoError(t, err)
	assert.Equal(t, "5432", string(entry.Value))
}
