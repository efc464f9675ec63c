package distcache

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/pkg/retry"
	"github.com/c360/propstream/testutil"
)

func TestUTF8Serializer(t *testing.T) {
	b, err := UTF8Serializer("héllo")
	require.NoError(t, err)
	assert.Equal(t, []byte("héllo"), b)

	_, err = UTF8Serializer("\xc3\x28")
	assert.ErrorIs(t, err, ErrSerialization)
	assert.True(t, errors.IsInvalid(err))
}

func TestNewWriteRequest(t *testing.T) {
	req, err := NewWriteRequest("db.host", "localhost", UTF8Serializer, UTF8Serializer)
	require.NoError(t, err)
	assert.Equal(t, "db.host", req.Key)
	assert.Equal(t, []byte("db.host"), req.SerializedKey)
	assert.Equal(t, []byte("localhost"), req.SerializedValue)

	_, err = NewWriteRequest("k", "v", nil, UTF8Serializer)
	assert.ErrorIs(t, err, ErrSerialization)

	_, err = NewWriteRequest("k", "\xff", UTF8Serializer, UTF8Serializer)
	assert.ErrorIs(t, err, ErrSerialization)
	assert.Contains(t, err.Error(), "value")
}

func TestKVClient_Put(t *testing.T) {
	kv := testutil.NewMockKVStore()
	client := NewKVClient(kv)

	require.NoError(t, client.Put(context.Background(), "db.host", "localhost", UTF8Serializer, UTF8Serializer))
	require.NoError(t, client.Put(context.Background(), "db.host", "127.0.0.1", UTF8Serializer, UTF8Serializer))

	v, ok := kv.Get("db.host")
	assert.True(t, ok)
	assert.Equal(t, "127.0.0.1", v)
	assert.Equal(t, uint64(2), kv.Revision())
}

func TestKVClient_InvalidKey(t *testing.T) {
	kv := testutil.NewMockKVStore()
	client := NewKVClient(kv)

	for _, key := range []string{"has space", ".leading", "trailing.", "a..b", "wild*", ""} {
		err := client.Put(context.Background(), key, "v", UTF8Serializer, UTF8Serializer)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		assert.True(t, retry.IsNonRetryable(err), key)
	}
	assert.Empty(t, kv.Entries())
}

func TestKVClient_Base64KeyEncoding(t *testing.T) {
	kv := testutil.NewMockKVStore()
	client := NewKVClient(kv, WithKeyEncoding(KeyEncodingBase64))

	keys := []string{"café", "my key", "feature#1", "app.name"}
	for _, key := range keys {
		require.NoError(t, client.Put(context.Background(), key, "v-"+key, UTF8Serializer, UTF8Serializer), key)
	}

	entries := kv.Entries()
	require.Len(t, entries, len(keys))
	decoded := make(map[string]string, len(entries))
	for kvKey, value := range entries {
		assert.Regexp(t, `^[-_a-zA-Z0-9]+$`, kvKey)
		key, err := DecodeKey(KeyEncodingBase64, kvKey)
		require.NoError(t, err)
		decoded[key] = value
	}
	for _, key := range keys {
		assert.Equal(t, "v-"+key, decoded[key])
	}

	err := client.Put(context.Background(), "", "v", UTF8Serializer, UTF8Serializer)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestParseKeyEncoding(t *testing.T) {
	for in, want := range map[string]KeyEncoding{"": KeyEncodingNone, "none": KeyEncodingNone, "base64": KeyEncodingBase64} {
		got, err := ParseKeyEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKeyEncoding("hex")
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	key, err := DecodeKey(KeyEncodingNone, "db.host")
	require.NoError(t, err)
	assert.Equal(t, "db.host", key)

	_, err = DecodeKey(KeyEncodingBase64, "not*base64")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestKVClient_TransportError(t *testing.T) {
	cause := stderrors.New("nats: timeout")
	kv := testutil.NewMockKVStore()
	kv.FailOnPut(1, cause)
	client := NewKVClient(kv)

	err := client.Put(context.Background(), "a", "1", UTF8Serializer, UTF8Serializer)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.IsTransient(err))
}
