// Package distcache replicates a configuration snapshot into a shared cache so
// that cooperating processes read the same values without re-reading the
// source.
//
// The cache is reached through the narrow Client contract: a put of one
// key/value pair together with the serializers that turn each into bytes.
// KVClient implements it on a NATS JetStream KV bucket.
package distcache

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/c360/propstream/errors"
)

// ErrSerialization is returned when a key or value cannot be encoded
var ErrSerialization = fmt.Errorf("%w: serialization failed", errors.ErrInvalidData)

// Serializer converts a string into the bytes stored in the cache
type Serializer func(value string) ([]byte, error)

// UTF8Serializer encodes a string as UTF-8. It fails on strings that are not
// valid UTF-8 rather than storing replacement characters.
func UTF8Serializer(value string) ([]byte, error) {
	if !utf8.ValidString(value) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrSerialization)
	}
	return []byte(value), nil
}

// Client is the shared cache as seen by the distributor
type Client interface {
	// Put stores value under key, encoding each with its serializer
	Put(ctx context.Context, key, value string, keySerializer, valueSerializer Serializer) error
}

// CacheWriteRequest is one serialized key/value pair on its way to the cache
type CacheWriteRequest struct {
	Key             string
	SerializedKey   []byte
	SerializedValue []byte
}

// NewWriteRequest serializes key and value independently
func NewWriteRequest(key, value string, keySerializer, valueSerializer Serializer) (CacheWriteRequest, error) {
	if keySerializer == nil || valueSerializer == nil {
		return CacheWriteRequest{}, fmt.Errorf("%w: nil serializer", ErrSerialization)
	}
	k, err := keySerializer(key)
	if err != nil {
		return CacheWriteRequest{}, fmt.Errorf("serialize key %q: %w", key, err)
	}
	v, err := valueSerializer(value)
	if err != nil {
		return CacheWriteRequest{}, fmt.Errorf("serialize value of %q: %w", key, err)
	}
	return CacheWriteRequest{Key: key, SerializedKey: k, SerializedValue: v}, nil
}
