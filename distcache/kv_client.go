package distcache

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"regexp"

	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/pkg/retry"
)

// ErrTransport is returned when the cache cannot be reached or rejects a write
var ErrTransport = stderrors.New("cache transport failure")

// ErrInvalidKey is returned for keys the KV bucket cannot store
var ErrInvalidKey = fmt.Errorf("%w: key not valid for KV bucket", errors.ErrInvalidData)

// KVPutter is the subset of natsclient.KVStore used by KVClient
type KVPutter interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// NATS KV keys: dot-separated tokens of [-/_=a-zA-Z0-9]
var validKVKey = regexp.MustCompile(`^[-/_=a-zA-Z0-9]+(\.[-/_=a-zA-Z0-9]+)*$`)

// KeyEncoding controls how serialized keys are mapped to KV keys
type KeyEncoding string

const (
	// KeyEncodingNone stores keys as they are. Keys outside the KV key
	// alphabet are rejected.
	KeyEncodingNone KeyEncoding = "none"
	// KeyEncodingBase64 stores unpadded URL-safe base64 of the key, which is
	// always a valid KV key. DecodeKey reverses it.
	KeyEncodingBase64 KeyEncoding = "base64"
)

// ParseKeyEncoding accepts "", "none" and "base64"
func ParseKeyEncoding(s string) (KeyEncoding, error) {
	switch KeyEncoding(s) {
	case "", KeyEncodingNone:
		return KeyEncodingNone, nil
	case KeyEncodingBase64:
		return KeyEncodingBase64, nil
	default:
		return "", fmt.Errorf("%w: unknown key encoding %q", errors.ErrInvalidConfig, s)
	}
}

// DecodeKey returns the property key stored under kvKey
func DecodeKey(enc KeyEncoding, kvKey string) (string, error) {
	if enc != KeyEncodingBase64 {
		return kvKey, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(kvKey)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidKey, kvKey, err)
	}
	return string(raw), nil
}

// KVClient writes cache entries into a NATS JetStream KV bucket. The
// serialized key, after key encoding, becomes the KV key and the serialized
// value the KV value.
type KVClient struct {
	store    KVPutter
	encoding KeyEncoding
}

// KVOption configures a KVClient
type KVOption func(*KVClient)

// WithKeyEncoding sets the key encoding (default KeyEncodingNone)
func WithKeyEncoding(enc KeyEncoding) KVOption {
	return func(c *KVClient) {
		c.encoding = enc
	}
}

// NewKVClient creates a client over store
func NewKVClient(store KVPutter, opts ...KVOption) *KVClient {
	c := &KVClient{store: store, encoding: KeyEncodingNone}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *KVClient) kvKey(serialized []byte) string {
	if c.encoding == KeyEncodingBase64 {
		return base64.RawURLEncoding.EncodeToString(serialized)
	}
	return string(serialized)
}

// Put implements Client
func (c *KVClient) Put(ctx context.Context, key, value string, keySerializer, valueSerializer Serializer) error {
	req, err := NewWriteRequest(key, value, keySerializer, valueSerializer)
	if err != nil {
		return retry.NonRetryable(err)
	}

	kvKey := c.kvKey(req.SerializedKey)
	if !validKVKey.MatchString(kvKey) {
		return retry.NonRetryable(fmt.Errorf("%w: %q", ErrInvalidKey, kvKey))
	}

	if _, err := c.store.Put(ctx, kvKey, req.SerializedValue); err != nil {
		return errors.WrapTransient(errors.Join(ErrTransport, err), "KVClient", "Put",
			fmt.Sprintf("write %s", kvKey))
	}
	return nil
}
