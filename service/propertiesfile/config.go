package propertiesfile

import (
	"fmt"
	"regexp"
	"time"

	"github.com/c360/propstream/component"
	"github.com/c360/propstream/distcache"
	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/pkg/retry"
)

// NATS KV keeps at most 64 revisions per key
const maxCacheHistory = 64

var validBucketName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Config holds configuration for the properties_file component
type Config struct {
	// PropertyFileLocation is the path of the properties file
	PropertyFileLocation string `json:"property_file_location"`

	// CacheBucket is the KV bucket to replicate into. Empty disables replication.
	CacheBucket string `json:"cache_bucket,omitempty"`

	// CacheHistory is the history depth used when the bucket is created
	CacheHistory int `json:"cache_history,omitempty"`

	// PublishAttempts is the number of attempts per cache put
	PublishAttempts int `json:"publish_attempts,omitempty"`

	// PublishRate caps cache puts per second. Zero means unlimited.
	PublishRate float64 `json:"publish_rate,omitempty"`

	// CacheKeyEncoding is "none" (default) or "base64". With "none", keys
	// outside the KV key alphabet fail activation.
	CacheKeyEncoding string `json:"cache_key_encoding,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		CacheHistory:    1,
		PublishAttempts: 1,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.PropertyFileLocation == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: property_file_location is required", errors.ErrMissingConfig),
			"PropertiesFileService", "Validate", "file location check")
	}
	if c.CacheHistory < 1 || c.CacheHistory > maxCacheHistory {
		return errors.WrapInvalid(
			fmt.Errorf("%w: cache_history must be between 1 and %d", errors.ErrInvalidConfig, maxCacheHistory),
			"PropertiesFileService", "Validate", "cache history check")
	}
	if c.PublishAttempts < 1 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: publish_attempts must be at least 1", errors.ErrInvalidConfig),
			"PropertiesFileService", "Validate", "publish attempts check")
	}
	if c.PublishRate < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: publish_rate cannot be negative", errors.ErrInvalidConfig),
			"PropertiesFileService", "Validate", "publish rate check")
	}
	if _, err := distcache.ParseKeyEncoding(c.CacheKeyEncoding); err != nil {
		return errors.WrapInvalid(err, "PropertiesFileService", "Validate", "cache key encoding check")
	}
	if c.CacheBucket != "" && !validBucketName.MatchString(c.CacheBucket) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: cache_bucket %q must match %s", errors.ErrInvalidConfig, c.CacheBucket, validBucketName),
			"PropertiesFileService", "Validate", "cache bucket name check")
	}
	return nil
}

// keyEncoding returns the validated cache key encoding
func (c Config) keyEncoding() distcache.KeyEncoding {
	enc, err := distcache.ParseKeyEncoding(c.CacheKeyEncoding)
	if err != nil {
		return distcache.KeyEncodingNone
	}
	return enc
}

// retryConfig returns the per-put retry policy for the distributor
func (c Config) retryConfig() retry.Config {
	if c.PublishAttempts <= 1 {
		return retry.Once()
	}
	return retry.Config{
		MaxAttempts:  c.PublishAttempts,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
		Retryable:    errors.IsTransient,
	}
}

var propertiesFileSchema = component.ConfigSchema{
	Properties: map[string]component.PropertySchema{
		"property_file_location": {
			Type:        "string",
			Description: "Path of the properties file read on activation",
			Category:    "basic",
		},
		"cache_bucket": {
			Type:        "string",
			Description: "NATS KV bucket the configuration is replicated into (empty disables replication)",
			Category:    "basic",
		},
		"cache_history": {
			Type:        "int",
			Description: "History depth of the cache bucket when it is created",
			Default:     1,
			Minimum:     component.IntPtr(1),
			Maximum:     component.IntPtr(maxCacheHistory),
			Category:    "advanced",
		},
		"publish_attempts": {
			Type:        "int",
			Description: "Attempts per cache put before activation fails",
			Default:     1,
			Minimum:     component.IntPtr(1),
			Category:    "advanced",
		},
		"publish_rate": {
			Type:        "number",
			Description: "Maximum cache puts per second (0 for unlimited)",
			Default:     0,
			Minimum:     component.IntPtr(0),
			Category:    "advanced",
		},
		"cache_key_encoding": {
			Type:        "string",
			Description: "Key encoding in the cache bucket: none or base64 (for keys NATS KV cannot store)",
			Default:     "none",
			Category:    "advanced",
		},
	},
	Required: []string{"property_file_location"},
}
