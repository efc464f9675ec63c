package distcache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/metric"
	"github.com/c360/propstream/pkg/retry"
	"github.com/c360/propstream/properties"
)

// Distributor pushes every entry of a snapshot into a cache. It keeps no
// state between publications.
type Distributor struct {
	name    string
	logger  *slog.Logger
	metrics *distributorMetrics
	retry   retry.Config
	limiter *rate.Limiter
}

// Option configures a Distributor
type Option func(*Distributor) error

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(d *Distributor) error {
		if logger != nil {
			d.logger = logger
		}
		return nil
	}
}

// WithMetrics reports publications into registry, labelled with the distributor name
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(d *Distributor) error {
		m, err := newDistributorMetrics(registry)
		if err != nil {
			return err
		}
		d.metrics = m
		return nil
	}
}

// WithRetry sets the per-put retry policy. The default makes one attempt.
func WithRetry(cfg retry.Config) Option {
	return func(d *Distributor) error {
		d.retry = cfg
		return nil
	}
}

// WithRateLimit caps cache puts at perSecond with the given burst. A
// non-positive perSecond leaves puts unlimited.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(d *Distributor) error {
		if perSecond <= 0 {
			d.limiter = nil
			return nil
		}
		if burst < 1 {
			return fmt.Errorf("rate limit burst must be at least 1, got %d", burst)
		}
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// NewDistributor creates a distributor; name labels its logs and metrics
func NewDistributor(name string, opts ...Option) (*Distributor, error) {
	d := &Distributor{
		name:   name,
		logger: slog.Default(),
		retry:  retry.Once(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, errors.WrapInvalid(err, "Distributor", "NewDistributor", "apply option")
		}
	}
	return d, nil
}

// Publish writes every entry of store through client, keys and values each
// encoded with UTF8Serializer. An empty store is a successful no-op.
//
// The first entry that cannot be written stops the publication and the
// returned error wraps errors.ErrPublish and names the key. Entries written
// before the failure stay in the cache.
func (d *Distributor) Publish(ctx context.Context, store *properties.Store, client Client) error {
	if client == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "Distributor", "Publish", "cache client check")
	}
	if store == nil || store.Len() == 0 {
		d.logger.Debug("No properties to publish", "component", d.name)
		return nil
	}

	start := time.Now()
	for _, entry := range store.Entries() {
		if err := d.put(ctx, client, entry); err != nil {
			d.metrics.recordPublish(d.name, false, 0, time.Since(start))
			d.logger.Error("Failed to publish property to cache",
				"component", d.name, "key", entry.Key, "error", err)
			return errors.WrapFatal(
				fmt.Errorf("%w: key %q: %w", errors.ErrPublish, entry.Key, err),
				"Distributor", "Publish", "distribute snapshot")
		}
	}

	d.metrics.recordPublish(d.name, true, store.Len(), time.Since(start))
	d.logger.Info("Published properties to cache", "component", d.name, "count", store.Len())
	return nil
}

func (d *Distributor) put(ctx context.Context, client Client, entry properties.ConfigEntry) error {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			d.metrics.recordPut(d.name, false)
			return err
		}
	}
	err := retry.Do(ctx, d.retry, func() error {
		return client.Put(ctx, entry.Key, entry.Value, UTF8Serializer, UTF8Serializer)
	})
	d.metrics.recordPut(d.name, err == nil)
	if err != nil {
		return err
	}
	d.logger.Debug("Put property in cache", "component", d.name, "key", entry.Key, "value_len", len(entry.Value))
	return nil
}
