package propertiesfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/propstream/component"
	"github.com/c360/propstream/distcache"
	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/natsclient"
	"github.com/c360/propstream/properties"
)

const componentName = "properties-file"

// Ensure Service implements required interfaces
var (
	_ component.Discoverable       = (*Service)(nil)
	_ component.LifecycleComponent = (*Service)(nil)
	_ properties.Provider          = (*Service)(nil)
)

// Service owns a properties snapshot and optionally replicates it to a KV bucket
type Service struct {
	name        string
	config      Config
	natsClient  *natsclient.Client
	logger      *slog.Logger
	loader      *properties.Loader
	distributor *distcache.Distributor
	metrics     *serviceMetrics

	lifecycleMu sync.Mutex
	running     bool
	startTime   time.Time

	mu           sync.RWMutex
	lastError    string
	lastActivity time.Time
	errorCount   int64
}

// NewService creates a properties_file component from raw JSON configuration
func NewService(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	cfg := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "PropertiesFileService", "NewService", "config unmarshal")
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.GetLoggerWithComponent(componentName)

	metrics, err := newServiceMetrics(deps.MetricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize properties file metrics", "error", err)
		metrics = nil
	}

	distributorOpts := []distcache.Option{
		distcache.WithLogger(logger),
		distcache.WithRetry(cfg.retryConfig()),
		distcache.WithRateLimit(cfg.PublishRate, max(1, int(cfg.PublishRate))),
	}
	if deps.MetricsRegistry != nil {
		distributorOpts = append(distributorOpts, distcache.WithMetrics(deps.MetricsRegistry))
	}
	distributor, err := distcache.NewDistributor(componentName, distributorOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "PropertiesFileService", "NewService", "create distributor")
	}

	return &Service{
		name:        componentName,
		config:      cfg,
		natsClient:  deps.NATSClient,
		logger:      logger,
		loader:      properties.NewLoader(logger),
		distributor: distributor,
		metrics:     metrics,
	}, nil
}

// Initialize validates configuration; all I/O happens in Start
func (s *Service) Initialize() error {
	return s.config.Validate()
}

// Start activates the component: it resolves the cache bucket when one is
// configured, then loads and publishes the properties file. An error means the
// component is not active.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "PropertiesFileService", "Start", "check running state")
	}

	client, err := s.cacheClient(ctx)
	if err != nil {
		s.recordError(err)
		return err
	}

	if err := s.Activate(ctx, s.config.PropertyFileLocation, client); err != nil {
		return err
	}

	s.running = true
	s.startTime = time.Now()

	s.logger.Info("Properties file service started",
		"file", s.config.PropertyFileLocation,
		"bucket", s.config.CacheBucket,
		"properties", s.loader.Current().Len())
	return nil
}

// cacheClient returns nil when replication is disabled
func (s *Service) cacheClient(ctx context.Context) (distcache.Client, error) {
	if s.config.CacheBucket == "" {
		return nil, nil
	}
	if s.natsClient == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "PropertiesFileService", "Start",
			"NATS client required for cache replication")
	}

	bucket, err := s.natsClient.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      s.config.CacheBucket,
		Description: "Replicated properties",
		History:     uint8(s.config.CacheHistory),
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "PropertiesFileService", "Start",
			fmt.Sprintf("resolve bucket %s", s.config.CacheBucket))
	}

	return distcache.NewKVClient(s.natsClient.NewKVStore(bucket), distcache.WithKeyEncoding(s.config.keyEncoding())), nil
}

// Activate loads sourcePath and, when client is not nil, publishes every entry
// to it. On a publication failure the snapshot held before activation is
// restored.
func (s *Service) Activate(ctx context.Context, sourcePath string, client distcache.Client) error {
	previous := s.loader.Current()

	store, err := s.loader.Load(sourcePath)
	if err != nil {
		s.recordError(err)
		s.metrics.recordActivation(s.name, "load_error")
		return err
	}

	if client != nil {
		if err := s.distributor.Publish(ctx, store, client); err != nil {
			s.loader.Swap(previous)
			s.recordError(err)
			s.metrics.recordActivation(s.name, "publish_error")
			s.metrics.setProperties(s.name, previous.Len())
			s.logger.Error("Activation failed, previous configuration restored",
				"file", sourcePath, "restored_properties", previous.Len(), "error", err)
			return err
		}
	}

	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()

	s.metrics.recordActivation(s.name, "ok")
	s.metrics.setProperties(s.name, store.Len())
	return nil
}

// Deactivate clears the held configuration
func (s *Service) Deactivate() {
	s.loader.Clear()
	s.metrics.setProperties(s.name, 0)
	s.logger.Debug("Cleared properties")
}

// Stop deactivates the component
func (s *Service) Stop(_ time.Duration) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if !s.running {
		return nil
	}

	s.Deactivate()
	s.running = false

	s.logger.Info("Properties file service stopped")
	return nil
}

// GetProperty returns the value for key from the current snapshot
func (s *Service) GetProperty(key string) (string, bool) {
	return s.loader.GetProperty(key)
}

// GetAllProperties returns a copy of the current snapshot
func (s *Service) GetAllProperties() map[string]string {
	return s.loader.GetAllProperties()
}

func (s *Service) recordError(err error) {
	atomic.AddInt64(&s.errorCount, 1)
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

// Meta returns component metadata
func (s *Service) Meta() component.Metadata {
	return component.Metadata{
		Name:        s.name,
		Type:        "storage",
		Description: "Properties file loader with optional NATS KV replication",
		Version:     "1.0.0",
	}
}

// InputPorts returns no ports; the file is read on activation only
func (s *Service) InputPorts() []component.Port {
	return []component.Port{}
}

// OutputPorts returns the KV bucket written on activation, if any
func (s *Service) OutputPorts() []component.Port {
	if s.config.CacheBucket == "" {
		return []component.Port{}
	}
	return []component.Port{{
		Name:        "cache",
		Direction:   component.DirectionOutput,
		Description: "KV bucket holding the replicated properties",
		Config:      component.KVWritePort{Bucket: s.config.CacheBucket},
	}}
}

// ConfigSchema returns the configuration schema
func (s *Service) ConfigSchema() component.ConfigSchema {
	return propertiesFileSchema
}

// Health returns the current health status
func (s *Service) Health() component.HealthStatus {
	s.lifecycleMu.Lock()
	running, started := s.running, s.startTime
	s.lifecycleMu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	status := component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&s.errorCount)),
		LastError:  s.lastError,
	}
	if running {
		status.Uptime = time.Since(started)
	}
	return status
}

// DataFlow reports the time of the last successful activation
func (s *Service) DataFlow() component.FlowMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return component.FlowMetrics{LastActivity: s.lastActivity}
}
