package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/propstream/component"
	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/message"
	"github.com/c360/propstream/metric"
	"github.com/c360/propstream/natsclient"
	"github.com/c360/propstream/pkg/worker"
	"github.com/c360/propstream/properties"
)

const componentName = "retrieve-properties"

// publisher is the outbound side of the NATS client
type publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Ensure Processor implements required interfaces
var (
	_ component.Discoverable       = (*Processor)(nil)
	_ component.LifecycleComponent = (*Processor)(nil)
)

// Processor enriches records arriving on NATS with provider properties
type Processor struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	publisher  publisher
	deps       component.Dependencies
	logger     *slog.Logger

	metricsRegistry *metric.MetricsRegistry
	metrics         *enrichMetrics

	// Lifecycle management
	lifecycleMu sync.Mutex
	running     bool
	startTime   time.Time
	enricher    *Enricher
	pool        atomic.Pointer[worker.Pool[[]byte]]
	poolCancel  context.CancelFunc
	sub         *nats.Subscription

	// Counters for DataFlow
	received     int64
	succeeded    int64
	failed       int64
	errors       int64
	bytes        int64
	lastActivity atomic.Value // time.Time
}

// NewProcessor creates a retrieve_properties processor from configuration
func NewProcessor(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	cfg := DefaultConfig()
	cfg.Ports = nil
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "RetrievePropertiesProcessor", "NewProcessor", "config unmarshal")
		}
	}
	cfg = cfg.withDefaultPorts()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.GetLoggerWithComponent(componentName)

	metrics, err := newEnrichMetrics(deps.MetricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize enrichment metrics", "error", err)
		metrics = nil
	}

	p := &Processor{
		name:            componentName,
		config:          cfg,
		natsClient:      deps.NATSClient,
		deps:            deps,
		logger:          logger,
		metricsRegistry: deps.MetricsRegistry,
		metrics:         metrics,
	}
	if deps.NATSClient != nil {
		p.publisher = deps.NATSClient
	}
	return p, nil
}

// Initialize validates configuration; all I/O happens in Start
func (p *Processor) Initialize() error {
	return p.config.Validate()
}

// Start resolves the properties provider, starts the workers and subscribes to
// the input subject
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "RetrievePropertiesProcessor", "Start", "check running state")
	}
	provider, err := p.resolveProvider()
	if err != nil {
		return err
	}

	if p.natsClient == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "RetrievePropertiesProcessor", "Start", "NATS client required")
	}

	if err := p.startWorkers(ctx, provider); err != nil {
		return err
	}

	subject, queue := p.config.subject(PortInput), p.config.queue(PortInput)
	sub, err := p.natsClient.QueueSubscribe(ctx, subject, queue, p.handleMessage)
	if err != nil {
		p.stopWorkers(time.Second)
		return errors.WrapTransient(err, "RetrievePropertiesProcessor", "Start", fmt.Sprintf("subscribe to %s", subject))
	}
	p.sub = sub

	p.running = true
	p.startTime = time.Now()

	p.logger.Info("Retrieve properties processor started",
		"input_subject", subject,
		"success_subject", p.config.subject(PortSuccess),
		"failure_subject", p.config.subject(PortFailure),
		"provider", p.config.PropertyFileService,
		"workers", p.config.Workers)
	return nil
}

func (p *Processor) resolveProvider() (properties.Provider, error) {
	comp, err := p.deps.Lookup(p.config.PropertyFileService)
	if err != nil {
		return nil, errors.Wrap(err, "RetrievePropertiesProcessor", "Start", "resolve property file service")
	}
	provider, ok := comp.(properties.Provider)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: component %q does not provide properties", errors.ErrInvalidConfig, p.config.PropertyFileService),
			"RetrievePropertiesProcessor", "Start", "resolve property file service")
	}
	// A provider that failed to activate holds no configuration
	if health := comp.Health(); !health.Healthy {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: property file service %q is not active", errors.ErrNotStarted, p.config.PropertyFileService),
			"RetrievePropertiesProcessor", "Start", "resolve property file service")
	}
	return provider, nil
}

// startWorkers runs the pool on a context that outlives ctx so that Stop can
// drain queued records
func (p *Processor) startWorkers(ctx context.Context, provider properties.Provider) error {
	p.enricher = NewEnricher(p.name, provider, p.logger)
	p.enricher.metrics = p.metrics

	var opts []worker.Option[[]byte]
	if p.metricsRegistry != nil {
		opts = append(opts, worker.WithMetricsRegistry[[]byte](p.metricsRegistry, subsystem+"_pool"))
	}
	pool := worker.NewPool(p.config.Workers, p.config.QueueSize, p.process, opts...)

	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := pool.Start(poolCtx); err != nil {
		cancel()
		return errors.WrapFatal(err, "RetrievePropertiesProcessor", "Start", "start workers")
	}
	p.pool.Store(pool)
	p.poolCancel = cancel
	return nil
}

func (p *Processor) stopWorkers(timeout time.Duration) error {
	if p.poolCancel == nil {
		return nil
	}
	pool := p.pool.Load()
	err := pool.Stop(timeout)
	p.poolCancel()
	p.poolCancel = nil
	if err != nil {
		p.failQueued(pool.Drain())
	}
	return err
}

// failQueued routes records the workers did not reach to failure unchanged
func (p *Processor) failQueued(records [][]byte) {
	if len(records) == 0 {
		return
	}
	p.logger.Warn("Stop timed out, routing queued records to failure", "count", len(records))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, data := range records {
		p.metrics.recordError(p.name, "stop_timeout")
		if err := p.route(ctx, RouteFailure, data); err != nil {
			p.logger.Error("Dropped queued record after stop timeout", "bytes", len(data), "error", err)
		}
	}
}

// Stop unsubscribes and waits up to timeout for queued records to be routed
func (p *Processor) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.poolCancel == nil {
		return nil
	}

	if p.sub != nil {
		if err := p.sub.Unsubscribe(); err != nil {
			p.logger.Warn("Failed to unsubscribe", "error", err)
		}
		p.sub = nil
	}

	p.running = false
	if err := p.stopWorkers(timeout); err != nil {
		return errors.WrapTransient(err, "RetrievePropertiesProcessor", "Stop", "drain queued records")
	}

	p.logger.Info("Retrieve properties processor stopped",
		"received", atomic.LoadInt64(&p.received),
		"succeeded", atomic.LoadInt64(&p.succeeded),
		"failed", atomic.LoadInt64(&p.failed))
	return nil
}

// handleMessage queues one record. It blocks while the queue is full; a record
// that cannot be queued is routed to failure unchanged.
func (p *Processor) handleMessage(ctx context.Context, data []byte) {
	atomic.AddInt64(&p.received, 1)
	atomic.AddInt64(&p.bytes, int64(len(data)))
	p.lastActivity.Store(time.Now())

	pool := p.pool.Load()
	if pool == nil {
		p.metrics.recordError(p.name, "queue")
		_ = p.route(ctx, RouteFailure, data)
		return
	}

	if err := pool.Submit(ctx, data); err != nil {
		p.metrics.recordError(p.name, "queue")
		p.logger.Warn("Could not queue record, routing to failure", "error", err)
		_ = p.route(context.WithoutCancel(ctx), RouteFailure, data)
	}
}

// process decodes, enriches and publishes one record
func (p *Processor) process(ctx context.Context, data []byte) error {
	rec, err := message.UnmarshalRecord(data)
	if err != nil {
		p.metrics.recordError(p.name, "decode")
		p.logger.Debug("Failed to decode record, routing to failure", "error", err)
		if pubErr := p.route(ctx, RouteFailure, data); pubErr != nil {
			return pubErr
		}
		return err
	}

	session := NewSession(rec)
	p.enricher.OnTrigger(session)

	route := RouteSuccess
	if len(session.Routed(RouteFailure)) > 0 {
		route = RouteFailure
	}

	out, err := rec.Marshal()
	if err != nil {
		p.metrics.recordError(p.name, "encode")
		p.logger.Error("Failed to encode enriched record", "id", rec.ID, "error", err)
		return p.route(ctx, RouteFailure, data)
	}

	if err := p.route(ctx, route, out); err != nil {
		return err
	}
	if route == RouteFailure {
		return errors.ErrEnrichment
	}
	return nil
}

// route publishes data to the subject of route
func (p *Processor) route(ctx context.Context, route Route, data []byte) error {
	port := PortSuccess
	if route == RouteFailure {
		port = PortFailure
	}
	subject := p.config.subject(port)

	if err := p.publisher.Publish(ctx, subject, data); err != nil {
		atomic.AddInt64(&p.errors, 1)
		p.metrics.recordError(p.name, "publish")
		p.logger.Error("Failed to publish record", "route", route, "subject", subject, "error", err)
		return errors.WrapTransient(err, "RetrievePropertiesProcessor", "route", fmt.Sprintf("publish to %s", subject))
	}

	if route == RouteFailure {
		atomic.AddInt64(&p.failed, 1)
	} else {
		atomic.AddInt64(&p.succeeded, 1)
	}
	return nil
}

// Meta returns component metadata
func (p *Processor) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "processor",
		Description: "Sets properties from a properties_file component as record attributes",
		Version:     "1.0.0",
	}
}

// InputPorts returns the record input port
func (p *Processor) InputPorts() []component.Port {
	return component.BuildPorts(p.config.Ports.Inputs, component.DirectionInput)
}

// OutputPorts returns the success and failure ports
func (p *Processor) OutputPorts() []component.Port {
	return component.BuildPorts(p.config.Ports.Outputs, component.DirectionOutput)
}

// ConfigSchema returns the configuration schema
func (p *Processor) ConfigSchema() component.ConfigSchema {
	return retrievePropertiesSchema
}

// Health returns the current health status
func (p *Processor) Health() component.HealthStatus {
	p.lifecycleMu.Lock()
	running, started := p.running, p.startTime
	p.lifecycleMu.Unlock()

	status := component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&p.errors)),
	}
	if running {
		status.Uptime = time.Since(started)
	}
	return status
}

// DataFlow returns throughput since start
func (p *Processor) DataFlow() component.FlowMetrics {
	p.lifecycleMu.Lock()
	started := p.startTime
	p.lifecycleMu.Unlock()

	var flow component.FlowMetrics
	if last, ok := p.lastActivity.Load().(time.Time); ok {
		flow.LastActivity = last
	}

	received := atomic.LoadInt64(&p.received)
	if received > 0 {
		flow.ErrorRate = float64(atomic.LoadInt64(&p.failed)) / float64(received)
	}
	if !started.IsZero() {
		if elapsed := time.Since(started).Seconds(); elapsed > 0 {
			flow.MessagesPerSecond = float64(received) / elapsed
			flow.BytesPerSecond = float64(atomic.LoadInt64(&p.bytes)) / elapsed
		}
	}
	return flow
}

// Register registers the retrieve_properties factory with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "retrieve_properties",
		Factory:     NewProcessor,
		Schema:      retrievePropertiesSchema,
		Type:        "processor",
		Protocol:    "nats",
		Domain:      "processing",
		Description: "Sets properties from a properties_file component as record attributes",
		Version:     "1.0.0",
	})
}
