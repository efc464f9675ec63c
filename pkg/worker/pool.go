// Package worker provides a generic worker pool that never drops work.
//
// Submit blocks while the queue is full, so a slow processor applies
// backpressure to the producer instead of losing items. Stop closes the queue
// and waits for the workers to drain everything already accepted.
//
//	pool := worker.NewPool(4, 256, func(ctx context.Context, rec *message.Record) error {
//	    return enrich(ctx, rec)
//	}, worker.WithMetricsRegistry[*message.Record](registry, "enricher"))
//	if err := pool.Start(ctx); err != nil { ... }
//	defer pool.Stop(10 * time.Second)
//
//	if err := pool.Submit(ctx, rec); err != nil {
//	    // ctx cancelled or pool stopped; the item was not accepted
//	}
package worker

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/propstream/metric"
)

// Pool is a fixed set of goroutines processing items of type T from a bounded queue
type Pool[T any] struct {
	workers   int
	queueSize int
	processor func(context.Context, T) error

	workChan chan T
	metrics  *Metrics
	wg       sync.WaitGroup
	done     chan struct{} // closed when the Start context ends

	// Submit holds the read lock while sending; Stop takes the write lock
	// before closing workChan, so no send can race the close.
	lifecycleMu sync.RWMutex
	started     bool
	stopped     bool

	submitted int64
	processed int64
	failed    int64
	waited    int64

	metricsRegistry *metric.MetricsRegistry
	metricsPrefix   string
	registered      []string
}

// Metrics holds Prometheus metrics for worker pool monitoring
type Metrics struct {
	queueDepth     prometheus.Gauge
	utilization    prometheus.Gauge
	submitted      prometheus.Counter
	processed      prometheus.Counter
	failed         prometheus.Counter
	waited         prometheus.Counter
	processingTime *prometheus.HistogramVec
}

// Option represents a configuration option for the worker pool
type Option[T any] func(*Pool[T])

// WithMetricsRegistry registers pool metrics under the given prefix.
// Dashes and dots in the prefix are replaced so it forms a valid metric name.
func WithMetricsRegistry[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(p *Pool[T]) {
		p.metricsRegistry = registry
		p.metricsPrefix = strings.NewReplacer("-", "_", ".", "_").Replace(prefix)
	}
}

// NewPool creates a new generic worker pool with optional configuration
func NewPool[T any](workers, queueSize int, processor func(context.Context, T) error, opts ...Option[T]) *Pool[T] {
	if workers <= 0 {
		workers = 10
	}
	if queueSize <= 0 {
		queueSize = 1000
	}
	if processor == nil {
		panic(ErrNilProcessor)
	}

	pool := &Pool[T]{
		workers:   workers,
		queueSize: queueSize,
		processor: processor,
		workChan:  make(chan T, queueSize),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(pool)
	}

	if pool.metricsRegistry != nil && pool.metricsPrefix != "" {
		pool.initializeMetrics()
	}

	return pool
}

func (p *Pool[T]) initializeMetrics() {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace, Subsystem: p.metricsPrefix, Name: name, Help: help,
		})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace, Subsystem: p.metricsPrefix, Name: name, Help: help,
		})
	}

	m := &Metrics{
		queueDepth:  gauge("queue_depth", "Current worker pool queue depth"),
		utilization: gauge("utilization", "Worker pool queue utilization (0-1)"),
		submitted:   counter("submitted_total", "Total work items accepted"),
		processed:   counter("processed_total", "Total work items processed"),
		failed:      counter("failed_total", "Total work items whose processor returned an error"),
		waited:      counter("submit_waits_total", "Submissions that blocked on a full queue"),
		processingTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: p.metricsPrefix,
			Name:      "processing_duration_seconds",
			Help:      "Time spent processing work items",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"status"}),
	}

	r, owner := p.metricsRegistry, p.metricsPrefix
	registrations := []struct {
		name     string
		register func() error
	}{
		{"queue_depth", func() error { return r.RegisterGauge(owner, "queue_depth", m.queueDepth) }},
		{"utilization", func() error { return r.RegisterGauge(owner, "utilization", m.utilization) }},
		{"submitted_total", func() error { return r.RegisterCounter(owner, "submitted_total", m.submitted) }},
		{"processed_total", func() error { return r.RegisterCounter(owner, "processed_total", m.processed) }},
		{"failed_total", func() error { return r.RegisterCounter(owner, "failed_total", m.failed) }},
		{"submit_waits_total", func() error { return r.RegisterCounter(owner, "submit_waits_total", m.waited) }},
		{"processing_duration_seconds", func() error {
			return r.RegisterHistogramVec(owner, "processing_duration_seconds", m.processingTime)
		}},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			// Another pool owns this prefix; keep counting internally only.
			p.unregisterMetrics()
			return
		}
		p.registered = append(p.registered, reg.name)
	}
	p.metrics = m
}

func (p *Pool[T]) unregisterMetrics() {
	for _, name := range p.registered {
		p.metricsRegistry.Unregister(p.metricsPrefix, name)
	}
	p.registered = nil
}

// Submit queues work, blocking while the queue is full. It returns ctx.Err()
// if ctx ends first and ErrPoolStopped if the pool stops or its Start context ends.
func (p *Pool[T]) Submit(ctx context.Context, work T) error {
	p.lifecycleMu.RLock()
	defer p.lifecycleMu.RUnlock()

	if !p.started {
		return ErrPoolNotStarted
	}
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.workChan <- work:
		p.accepted()
		return nil
	default:
	}

	atomic.AddInt64(&p.waited, 1)
	if p.metrics != nil {
		p.metrics.waited.Inc()
	}

	select {
	case p.workChan <- work:
		p.accepted()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrPoolStopped
	}
}

func (p *Pool[T]) accepted() {
	atomic.AddInt64(&p.submitted, 1)
	if p.metrics != nil {
		p.metrics.submitted.Inc()
		p.metrics.queueDepth.Set(float64(len(p.workChan)))
	}
}

// Start starts the workers. Cancelling ctx stops them without draining.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	context.AfterFunc(ctx, func() { close(p.done) })

	if p.metrics != nil {
		go p.metricsUpdater(ctx)
	}

	p.started = true
	return nil
}

// Stop closes the queue and waits up to timeout for workers to finish every
// accepted item. It is safe to call more than once.
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	if !p.started || p.stopped {
		p.lifecycleMu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.workChan)
	p.lifecycleMu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		p.unregisterMetrics()
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// Drain removes and returns the items still queued after Stop, typically
// after ErrStopTimeout. It returns nil while the pool is running. Items taken
// by a worker are not returned.
func (p *Pool[T]) Drain() []T {
	p.lifecycleMu.RLock()
	stopped := p.stopped
	p.lifecycleMu.RUnlock()
	if !stopped {
		return nil
	}

	var items []T
	for work := range p.workChan {
		items = append(items, work)
	}
	return items
}

// Stats returns current pool statistics
func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workers,
		QueueSize:  p.queueSize,
		QueueDepth: len(p.workChan),
		Submitted:  atomic.LoadInt64(&p.submitted),
		Processed:  atomic.LoadInt64(&p.processed),
		Failed:     atomic.LoadInt64(&p.failed),
		Waited:     atomic.LoadInt64(&p.waited),
	}
}

// PoolStats represents worker pool statistics
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
	Waited     int64 `json:"waited"`
}

func (p *Pool[T]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case work, ok := <-p.workChan:
			if !ok {
				return
			}
			p.process(ctx, work)
		}
	}
}

func (p *Pool[T]) process(ctx context.Context, work T) {
	start := time.Now()
	err := p.processor(ctx, work)
	duration := time.Since(start)

	atomic.AddInt64(&p.processed, 1)
	if err != nil {
		atomic.AddInt64(&p.failed, 1)
	}

	if p.metrics != nil {
		p.metrics.processed.Inc()
		status := "success"
		if err != nil {
			p.metrics.failed.Inc()
			status = "error"
		}
		p.metrics.processingTime.WithLabelValues(status).Observe(duration.Seconds())
	}
}

func (p *Pool[T]) metricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth := float64(len(p.workChan))
			p.metrics.queueDepth.Set(depth)
			p.metrics.utilization.Set(depth / float64(p.queueSize))
		}
	}
}
