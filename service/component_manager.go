package service

import (
	"cmp"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/propstream/component"
	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/metric"
	"github.com/c360/propstream/natsclient"
	"github.com/c360/propstream/types"
)

// ComponentManager handles lifecycle management of all configured components
type ComponentManager struct {
	registry        *component.Registry
	configs         types.ComponentConfigs
	natsClient      *natsclient.Client
	metricsRegistry *metric.MetricsRegistry
	logger          *slog.Logger
	platform        types.PlatformMeta

	components map[string]*component.ManagedComponent
	kinds      map[string]types.ComponentType
	startOrder []string

	mu          sync.RWMutex
	initMu      sync.Mutex
	initialized atomic.Bool
	startMu     sync.Mutex
	started     atomic.Bool
}

// NewComponentManager creates a manager for configs
func NewComponentManager(configs types.ComponentConfigs, deps Dependencies) (*ComponentManager, error) {
	if deps.ComponentRegistry == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "ComponentManager", "NewComponentManager",
			"component registry required")
	}
	if configs == nil {
		configs = types.ComponentConfigs{}
	}

	return &ComponentManager{
		registry:        deps.ComponentRegistry,
		configs:         configs,
		natsClient:      deps.NATSClient,
		metricsRegistry: deps.MetricsRegistry,
		logger:          deps.logger().With("service", "component-manager"),
		platform:        deps.Platform,
		components:      make(map[string]*component.ManagedComponent),
		kinds:           make(map[string]types.ComponentType),
	}, nil
}

// Initialize creates every enabled component and calls its Initialize. All
// components are attempted; the returned error joins every failure.
func (cm *ComponentManager) Initialize() error {
	cm.initMu.Lock()
	defer cm.initMu.Unlock()

	if cm.initialized.Load() {
		return nil
	}

	var errs []error
	for _, name := range cm.orderedNames() {
		cfg := cm.configs[name]
		if !cfg.Enabled {
			cm.logger.Debug("Skipping disabled component", "instance", name)
			continue
		}

		if err := cm.createComponent(name, cfg); err != nil {
			cm.logger.Error("Failed to create component from config",
				"instance", name, "factory", cfg.Name, "type", cfg.Type, "error", err)
			cm.recordError(name, err)
			errs = append(errs, fmt.Errorf("component '%s': %w", name, err))
			continue
		}

		cm.logger.Info("Component created from config",
			"instance", name, "factory", cfg.Name, "type", cfg.Type)
	}

	cm.initialized.Store(true)
	return stderrors.Join(errs...)
}

// orderedNames sorts instance names by start priority, then name
func (cm *ComponentManager) orderedNames() []string {
	names := make([]string, 0, len(cm.configs))
	for name := range cm.configs {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(cm.configs[a].Type.StartPriority(), cm.configs[b].Type.StartPriority()); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return names
}

func (cm *ComponentManager) createComponent(name string, cfg types.ComponentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	comp, err := cm.registry.CreateComponent(name, cfg, cm.buildComponentDependencies(name))
	if err != nil {
		return err
	}

	mc := &component.ManagedComponent{
		Name:      name,
		Component: comp,
		State:     component.StateCreated,
	}

	if lc, ok := component.AsLifecycleComponent(comp); ok {
		if err := lc.Initialize(); err != nil {
			mc.State = component.StateFailed
			mc.LastError = err
			cm.track(name, cfg.Type, mc)
			return errors.Wrap(err, "ComponentManager", "Initialize", "component initialize")
		}
	}
	mc.State = component.StateInitialized
	cm.track(name, cfg.Type, mc)
	return nil
}

func (cm *ComponentManager) track(name string, kind types.ComponentType, mc *component.ManagedComponent) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.components[name] = mc
	cm.kinds[name] = kind
	cm.metricsRegistry.CoreMetrics().RecordComponentStatus(name, int(mc.State))
}

func (cm *ComponentManager) buildComponentDependencies(name string) component.Dependencies {
	return component.Dependencies{
		NATSClient:      cm.natsClient,
		MetricsRegistry: cm.metricsRegistry,
		Logger:          cm.logger.With("instance", name),
		Platform:        cm.platform,
		Components:      cm.registry,
	}
}

// Start starts initialized components, storage before processors. Each
// component gets a child context of ctx that is cancelled when it stops.
func (cm *ComponentManager) Start(ctx context.Context) error {
	cm.startMu.Lock()
	defer cm.startMu.Unlock()

	if !cm.initialized.Load() {
		return errors.WrapFatal(errors.ErrNotStarted, "ComponentManager", "Start", "component manager not initialized")
	}
	if cm.started.Load() {
		return nil
	}

	cm.mu.RLock()
	names := make([]string, 0, len(cm.components))
	priority := make(map[string]int, len(cm.components))
	for name, mc := range cm.components {
		if mc.State == component.StateInitialized || mc.State == component.StateStopped {
			names = append(names, name)
			priority[name] = cm.kinds[name].StartPriority()
		}
	}
	cm.mu.RUnlock()

	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(priority[a], priority[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	cm.startOrder = cm.startOrder[:0]
	var errs []error
	for _, name := range names {
		if err := cm.startSingleComponent(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("component '%s': %w", name, err))
		}
	}

	cm.started.Store(true)

	if len(errs) > 0 {
		return errors.WrapFatal(stderrors.Join(errs...), "ComponentManager", "Start",
			fmt.Sprintf("start %d of %d components", len(errs), len(names)))
	}
	return nil
}

func (cm *ComponentManager) startSingleComponent(ctx context.Context, name string) error {
	cm.mu.RLock()
	mc := cm.components[name]
	cm.mu.RUnlock()

	lc, ok := component.AsLifecycleComponent(mc.Component)
	if !ok {
		cm.updateComponentState(name, component.StateStarted, nil)
		return nil
	}

	childCtx, cancel := context.WithCancel(ctx)
	cm.mu.Lock()
	mc.Context = childCtx
	mc.Cancel = cancel
	cm.mu.Unlock()

	cm.logger.Info("Starting component", "name", name, "type", mc.Component.Meta().Type)

	if err := lc.Start(childCtx); err != nil {
		cancel()
		cm.updateComponentState(name, component.StateFailed, err)
		cm.recordError(name, err)
		cm.logger.Error("Component failed to start",
			"name", name, "type", mc.Component.Meta().Type, "error", err)
		return err
	}

	cm.mu.Lock()
	mc.StartOrder = len(cm.startOrder)
	cm.startOrder = append(cm.startOrder, name)
	cm.mu.Unlock()

	cm.updateComponentState(name, component.StateStarted, nil)
	cm.logger.Info("Component started successfully", "name", name, "type", mc.Component.Meta().Type)
	return nil
}

// Stop stops started components in reverse start order. The timeout bounds
// the whole shutdown; each component receives what remains of it.
func (cm *ComponentManager) Stop(timeout time.Duration) error {
	cm.startMu.Lock()
	defer cm.startMu.Unlock()

	if !cm.started.Load() {
		return nil
	}

	deadline := time.Now().Add(timeout)

	cm.mu.RLock()
	stopOrder := slices.Clone(cm.startOrder)
	cm.mu.RUnlock()
	slices.Reverse(stopOrder)

	var errs []error
	for _, name := range stopOrder {
		if err := cm.stopSingleComponent(name, time.Until(deadline)); err != nil {
			errs = append(errs, err)
		}
	}

	cm.mu.Lock()
	cm.startOrder = nil
	cm.mu.Unlock()
	cm.started.Store(false)

	if len(errs) > 0 {
		return errors.WrapTransient(stderrors.Join(errs...), "ComponentManager", "Stop",
			fmt.Sprintf("stop %d components", len(errs)))
	}
	return nil
}

func (cm *ComponentManager) stopSingleComponent(name string, timeout time.Duration) error {
	cm.mu.RLock()
	mc, exists := cm.components[name]
	cm.mu.RUnlock()
	if !exists {
		return nil
	}

	defer cm.cancelComponentContext(mc)

	lc, ok := component.AsLifecycleComponent(mc.Component)
	if !ok {
		cm.updateComponentState(name, component.StateStopped, nil)
		return nil
	}

	if timeout <= 0 {
		timeout = time.Millisecond
	}
	if err := lc.Stop(timeout); err != nil {
		cm.updateComponentState(name, component.StateFailed, err)
		cm.recordError(name, err)
		cm.logger.Error("Component failed to stop", "name", name, "error", err)
		return fmt.Errorf("component '%s': %w", name, err)
	}

	cm.updateComponentState(name, component.StateStopped, nil)
	cm.logger.Info("Component stopped", "name", name)
	return nil
}

func (cm *ComponentManager) cancelComponentContext(mc *component.ManagedComponent) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if mc.Cancel != nil {
		mc.Cancel()
		mc.Cancel = nil
		mc.Context = nil
	}
}

// updateComponentState safely updates component state with proper locking
func (cm *ComponentManager) updateComponentState(name string, state component.State, err error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if mc, exists := cm.components[name]; exists {
		mc.State = state
		mc.LastError = err
		cm.metricsRegistry.CoreMetrics().RecordComponentStatus(name, int(state))
	}
}

func (cm *ComponentManager) recordError(name string, err error) {
	cm.metricsRegistry.CoreMetrics().RecordError(name, errors.Classify(err).String())
}

// Component retrieves a managed component by instance name
func (cm *ComponentManager) Component(name string) component.Discoverable {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if mc, ok := cm.components[name]; ok {
		return mc.Component
	}
	return nil
}

// GetManagedComponent returns a snapshot of a component's lifecycle tracking
func (cm *ComponentManager) GetManagedComponent(name string) (component.ManagedComponent, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	mc, ok := cm.components[name]
	if !ok {
		return component.ManagedComponent{}, false
	}
	return *mc, true
}

// StartOrder returns instance names in the order they were started
func (cm *ComponentManager) StartOrder() []string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return slices.Clone(cm.startOrder)
}

// GetComponentHealth returns current health status for all managed components
func (cm *ComponentManager) GetComponentHealth() map[string]component.HealthStatus {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	health := make(map[string]component.HealthStatus, len(cm.components))
	for name, mc := range cm.components {
		health[name] = mc.Component.Health()
	}
	return health
}

// IsStarted reports whether Start has run since the last Stop
func (cm *ComponentManager) IsStarted() bool {
	return cm.started.Load()
}
