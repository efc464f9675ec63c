// Package main implements the entry point for the propstream application.
// propstream loads a properties file into an in-memory store, optionally
// replicates it into a NATS KV bucket, and enriches records flowing through
// NATS with the loaded properties.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/propstream/component"
	"github.com/c360/propstream/componentregistry"
	"github.com/c360/propstream/config"
	"github.com/c360/propstream/health"
	"github.com/c360/propstream/metric"
	"github.com/c360/propstream/natsclient"
	"github.com/c360/propstream/pkg/tlsutil"
	"github.com/c360/propstream/service"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "propstream"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "components", len(cfg.Components))
		return nil
	}

	ctx := context.Background()
	metricsRegistry := metric.NewMetricsRegistry()

	natsClient, err := createNATSClient(cfg, logger, metricsRegistry)
	if err != nil {
		return err
	}
	if err := connectToNATS(ctx, natsClient); err != nil {
		return err
	}
	defer func() {
		if err := natsClient.Close(context.Background()); err != nil {
			slog.Warn("Error closing NATS connection", "error", err)
		}
	}()

	manager, err := setupComponentManager(cfg, service.Dependencies{
		NATSClient:      natsClient,
		MetricsRegistry: metricsRegistry,
		Logger:          logger,
		Platform:        cfg.PlatformMeta(),
	})
	if err != nil {
		return err
	}

	metricsServer, err := startMetricsServer(cfg, metricsRegistry, newHealthChecker(manager, natsClient))
	if err != nil {
		return err
	}
	if metricsServer != nil {
		defer stopMetricsServer(metricsServer)
	}

	return runWithSignalHandling(ctx, manager, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting propstream",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads and validates configuration
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	cfg, err := config.NewLoader().LoadFile(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("Platform identity configured",
		"org", cfg.GetOrg(),
		"platform", cfg.GetPlatform(),
		"environment", cfg.Platform.Environment)

	return cfg, nil
}

// createNATSClient builds the client from config. PROPSTREAM_NATS_URLS has
// already been folded into cfg by the loader.
func createNATSClient(
	cfg *config.Config,
	logger *slog.Logger,
	registry *metric.MetricsRegistry,
) (*natsclient.Client, error) {
	natsURL := "nats://localhost:4222"
	if len(cfg.NATS.URLs) > 0 {
		natsURL = cfg.NATS.URLs[0]
	}

	opts := []natsclient.ClientOption{
		natsclient.WithLogger(logger),
		natsclient.WithClientName(appName),
		natsclient.WithMetrics(registry.CoreMetrics()),
	}
	if cfg.NATS.MaxReconnects != 0 {
		opts = append(opts, natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects))
	}
	if cfg.NATS.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait))
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}

	tlsConfig, err := tlsutil.LoadClientTLSConfig(cfg.NATS.TLS)
	if err != nil {
		return nil, fmt.Errorf("load NATS TLS config: %w", err)
	}
	opts = append(opts, natsclient.WithTLSConfig(tlsConfig))

	client, err := natsclient.NewClient(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}
	return client, nil
}

// connectToNATS establishes NATS connection and waits for it to be ready
func connectToNATS(ctx context.Context, natsClient *natsclient.Client) error {
	slog.Info("Connecting to NATS", "url", natsClient.URL())
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := natsClient.WaitForConnection(connCtx); err != nil {
		return fmt.Errorf("NATS connection timeout: %w", err)
	}

	return nil
}

// newHealthChecker reports component health plus NATS connectivity on /health
func newHealthChecker(manager *service.ComponentManager, natsClient *natsclient.Client) *health.Checker {
	checker := health.NewChecker(appName)
	checker.AddComponents(manager.GetComponentHealth)
	checker.AddCheck("nats", func() health.Status {
		if natsClient.IsHealthy() {
			return health.NewHealthy("nats", "connected")
		}
		return health.NewUnhealthy("nats", "connection "+natsClient.Status().String())
	})
	return checker
}

func startMetricsServer(
	cfg *config.Config, registry *metric.MetricsRegistry, checker *health.Checker,
) (*metric.Server, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}

	server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	server.SetHealthHandler(checker)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("start metrics server: %w", err)
	}
	slog.Info("Metrics server listening", "address", server.Address())
	return server, nil
}

func stopMetricsServer(server *metric.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		slog.Warn("Error stopping metrics server", "error", err)
	}
}

// setupComponentManager registers factories and creates the configured components
func setupComponentManager(cfg *config.Config, deps service.Dependencies) (*service.ComponentManager, error) {
	componentRegistry := component.NewRegistry()
	if err := componentregistry.Register(componentRegistry); err != nil {
		return nil, fmt.Errorf("register components: %w", err)
	}
	slog.Info("Component factories registered", "types", componentRegistry.ListComponentTypes())

	deps.ComponentRegistry = componentRegistry
	manager, err := service.NewComponentManager(cfg.Components, deps)
	if err != nil {
		return nil, fmt.Errorf("create component manager: %w", err)
	}

	if err := manager.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize components: %w", err)
	}
	return manager, nil
}

// runWithSignalHandling starts components and blocks until SIGINT or SIGTERM
func runWithSignalHandling(ctx context.Context, manager *service.ComponentManager, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := manager.Start(signalCtx); err != nil {
		if stopErr := manager.Stop(shutdownTimeout); stopErr != nil {
			slog.Error("Error stopping components after failed start", "error", stopErr)
		}
		return fmt.Errorf("start components: %w", err)
	}
	slog.Info("propstream started", "components", manager.StartOrder())

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := manager.Stop(shutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("propstream shutdown complete")
	return nil
}
