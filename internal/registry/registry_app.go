// Package registry wires the App Store server from configuration.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/appstore-dev/appstore/internal/mcp/registryserver"
	"github.com/appstore-dev/appstore/internal/registry/api"
	v0 "github.com/appstore-dev/appstore/internal/registry/api/handlers/v0"
	"github.com/appstore-dev/appstore/internal/registry/api/router"
	"github.com/appstore-dev/appstore/internal/registry/config"
	"github.com/appstore-dev/appstore/internal/registry/detail"
	"github.com/appstore-dev/appstore/internal/registry/health"
	"github.com/appstore-dev/appstore/internal/registry/logging"
	"github.com/appstore-dev/appstore/internal/registry/recordstore"
	"github.com/appstore-dev/appstore/internal/registry/service"
	"github.com/appstore-dev/appstore/internal/registry/telemetry"
	"github.com/appstore-dev/appstore/internal/version"
)

const shutdownTimeout = 10 * time.Second

// App holds the wired services of one App Store server.
type App struct {
	Config   *config.Config
	Store    recordstore.Store
	Registry service.RegistryService
	Checker  health.Checker
	Engine   *health.Engine
	Loader   *detail.Loader
	Metrics  *telemetry.Metrics

	fileStore       *recordstore.FileStore
	healthChecks    *v0.HealthCheckStore
	shutdownMetrics func(context.Context) error
	logger          *zap.Logger
}

// NewStore opens the record source named by cfg: the records file when set,
// the GraphQL endpoint otherwise.
func NewStore(cfg *config.Config) (recordstore.Store, error) {
	if cfg.RecordsFile != "" {
		return recordstore.NewFileStore(cfg.RecordsFile, logging.NewLogger("recordstore"))
	}
	return recordstore.NewGraphQLStore(cfg.RegistryEndpoint, cfg.QueryTimeout), nil
}

// NewChecker returns the probe checker selected by cfg.Probe.Mode.
func NewChecker(cfg *config.Config) health.Checker {
	if cfg.Probe.Mode == config.ProbeModeForward {
		return health.NewForwardingChecker(cfg.Probe.ForwardURL)
	}
	return health.NewHTTPChecker()
}

// NewEngine builds a probe engine from cfg.Probe.
func NewEngine(cfg *config.Config, checker health.Checker, metrics *telemetry.Metrics) *health.Engine {
	return health.NewEngine(checker,
		health.WithMaxConcurrency(cfg.Probe.Concurrency),
		health.WithTimeout(cfg.Probe.Timeout),
		health.WithMetrics(metrics),
	)
}

// New wires every service. withMetrics starts the OpenTelemetry pipeline; CLI
// commands that run in-process leave it off.
func New(cfg *config.Config, withMetrics bool) (*App, error) {
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logging.Configure(&cfg.EventLogging)

	app := &App{
		Config:       cfg,
		healthChecks: v0.NewHealthCheckStore(),
		logger:       logging.NewLogger("app"),
	}
	if withMetrics {
		shutdown, metrics, err := telemetry.InitMetrics(version.Version)
		if err != nil {
			return nil, err
		}
		app.Metrics = metrics
		app.shutdownMetrics = shutdown
	}

	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	if fs, ok := store.(*recordstore.FileStore); ok {
		app.fileStore = fs
	}
	app.Store = recordstore.Instrument(store, app.Metrics)
	app.Registry = service.NewRegistryService(app.Store)
	app.Checker = NewChecker(cfg)
	app.Engine = NewEngine(cfg, app.Checker, app.Metrics)
	app.Loader = detail.NewLoader(app.Registry, app.Engine)
	return app, nil
}

// VersionInfo returns the build metadata served by /v0/version.
func VersionInfo() *v0.VersionBody {
	return &v0.VersionBody{
		Version:   version.Version,
		GitCommit: version.GitCommit,
		BuildTime: version.BuildDate,
	}
}

// MCPServer returns the MCP server over the app's services.
func (a *App) MCPServer() *mcp.Server {
	return registryserver.NewServer(a.Registry, a.Loader)
}

// Server builds the HTTP server.
func (a *App) Server() *api.Server {
	var mcpServer *mcp.Server
	if a.Config.EnableMCP {
		mcpServer = a.MCPServer()
	}
	var pinger recordstore.Pinger
	if p, ok := a.Store.(recordstore.Pinger); ok {
		pinger = p
	}
	return api.NewServer(a.Config, a.Registry, a.Metrics, VersionInfo(), mcpServer, &router.RouteOptions{
		Loader:       a.Loader,
		HealthChecks: a.healthChecks,
		RecordStore:  pinger,
		Checker:      health.NewHTTPChecker(),
	})
}

// Run serves HTTP until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a.fileStore != nil {
		if err := a.fileStore.Watch(ctx); err != nil {
			a.logger.Warn("records file will not be reloaded on change", zap.Error(err))
		}
	}
	go a.healthChecks.RunCleanup(ctx, time.Minute, a.Config.HealthJobTTL)

	srv := a.Server()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return errors.Join(err, a.Close(context.Background()))
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	return errors.Join(err, <-errCh, a.Close(shutdownCtx))
}

// Close releases the metrics pipeline.
func (a *App) Close(ctx context.Context) error {
	if a.shutdownMetrics == nil {
		return nil
	}
	return a.shutdownMetrics(ctx)
}
