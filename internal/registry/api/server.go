// Package api assembles the HTTP server: the huma API under /v0, Prometheus
// metrics, and the MCP endpoint.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	v0 "github.com/appstore-dev/appstore/internal/registry/api/handlers/v0"
	"github.com/appstore-dev/appstore/internal/registry/api/router"
	"github.com/appstore-dev/appstore/internal/registry/config"
	"github.com/appstore-dev/appstore/internal/registry/logging"
	"github.com/appstore-dev/appstore/internal/registry/service"
	"github.com/appstore-dev/appstore/internal/registry/telemetry"
)

// Server is the App Store HTTP server.
type Server struct {
	config  *config.Config
	humaAPI huma.API
	mux     *http.ServeMux
	server  *http.Server
	logger  *zap.Logger
}

// NewServer wires the routes onto a fresh mux. mcpServer may be nil, in which
// case /mcp is not served.
func NewServer(
	cfg *config.Config,
	registry service.RegistryService,
	metrics *telemetry.Metrics,
	versionInfo *v0.VersionBody,
	mcpServer *mcp.Server,
	opts *router.RouteOptions,
) *Server {
	mux := http.NewServeMux()

	apiVersion := "dev"
	if versionInfo != nil {
		apiVersion = versionInfo.Version
	}
	humaConfig := huma.DefaultConfig("App Store API", apiVersion)
	humaConfig.Info.Description = "Browse applications published to a Laconic registry and check the reachability of their deployments."
	api := humago.New(mux, humaConfig)
	api.UseMiddleware(metrics.Middleware)

	router.RegisterRoutes(api, cfg, registry, versionInfo, opts)

	mux.Handle("/metrics", metrics.Handler())
	if mcpServer != nil {
		mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return mcpServer
		}, nil))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/docs", http.StatusFound)
	})

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{logging.RequestIDHeader},
	}).Handler(logging.Middleware(mux))

	return &Server{
		config:  cfg,
		humaAPI: api,
		mux:     mux,
		logger:  logging.NewLogger("api"),
		server: &http.Server{
			Addr:              cfg.ServerAddress,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// HumaAPI returns the Huma API instance.
func (s *Server) HumaAPI() huma.API { return s.humaAPI }

// Mux returns the HTTP ServeMux.
func (s *Server) Mux() *http.ServeMux { return s.mux }

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start begins listening for incoming HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", zap.String("address", s.config.ServerAddress))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
