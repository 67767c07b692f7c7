// Package router contains API routing logic
package router

import (
	"github.com/danielgtaylor/huma/v2"

	v0 "github.com/appstore-dev/appstore/internal/registry/api/handlers/v0"
	"github.com/appstore-dev/appstore/internal/registry/config"
	"github.com/appstore-dev/appstore/internal/registry/detail"
	"github.com/appstore-dev/appstore/internal/registry/health"
	"github.com/appstore-dev/appstore/internal/registry/recordstore"
	"github.com/appstore-dev/appstore/internal/registry/service"
)

// RouteOptions contains optional services for route registration.
type RouteOptions struct {
	Loader       *detail.Loader
	HealthChecks *v0.HealthCheckStore

	// RecordStore is pinged by the health endpoint.
	RecordStore recordstore.Pinger

	// Checker backs the probe endpoint, which is only registered when
	// cfg.Probe.EndpointEnabled is set.
	Checker health.Checker

	// Optional callback for integration-owned route registration.
	ExtraRoutes func(api huma.API, pathPrefix string)
}

// RegisterRoutes registers all API routes under /v0.
func RegisterRoutes(
	api huma.API,
	cfg *config.Config,
	registry service.RegistryService,
	versionInfo *v0.VersionBody,
	opts *RouteOptions,
) {
	pathPrefix := "/v0"
	if opts == nil {
		opts = &RouteOptions{}
	}
	if opts.HealthChecks == nil {
		opts.HealthChecks = v0.NewHealthCheckStore()
	}

	v0.RegisterHealthEndpoint(api, pathPrefix, cfg, opts.RecordStore)
	v0.RegisterPingEndpoint(api, pathPrefix)
	v0.RegisterVersionEndpoint(api, pathPrefix, versionInfo)
	v0.RegisterApplicationsEndpoints(api, pathPrefix, registry, opts.Loader)
	v0.RegisterHealthCheckEndpoints(api, pathPrefix, registry, opts.Loader, opts.HealthChecks)

	if cfg != nil && cfg.Probe.EndpointEnabled {
		checker := opts.Checker
		if checker == nil {
			checker = health.NewHTTPChecker()
		}
		v0.RegisterProbeEndpoint(api, pathPrefix, checker, cfg.Probe.Timeout, cfg.Probe.AllowPrivate)
	}
	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(api, pathPrefix)
	}
}
