package v0

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/appstore-dev/appstore/internal/registry/config"
	"github.com/appstore-dev/appstore/internal/registry/recordstore"
	"github.com/appstore-dev/appstore/pkg/types"
)

func operationSuffix(pathPrefix string) string {
	return strings.ReplaceAll(pathPrefix, "/", "-")
}

// PingBody represents the ping response body
type PingBody struct {
	Pong bool `json:"pong" example:"true" doc:"Ping response"`
}

// RegisterPingEndpoint registers the ping endpoint with a custom path prefix
func RegisterPingEndpoint(api huma.API, pathPrefix string) {
	huma.Register(api, huma.Operation{
		OperationID: "ping" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/ping",
		Summary:     "Ping",
		Description: "Simple ping endpoint",
		Tags:        []string{"ping"},
	}, func(_ context.Context, _ *struct{}) (*types.Response[PingBody], error) {
		return &types.Response[PingBody]{Body: PingBody{Pong: true}}, nil
	})
}

// VersionBody represents the version information
type VersionBody struct {
	Version   string `json:"version" example:"1.0.0" doc:"Version of the server"`
	GitCommit string `json:"gitCommit" example:"abc123" doc:"Git commit hash"`
	BuildTime string `json:"buildTime" example:"2024-01-01T00:00:00Z" doc:"Build timestamp"`
}

// RegisterVersionEndpoint registers the version endpoint
func RegisterVersionEndpoint(api huma.API, pathPrefix string, versionInfo *VersionBody) {
	huma.Register(api, huma.Operation{
		OperationID: "get-version" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/version",
		Summary:     "Get server version information",
		Description: "Returns version, git commit and build time of the running server",
		Tags:        []string{"version"},
	}, func(_ context.Context, _ *struct{}) (*types.Response[VersionBody], error) {
		body := VersionBody{Version: "dev", GitCommit: "unknown", BuildTime: "unknown"}
		if versionInfo != nil {
			body = *versionInfo
		}
		return &types.Response[VersionBody]{Body: body}, nil
	})
}

// HealthBody describes the running server's record source and probe settings.
type HealthBody struct {
	Status           string `json:"status" example:"ok" doc:"ok, or degraded when the record store is unreachable" enum:"ok,degraded"`
	RecordSource     string `json:"recordSource" example:"https://laconicd.laconic.com/api" doc:"Registry GraphQL endpoint or local records file"`
	RecordStore      string `json:"recordStore" example:"reachable" doc:"Record store reachability" enum:"reachable,unreachable,unchecked"`
	RecordStoreError string `json:"recordStoreError,omitempty" doc:"Why the record store is unreachable"`
	ProbeMode        string `json:"probeMode" example:"direct" doc:"How deployment URLs are probed" enum:"direct,forward"`
	ProbeConcurrency int    `json:"probeConcurrency" example:"10" doc:"Maximum probes in flight per health-check pass"`
	ProbeTimeout     string `json:"probeTimeout" example:"8s" doc:"Per-probe timeout"`
}

// RegisterHealthEndpoint registers the server health endpoint. store may be
// nil, in which case record store reachability is reported as unchecked.
func RegisterHealthEndpoint(api huma.API, pathPrefix string, cfg *config.Config, store recordstore.Pinger) {
	huma.Register(api, huma.Operation{
		OperationID: "get-health" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/health",
		Summary:     "Get server health",
		Description: "Returns the server status, record store reachability and probe settings",
		Tags:        []string{"health"},
	}, func(ctx context.Context, _ *struct{}) (*types.Response[HealthBody], error) {
		body := HealthBody{Status: "ok", RecordStore: "unchecked"}
		if store != nil {
			body.RecordStore = "reachable"
			if err := store.Ping(ctx); err != nil {
				body.Status = "degraded"
				body.RecordStore = "unreachable"
				body.RecordStoreError = err.Error()
			}
		}
		if cfg != nil {
			body.RecordSource = cfg.RegistryEndpoint
			if cfg.RecordsFile != "" {
				body.RecordSource = "file://" + cfg.RecordsFile
			}
			body.ProbeMode = cfg.Probe.Mode
			body.ProbeConcurrency = cfg.Probe.Concurrency
			body.ProbeTimeout = cfg.Probe.Timeout.String()
		}
		return &types.Response[HealthBody]{Body: body}, nil
	})
}
