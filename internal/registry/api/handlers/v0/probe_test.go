package v0_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	v0 "github.com/appstore-dev/appstore/internal/registry/api/handlers/v0"
	"github.com/appstore-dev/appstore/internal/registry/config"
	"github.com/appstore-dev/appstore/internal/registry/health"
	"github.com/appstore-dev/appstore/internal/registry/recordstore"
	"github.com/appstore-dev/appstore/pkg/models"
)

func newOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(origin.Close)
	return origin
}

func newProbeServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newProbeServerWith(t, true)
}

func newProbeServerWith(t *testing.T, allowPrivate bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("Test API", "1.0.0"))
	v0.RegisterProbeEndpoint(api, "/v0", health.NewHTTPChecker(), 2*time.Second, allowPrivate)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe_RelaysOriginStatus(t *testing.T) {
	origin := newOrigin(t)
	srv := newProbeServer(t)

	tests := []struct {
		path       string
		wantCode   int
		wantOrigin int
		wantStatus models.HealthStatus
	}{
		{"/ok", http.StatusOK, http.StatusOK, models.HealthHealthy},
		{"/empty", http.StatusOK, http.StatusNoContent, models.HealthHealthy},
		{"/missing", http.StatusNotFound, http.StatusNotFound, models.HealthUnhealthy},
		{"/broken", http.StatusServiceUnavailable, http.StatusServiceUnavailable, models.HealthUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/v0/probe?url=" + url.QueryEscape(origin.URL+tt.path))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			var body v0.ProbeBody
			require.NoError(t, jsonDecode(resp, &body))
			assert.Equal(t, tt.wantOrigin, body.StatusCode)
			assert.Equal(t, tt.wantStatus, body.Status)
		})
	}
}

func TestProbe_UnreachableAndInvalid(t *testing.T) {
	srv := newProbeServer(t)

	resp, err := http.Get(srv.URL + "/v0/probe?url=" + url.QueryEscape("http://127.0.0.1:1/"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v0/probe?url=" + url.QueryEscape("ftp://files.test/"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v0/probe")
	require.NoError(t, err)
	resp.Body.Close()
	assert.GreaterOrEqual(t, resp.StatusCode, http.StatusBadRequest)
	assert.Less(t, resp.StatusCode, http.StatusInternalServerError)
}

func TestForwardingEndpoint_RefusesPrivateTargets(t *testing.T) {
	origin := newOrigin(t)
	srv := newProbeServerWith(t, false)

	for _, target := range []string{
		origin.URL + "/ok",
		"http://localhost:1/",
		"http://10.0.0.1/",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/",
		"http://0.0.0.0/",
	} {
		t.Run(target, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/v0/probe?url=" + url.QueryEscape(target))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestCheckPublicTarget(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, health.CheckPublicTarget(ctx, "https://93.184.215.14/"))
	assert.ErrorIs(t, health.CheckPublicTarget(ctx, "http://192.168.1.10:8080/"), health.ErrPrivateTarget)
	assert.ErrorIs(t, health.CheckPublicTarget(ctx, "http://127.0.0.1/"), health.ErrPrivateTarget)
	err := health.CheckPublicTarget(ctx, "ftp://files.test/")
	require.Error(t, err)
	assert.NotErrorIs(t, err, health.ErrPrivateTarget)
}

func TestProbe_ServesForwardingChecker(t *testing.T) {
	origin := newOrigin(t)
	srv := newProbeServer(t)

	engine := health.NewEngine(health.NewForwardingChecker(srv.URL+"/v0/probe?url="), health.WithLogger(zap.NewNop()))
	statuses, err := engine.ProbeAll(context.Background(), []string{
		origin.URL + "/ok",
		origin.URL + "/missing",
		"http://127.0.0.1:1/",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]models.HealthStatus{
		origin.URL + "/ok":      models.HealthHealthy,
		origin.URL + "/missing": models.HealthUnhealthy,
		"http://127.0.0.1:1/":   models.HealthUnhealthy,
	}, statuses)
}

func TestMetaEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("Test API", "1.0.0"))
	cfg := &config.Config{
		RegistryEndpoint: "https://registry.test/api",
		Probe:            config.ProbeConfig{Mode: config.ProbeModeForward, Concurrency: 4, Timeout: 3 * time.Second},
	}
	v0.RegisterPingEndpoint(api, "/v0")
	v0.RegisterVersionEndpoint(api, "/v0", &v0.VersionBody{Version: "1.2.3", GitCommit: "abc", BuildTime: "now"})
	v0.RegisterHealthEndpoint(api, "/v0", cfg, pingerFunc(func(context.Context) error { return nil }))

	ping := decode[v0.PingBody](t, get(t, mux, "/v0/ping"))
	assert.True(t, ping.Pong)

	ver := decode[v0.VersionBody](t, get(t, mux, "/v0/version"))
	assert.Equal(t, "1.2.3", ver.Version)

	h := decode[v0.HealthBody](t, get(t, mux, "/v0/health"))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "https://registry.test/api", h.RecordSource)
	assert.Equal(t, "forward", h.ProbeMode)
	assert.Equal(t, 4, h.ProbeConcurrency)
	assert.Equal(t, "3s", h.ProbeTimeout)
	assert.Equal(t, "reachable", h.RecordStore)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthEndpoint_RecordStoreUnreachable(t *testing.T) {
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("Test API", "1.0.0"))
	v0.RegisterHealthEndpoint(api, "/v0", &config.Config{}, pingerFunc(func(context.Context) error {
		return &recordstore.QueryError{Op: "getStatus", Err: errors.New("connection refused")}
	}))

	w := get(t, mux, "/v0/health")
	require.Equal(t, http.StatusOK, w.Code)
	h := decode[v0.HealthBody](t, w)
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "unreachable", h.RecordStore)
	assert.Contains(t, h.RecordStoreError, "connection refused")
}
