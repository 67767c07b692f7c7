package v0

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/appstore-dev/appstore/internal/registry/health"
	"github.com/appstore-dev/appstore/pkg/models"
)

// ProbeInput represents the probe target
type ProbeInput struct {
	URL string `query:"url" required:"true" json:"url" doc:"Absolute http or https URL to GET" example:"https://example.com"`
}

// ProbeBody reports what the origin answered.
type ProbeBody struct {
	URL        string              `json:"url" doc:"Probed URL"`
	StatusCode int                 `json:"statusCode" doc:"Origin status code, 0 when unreachable"`
	Status     models.HealthStatus `json:"status" doc:"Classified reachability" enum:"healthy,unhealthy"`
	LatencyMS  int64               `json:"latencyMs" doc:"Round trip time in milliseconds"`
	Error      string              `json:"error,omitempty" doc:"Failure detail"`
}

// ProbeResponse carries the origin status code as the response status.
type ProbeResponse struct {
	Status int
	Body   ProbeBody
}

// relayStatus picks the response status for an origin status code. Codes
// that forbid a response body are reported as 200.
func relayStatus(code int) int {
	switch {
	case code == 0:
		return http.StatusBadGateway
	case code < http.StatusOK, code == http.StatusNoContent, code == http.StatusNotModified:
		return http.StatusOK
	default:
		return code
	}
}

// RegisterProbeEndpoint registers the forwarding endpoint used by forward-mode
// health checks. The response status mirrors the origin's. Unless
// allowPrivate is set, targets resolving to loopback, private or link-local
// addresses are refused with 403.
func RegisterProbeEndpoint(api huma.API, pathPrefix string, checker health.Checker, timeout time.Duration, allowPrivate bool) {
	if timeout <= 0 {
		timeout = health.DefaultTimeout
	}
	huma.Register(api, huma.Operation{
		OperationID: "probe-url" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/probe",
		Summary:     "Probe a URL",
		Description: "Issues a GET to the given URL and answers with the origin's status code. " +
			"Loopback, private and link-local targets are refused unless APPSTORE_PROBE_ALLOW_PRIVATE is set.",
		Tags:        []string{"health-checks"},
	}, func(ctx context.Context, input *ProbeInput) (*ProbeResponse, error) {
		if err := health.ValidateTarget(input.URL); err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if !allowPrivate {
			if err := health.CheckPublicTarget(pctx, input.URL); err != nil {
				if errors.Is(err, health.ErrPrivateTarget) {
					return nil, huma.Error403Forbidden(err.Error())
				}
				return nil, huma.Error502BadGateway(err.Error())
			}
		}

		start := time.Now()
		res := checker.Check(pctx, input.URL)
		if res.Latency == 0 {
			res.Latency = time.Since(start)
		}
		return &ProbeResponse{
			Status: relayStatus(res.StatusCode),
			Body: ProbeBody{
				URL:        input.URL,
				StatusCode: res.StatusCode,
				Status:     res.Status,
				LatencyMS:  res.Latency.Milliseconds(),
				Error:      res.Error,
			},
		}, nil
	})
}
