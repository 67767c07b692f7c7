package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := SetRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "", GetRequestID(context.Background()))
}

func TestRedactFields(t *testing.T) {
	fields := RedactFields(zap.String("api_key", "abc"), zap.String("url", "https://a.test"))
	require.Len(t, fields, 2)
	assert.Equal(t, redactedValue, fields[0].String)
	assert.Equal(t, "https://a.test", fields[1].String)
}

func TestParseEventLoggingConfig(t *testing.T) {
	parsed := ParseEventLoggingConfig(&EventLoggingConfig{
		SuccessSampleRate: 0.5,
		ExcludePaths:      " /metrics , ,/v0/ping",
		RedactPatterns:    "",
	})
	assert.True(t, parsed.ExcludePaths["/metrics"])
	assert.True(t, parsed.ExcludePaths["/v0/ping"])
	assert.Len(t, parsed.ExcludePaths, 2)
	assert.Nil(t, parsed.RedactRegex)
}

func TestHashRequestIDToFloat_Deterministic(t *testing.T) {
	a := HashRequestIDToFloat("abc")
	assert.Equal(t, a, HashRequestIDToFloat("abc"))
	assert.GreaterOrEqual(t, a, 0.0)
	assert.LessOrEqual(t, a, 1.0)
}

func TestEventLevelFromStatusCode(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, EventLevelFromStatusCode(200))
	assert.Equal(t, zapcore.WarnLevel, EventLevelFromStatusCode(404))
	assert.Equal(t, zapcore.ErrorLevel, EventLevelFromStatusCode(502))
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v0/applications", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusTeapot, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v0/applications", nil)
	req.Header.Set(RequestIDHeader, "given")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "given", seen)
}

func TestSetLevel(t *testing.T) {
	require.NoError(t, SetLevel("debug"))
	assert.Equal(t, zapcore.DebugLevel, level.Level())
	require.NoError(t, SetLevel("info"))
	assert.Error(t, SetLevel("loud"))
}
