package v0_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	v0 "github.com/appstore-dev/appstore/internal/registry/api/handlers/v0"
	"github.com/appstore-dev/appstore/internal/registry/detail"
	"github.com/appstore-dev/appstore/internal/registry/health"
	"github.com/appstore-dev/appstore/internal/registry/recordstore"
	"github.com/appstore-dev/appstore/pkg/models"
)

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthCheck_PendingThenCompleted(t *testing.T) {
	checker := newCountingChecker("https://down.test")
	checker.gate = make(chan struct{})
	mux, _ := newAPI(t, sampleRegistry(), checker)

	w := do(t, mux, http.MethodPost, "/v0/applications/app-a/health-checks")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	job := decode[models.HealthCheckJob](t, w)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, "app-a", job.ApplicationID)
	assert.Equal(t, models.HealthCheckPending, job.Status)
	require.NotNil(t, job.Detail)
	assert.False(t, job.Detail.Resolved)
	require.Len(t, job.Detail.Deployments, 4)
	for _, row := range job.Detail.Deployments {
		assert.Equal(t, models.HealthUnknown, row.Status, row.ID)
	}

	w = get(t, mux, "/v0/health-checks/"+job.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.HealthCheckPending, decode[models.HealthCheckJob](t, w).Status)

	close(checker.gate)

	var done models.HealthCheckJob
	require.Eventually(t, func() bool {
		done = decode[models.HealthCheckJob](t, get(t, mux, "/v0/health-checks/"+job.ID))
		return done.Status == models.HealthCheckCompleted
	}, 5*time.Second, 10*time.Millisecond)

	require.NotNil(t, done.Detail)
	assert.True(t, done.Detail.Resolved)
	assert.NotNil(t, done.FinishedAt)
	got := map[string]models.HealthStatus{}
	for _, row := range done.Detail.Deployments {
		got[row.ID] = row.Status
	}
	assert.Equal(t, models.HealthHealthy, got["d1"])
	assert.Equal(t, models.HealthHealthy, got["d2"])
	assert.Equal(t, models.HealthNoTarget, got["d3"])
	assert.Equal(t, models.HealthUnhealthy, got["d4"])
	assert.Equal(t, 1, checker.callsFor("https://shared.test"))
}

func TestHealthCheck_CancelDiscardsResults(t *testing.T) {
	checker := newCountingChecker()
	checker.gate = make(chan struct{})
	defer close(checker.gate)
	mux, _ := newAPI(t, sampleRegistry(), checker)

	job := decode[models.HealthCheckJob](t, do(t, mux, http.MethodPost, "/v0/applications/app-a/health-checks"))

	w := do(t, mux, http.MethodDelete, "/v0/health-checks/"+job.ID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cancelled := decode[models.HealthCheckJob](t, w)
	assert.Equal(t, models.HealthCheckCancelled, cancelled.Status)
	assert.Nil(t, cancelled.Detail)

	again := decode[models.HealthCheckJob](t, get(t, mux, "/v0/health-checks/"+job.ID))
	assert.Equal(t, models.HealthCheckCancelled, again.Status)
}

func TestHealthCheck_QueryFailureStartsNoJob(t *testing.T) {
	reg := sampleRegistry()
	reg.FetchDeploymentsFn = func(context.Context, string) ([]*models.Deployment, error) {
		return nil, &recordstore.QueryError{Op: "queryRecords", Err: errors.New("unavailable")}
	}
	checker := newCountingChecker()
	mux, store := newAPI(t, reg, checker)

	w := do(t, mux, http.MethodPost, "/v0/applications/app-a/health-checks")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, store.List())
	assert.Zero(t, checker.total())
}

func TestHealthCheck_NotFound(t *testing.T) {
	mux, _ := newAPI(t, sampleRegistry(), newCountingChecker())

	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodPost, "/v0/applications/missing/health-checks").Code)
	assert.Equal(t, http.StatusNotFound, get(t, mux, "/v0/health-checks/unknown").Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodDelete, "/v0/health-checks/unknown").Code)
}

func TestHealthCheckStore_CleanupOldJobs(t *testing.T) {
	checker := newCountingChecker()
	checker.gate = make(chan struct{})
	defer close(checker.gate)
	mux, store := newAPI(t, sampleRegistry(), checker)

	job := decode[models.HealthCheckJob](t, do(t, mux, http.MethodPost, "/v0/applications/app-a/health-checks"))
	require.Len(t, store.List(), 1)

	assert.Zero(t, store.CleanupOldJobs(time.Hour))
	assert.Equal(t, 1, store.CleanupOldJobs(0))
	_, ok := store.Get(job.ID)
	assert.False(t, ok)

	w := get(t, mux, "/v0/health-checks")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Jobs []models.HealthCheckJob `json:"jobs"`
	}](t, w)
	assert.Empty(t, list.Jobs)
}

func TestHealthCheckStore_FinishedAtIsResolutionTime(t *testing.T) {
	engine := health.NewEngine(newCountingChecker(), health.WithLogger(zap.NewNop()))
	loader := detail.NewLoader(sampleRegistry(), engine)
	store := v0.NewHealthCheckStore()

	cycle, err := loader.LoadByID(context.Background(), "app-a")
	require.NoError(t, err)
	job := store.Create("app-a", cycle)

	select {
	case <-cycle.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("health check did not resolve")
	}
	resolvedBy := time.Now()
	time.Sleep(30 * time.Millisecond)

	got, ok := store.Get(job.ID)
	require.True(t, ok)
	require.Equal(t, models.HealthCheckCompleted, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.False(t, got.FinishedAt.After(resolvedBy), "finishedAt %s is later than resolution %s", got.FinishedAt, resolvedBy)
}
