package v0

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appstore-dev/appstore/internal/registry/detail"
	"github.com/appstore-dev/appstore/internal/registry/logging"
	"github.com/appstore-dev/appstore/internal/registry/service"
	"github.com/appstore-dev/appstore/pkg/models"
	"github.com/appstore-dev/appstore/pkg/types"
)

type healthCheckJob struct {
	id            string
	applicationID string
	createdAt     time.Time
	cycle         *detail.Cycle
}

func (j *healthCheckJob) snapshot() *models.HealthCheckJob {
	out := &models.HealthCheckJob{
		ID:            j.id,
		ApplicationID: j.applicationID,
		CreatedAt:     j.createdAt,
	}

	finished, ok := j.cycle.FinishedAt()
	if !ok {
		out.Status = models.HealthCheckPending
		out.Detail = j.cycle.Pending()
		return out
	}
	out.FinishedAt = &finished

	if view, ok := j.cycle.Result(); ok {
		out.Status = models.HealthCheckCompleted
		out.Detail = view
	} else {
		out.Status = models.HealthCheckCancelled
		out.Error = "health check was cancelled before it resolved"
	}
	return out
}

// HealthCheckStore tracks asynchronous health checks (in-memory implementation)
type HealthCheckStore struct {
	mu   sync.RWMutex
	jobs map[string]*healthCheckJob
}

// NewHealthCheckStore creates a new health check store
func NewHealthCheckStore() *HealthCheckStore {
	return &HealthCheckStore{jobs: make(map[string]*healthCheckJob)}
}

// Create tracks cycle under a new job ID.
func (s *HealthCheckStore) Create(applicationID string, cycle *detail.Cycle) *models.HealthCheckJob {
	job := &healthCheckJob{
		id:            uuid.New().String(),
		applicationID: applicationID,
		createdAt:     time.Now(),
		cycle:         cycle,
	}
	s.mu.Lock()
	s.jobs[job.id] = job
	s.mu.Unlock()
	return job.snapshot()
}

// Get returns the current state of a job.
func (s *HealthCheckStore) Get(id string) (*models.HealthCheckJob, bool) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return job.snapshot(), true
}

// Cancel abandons a pending job. Completed jobs are left untouched.
func (s *HealthCheckStore) Cancel(id string) (*models.HealthCheckJob, bool) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	job.cycle.Cancel()
	return job.snapshot(), true
}

// List returns all jobs, oldest first.
func (s *HealthCheckStore) List() []*models.HealthCheckJob {
	s.mu.RLock()
	jobs := make([]*healthCheckJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].createdAt.Before(jobs[j].createdAt) })
	out := make([]*models.HealthCheckJob, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.snapshot())
	}
	return out
}

// CleanupOldJobs removes jobs older than maxAge, cancelling any still pending,
// and returns how many were removed.
func (s *HealthCheckStore) CleanupOldJobs(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, job := range s.jobs {
		if job.createdAt.Before(cutoff) {
			job.cycle.Cancel()
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// RunCleanup calls CleanupOldJobs every interval until ctx is done.
func (s *HealthCheckStore) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.CleanupOldJobs(maxAge); n > 0 {
				logging.L(ctx, logging.HealthEventLog).Debug("expired health checks removed", zap.Int("count", n))
			}
		}
	}
}

// HealthCheckByIDInput represents the health check job path parameter
type HealthCheckByIDInput struct {
	JobID string `path:"jobId" json:"jobId" doc:"Health check job ID" example:"4f9c2b8e-3a51-4d7e-9b0c-2f6d8a1e5c37"`
}

// HealthCheckListResponse represents a list of health check jobs
type HealthCheckListResponse struct {
	Body struct {
		Jobs []*models.HealthCheckJob `json:"jobs" doc:"Tracked health checks, oldest first"`
	}
}

// RegisterHealthCheckEndpoints registers the asynchronous health check endpoints
func RegisterHealthCheckEndpoints(api huma.API, pathPrefix string, registry service.RegistryService, loader *detail.Loader, store *HealthCheckStore) {
	huma.Register(api, huma.Operation{
		OperationID:   "start-health-check" + operationSuffix(pathPrefix),
		Method:        http.MethodPost,
		Path:          pathPrefix + "/applications/{id}/health-checks",
		Summary:       "Start a health check",
		Description:   "Fetches the application's deployments and starts one health-check pass in the background. Poll the returned job for the result.",
		Tags:          []string{"health-checks"},
		DefaultStatus: http.StatusAccepted,
	}, func(ctx context.Context, input *ApplicationByIDInput) (*types.Response[models.HealthCheckJob], error) {
		app, err := registry.GetApplication(ctx, input.ID)
		if err != nil {
			return nil, registryError(err, "load application")
		}
		// The pass outlives this request; it ends on resolution, cancellation or cleanup.
		cycle, err := loader.Load(context.WithoutCancel(ctx), app)
		if err != nil {
			return nil, registryError(err, "load deployments")
		}
		job := store.Create(app.ID, cycle)
		return &types.Response[models.HealthCheckJob]{Body: *job}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-health-check" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/health-checks/{jobId}",
		Summary:     "Get a health check",
		Description: "Returns the pending view while the pass is running, then the resolved view",
		Tags:        []string{"health-checks"},
	}, func(_ context.Context, input *HealthCheckByIDInput) (*types.Response[models.HealthCheckJob], error) {
		job, ok := store.Get(input.JobID)
		if !ok {
			return nil, huma.Error404NotFound("Health check not found")
		}
		return &types.Response[models.HealthCheckJob]{Body: *job}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-health-check" + operationSuffix(pathPrefix),
		Method:      http.MethodDelete,
		Path:        pathPrefix + "/health-checks/{jobId}",
		Summary:     "Cancel a health check",
		Description: "Abandons a pending health check. Its results are discarded.",
		Tags:        []string{"health-checks"},
	}, func(_ context.Context, input *HealthCheckByIDInput) (*types.Response[models.HealthCheckJob], error) {
		job, ok := store.Cancel(input.JobID)
		if !ok {
			return nil, huma.Error404NotFound("Health check not found")
		}
		return &types.Response[models.HealthCheckJob]{Body: *job}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-health-checks" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/health-checks",
		Summary:     "List health checks",
		Description: "Lists every tracked health check",
		Tags:        []string{"health-checks"},
	}, func(_ context.Context, _ *struct{}) (*HealthCheckListResponse, error) {
		resp := &HealthCheckListResponse{}
		resp.Body.Jobs = store.List()
		return resp, nil
	})
}
