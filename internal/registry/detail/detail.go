// Package detail assembles the application detail view: it fetches an
// application's deployments, runs one health-check pass over their URLs and
// reveals every row's status at once.
package detail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/appstore-dev/appstore/internal/registry/health"
	"github.com/appstore-dev/appstore/internal/registry/logging"
	"github.com/appstore-dev/appstore/internal/registry/service"
	"github.com/appstore-dev/appstore/pkg/models"
)

// ErrCancelled is returned by Wait when the cycle was abandoned before its
// health-check pass resolved.
var ErrCancelled = errors.New("detail load cancelled")

// Prober runs one health-check pass.
type Prober interface {
	Check(ctx context.Context, urls []string) (health.Report, error)
}

// Loader starts detail load cycles.
type Loader struct {
	registry service.RegistryService
	prober   Prober
	logger   *zap.Logger
}

// NewLoader creates a loader reading from registry and probing through prober.
func NewLoader(registry service.RegistryService, prober Prober) *Loader {
	return &Loader{
		registry: registry,
		prober:   prober,
		logger:   logging.NewLogger("detail"),
	}
}

// LoadByID resolves the application and starts a load cycle for it.
func (l *Loader) LoadByID(ctx context.Context, id string) (*Cycle, error) {
	app, err := l.registry.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, app)
}

// Load fetches the application's deployments and starts exactly one
// health-check pass over their URLs. A fetch failure is returned before any
// probe is issued. The pass runs until it resolves, ctx is done, or the
// cycle is cancelled.
func (l *Loader) Load(ctx context.Context, app *models.Application) (*Cycle, error) {
	if app == nil {
		return nil, fmt.Errorf("application is required")
	}
	deployments, err := l.registry.FetchDeployments(ctx, app.ID)
	if err != nil {
		logging.L(ctx, l.logger).Warn("failed to fetch deployments",
			zap.String("application_id", app.ID),
			zap.Error(err))
		return nil, err
	}

	passCtx, cancel := context.WithCancel(ctx)
	c := &Cycle{
		app:         *app,
		deployments: deployments,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	urls := make([]string, 0, len(deployments))
	for _, d := range deployments {
		if d.HasTarget() {
			urls = append(urls, *d.URL)
		}
	}

	go func() {
		defer cancel()
		report, err := l.prober.Check(passCtx, urls)
		c.finish(report, err)
	}()
	return c, nil
}

// Cycle is one load of the detail view. Its status map is written once, when
// the whole pass has resolved, and never afterwards.
type Cycle struct {
	app         models.Application
	deployments []*models.Deployment
	cancel      context.CancelFunc

	once   sync.Once
	done   chan struct{}
	mu         sync.RWMutex
	report     health.Report
	err        error
	finishedAt time.Time
}

func (c *Cycle) finish(report health.Report, err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.finishedAt = time.Now()
		if err != nil {
			c.err = fmt.Errorf("%w: %w", ErrCancelled, err)
		} else {
			c.report = report
		}
		c.mu.Unlock()
		close(c.done)
	})
}

// Application returns the application this cycle loads.
func (c *Cycle) Application() models.Application { return c.app }

// Deployments returns the fetched deployments.
func (c *Cycle) Deployments() []*models.Deployment { return c.deployments }

// Done is closed once the pass has resolved or been abandoned.
func (c *Cycle) Done() <-chan struct{} { return c.done }

// FinishedAt reports when the pass resolved or was abandoned. ok is false
// while it is in flight.
func (c *Cycle) FinishedAt() (t time.Time, ok bool) {
	select {
	case <-c.done:
	default:
		return time.Time{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.finishedAt, true
}

// Cancel abandons the pass. A cancelled cycle never publishes statuses.
func (c *Cycle) Cancel() {
	c.cancel()
	c.finish(nil, context.Canceled)
}

// Pending returns the view shown while the pass is in flight: every
// deployment, including those without a URL, reports unknown.
func (c *Cycle) Pending() *models.ApplicationDetail {
	rows := make([]models.DeploymentHealth, 0, len(c.deployments))
	for _, d := range c.deployments {
		rows = append(rows, models.DeploymentHealth{Deployment: *d, Status: models.HealthUnknown})
	}
	return &models.ApplicationDetail{Application: c.app, Deployments: rows}
}

// Result returns the resolved view without blocking. ok is false while the
// pass is in flight or after it was cancelled.
func (c *Cycle) Result() (detail *models.ApplicationDetail, ok bool) {
	select {
	case <-c.done:
	default:
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, false
	}
	return Resolve(c.app, c.deployments, c.report), true
}

// Wait blocks until the pass resolves and returns the full view. It returns
// an error when the cycle was cancelled or ctx is done first.
func (c *Cycle) Wait(ctx context.Context) (*models.ApplicationDetail, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return Resolve(c.app, c.deployments, c.report), nil
}

// Resolve pairs each deployment with its status from report. Deployments
// without a URL report no_target.
func Resolve(app models.Application, deployments []*models.Deployment, report health.Report) *models.ApplicationDetail {
	rows := make([]models.DeploymentHealth, 0, len(deployments))
	for _, d := range deployments {
		status := models.HealthNoTarget
		if d.HasTarget() {
			status = models.HealthUnhealthy
			if res, ok := report[*d.URL]; ok {
				status = res.Status
			}
		}
		rows = append(rows, models.DeploymentHealth{Deployment: *d, Status: status})
	}

	probes := make([]models.ProbeResult, 0, len(report))
	for _, res := range report.Results() {
		probes = append(probes, models.ProbeResult{
			URL:        res.URL,
			Status:     res.Status,
			StatusCode: res.StatusCode,
			LatencyMS:  res.Latency.Milliseconds(),
			Error:      res.Error,
		})
	}
	return &models.ApplicationDetail{
		Application: app,
		Deployments: rows,
		Probes:      probes,
		Resolved:    true,
	}
}
