package health

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/appstore-dev/appstore/internal/registry/logging"
	"github.com/appstore-dev/appstore/internal/registry/telemetry"
	"github.com/appstore-dev/appstore/pkg/models"
)

const (
	// DefaultMaxConcurrency bounds the probes in flight during one pass.
	DefaultMaxConcurrency = 10
	// DefaultTimeout bounds a single probe.
	DefaultTimeout = 8 * time.Second
)

// Report maps every distinct probed URL to its result.
type Report map[string]Result

// Statuses returns the URL to status view of the report.
func (r Report) Statuses() map[string]models.HealthStatus {
	out := make(map[string]models.HealthStatus, len(r))
	for u, res := range r {
		out[u] = res.Status
	}
	return out
}

// Results returns the results ordered by URL.
func (r Report) Results() []Result {
	out := make([]Result, 0, len(r))
	for _, res := range r {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Engine runs health-check passes: one probe per distinct URL, bounded
// concurrency, a timeout per probe, and a result only once every probe has
// resolved.
type Engine struct {
	checker        Checker
	maxConcurrency int
	timeout        time.Duration
	metrics        *telemetry.Metrics
	logger         *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxConcurrency bounds the number of probes in flight. Values below 1 use the default.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

// WithTimeout sets the per-probe timeout. Values below 1ns use the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMetrics records probe metrics on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger overrides the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine probing through checker.
func NewEngine(checker Checker, opts ...Option) *Engine {
	e := &Engine{
		checker:        checker,
		maxConcurrency: DefaultMaxConcurrency,
		timeout:        DefaultTimeout,
		logger:         logging.HealthEventLog,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxConcurrency returns the probe concurrency bound.
func (e *Engine) MaxConcurrency() int { return e.maxConcurrency }

// Timeout returns the per-probe timeout.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// Targets returns the distinct non-empty URLs in first-seen order.
func Targets(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Check probes every distinct non-empty URL once and returns after all probes
// have resolved. Probe failures are reported as unhealthy results, never as
// errors. The only error is ctx.Err() when the caller abandoned the pass, in
// which case no report is returned.
func (e *Engine) Check(ctx context.Context, urls []string) (Report, error) {
	targets := Targets(urls)
	if len(targets) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Report{}, nil
	}
	defer e.metrics.PassStarted(ctx)()

	start := time.Now()
	results := make([]Result, len(targets))

	var g errgroup.Group
	g.SetLimit(e.maxConcurrency)
	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = e.probe(ctx, target)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logging.L(ctx, e.logger).Debug("health-check pass abandoned",
			zap.Int("targets", len(targets)),
			zap.Error(err))
		return nil, err
	}

	report := make(Report, len(targets))
	healthy := 0
	for _, res := range results {
		report[res.URL] = res
		if res.Status == models.HealthHealthy {
			healthy++
		}
	}
	logging.L(ctx, e.logger).Info("health-check pass completed",
		zap.Int("targets", len(targets)),
		zap.Int("healthy", healthy),
		zap.Duration("duration", time.Since(start)))
	return report, nil
}

// ProbeAll returns the status of every distinct non-empty URL.
func (e *Engine) ProbeAll(ctx context.Context, urls []string) (map[string]models.HealthStatus, error) {
	report, err := e.Check(ctx, urls)
	if err != nil {
		return nil, err
	}
	return report.Statuses(), nil
}

// probe runs one check under the per-probe timeout. A checker that ignores
// its context is abandoned when the timeout fires.
func (e *Engine) probe(ctx context.Context, target string) Result {
	pctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Result{URL: target, Status: models.HealthUnhealthy, Error: fmt.Sprintf("probe panicked: %v", r)}
			}
		}()
		done <- e.checker.Check(pctx, target)
	}()

	var res Result
	select {
	case res = <-done:
	case <-pctx.Done():
		res = Result{URL: target, Status: models.HealthUnhealthy, Error: "timeout"}
	}

	res.URL = target
	if res.Status != models.HealthHealthy {
		res.Status = models.HealthUnhealthy
	}
	res.Latency = time.Since(start)

	e.metrics.RecordProbe(ctx, string(res.Status), res.Latency)
	if res.Status == models.HealthUnhealthy && ctx.Err() == nil {
		logging.L(ctx, e.logger).Warn("deployment unreachable",
			zap.String("url", target),
			zap.Int("status_code", res.StatusCode),
			zap.String("error", res.Error),
			zap.Duration("latency", res.Latency))
	}
	return res
}
