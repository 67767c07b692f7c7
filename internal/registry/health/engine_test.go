package health

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/appstore-dev/appstore/pkg/models"
)

// newTargetServer serves /ok (200), /redirect (302 to /ok), /missing (404),
// /broken (500) and /hang, which blocks until the client goes away.
func newTargetServer(t *testing.T) (*httptest.Server, *sync.Map) {
	t.Helper()
	hits := &sync.Map{}
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := hits.LoadOrStore(r.URL.Path, new(atomic.Int32))
		n.(*atomic.Int32).Add(1)
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/redirect":
			http.Redirect(w, r, "/ok", http.StatusFound)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/hang":
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return srv, hits
}

func hitCount(hits *sync.Map, path string) int32 {
	n, ok := hits.Load(path)
	if !ok {
		return 0
	}
	return n.(*atomic.Int32).Load()
}

func newTestEngine(checker Checker, opts ...Option) *Engine {
	return NewEngine(checker, append([]Option{WithLogger(zap.NewNop())}, opts...)...)
}

func TestEngine_Classification(t *testing.T) {
	srv, _ := newTargetServer(t)
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL + "/gone"
	closed.Close()

	engine := newTestEngine(NewHTTPChecker(), WithTimeout(2*time.Second))
	statuses, err := engine.ProbeAll(context.Background(), []string{
		srv.URL + "/ok",
		srv.URL + "/redirect",
		srv.URL + "/missing",
		srv.URL + "/broken",
		closedURL,
		"not a url",
		"ftp://files.test/x",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]models.HealthStatus{
		srv.URL + "/ok":       models.HealthHealthy,
		srv.URL + "/redirect": models.HealthHealthy,
		srv.URL + "/missing":  models.HealthUnhealthy,
		srv.URL + "/broken":   models.HealthUnhealthy,
		closedURL:             models.HealthUnhealthy,
		"not a url":           models.HealthUnhealthy,
		"ftp://files.test/x":  models.HealthUnhealthy,
	}, statuses)
}

func TestEngine_DedupesAndSkipsEmpty(t *testing.T) {
	srv, hits := newTargetServer(t)
	engine := newTestEngine(NewHTTPChecker())

	report, err := engine.Check(context.Background(), []string{
		srv.URL + "/ok", "", srv.URL + "/ok", srv.URL + "/missing", "", srv.URL + "/ok",
	})
	require.NoError(t, err)

	assert.Len(t, report, 2)
	assert.NotContains(t, report, "")
	assert.Equal(t, int32(1), hitCount(hits, "/ok"))
	assert.Equal(t, int32(1), hitCount(hits, "/missing"))
	assert.Equal(t, http.StatusNotFound, report[srv.URL+"/missing"].StatusCode)
}

func TestEngine_OrderIndependent(t *testing.T) {
	srv, _ := newTargetServer(t)
	engine := newTestEngine(NewHTTPChecker())

	urls := []string{srv.URL + "/ok", srv.URL + "/broken", srv.URL + "/missing", srv.URL + "/redirect"}
	first, err := engine.ProbeAll(context.Background(), urls)
	require.NoError(t, err)

	reversed := []string{urls[3], urls[2], urls[1], urls[0], urls[1]}
	second, err := engine.ProbeAll(context.Background(), reversed)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngine_HangingTargetIsBoundedByTimeout(t *testing.T) {
	srv, _ := newTargetServer(t)
	timeout := 300 * time.Millisecond
	engine := newTestEngine(NewHTTPChecker(), WithTimeout(timeout))

	start := time.Now()
	report, err := engine.Check(context.Background(), []string{srv.URL + "/hang", srv.URL + "/ok"})
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Equal(t, models.HealthUnhealthy, report[srv.URL+"/hang"].Status)
	assert.Equal(t, models.HealthHealthy, report[srv.URL+"/ok"].Status)
	assert.Less(t, elapsed, timeout+time.Second)
}

func TestEngine_CheckerIgnoringContextIsAbandoned(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	checker := CheckerFunc(func(_ context.Context, target string) Result {
		if target == "https://stuck.test" {
			<-block
		}
		return Result{URL: target, Status: models.HealthHealthy, StatusCode: 200}
	})
	engine := newTestEngine(checker, WithTimeout(100*time.Millisecond))

	start := time.Now()
	statuses, err := engine.ProbeAll(context.Background(), []string{"https://stuck.test", "https://fine.test"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, models.HealthUnhealthy, statuses["https://stuck.test"])
	assert.Equal(t, models.HealthHealthy, statuses["https://fine.test"])
}

func TestEngine_PanicIsUnhealthy(t *testing.T) {
	checker := CheckerFunc(func(_ context.Context, target string) Result {
		if target == "https://panic.test" {
			panic("boom")
		}
		return Result{Status: models.HealthHealthy}
	})
	engine := newTestEngine(checker)

	report, err := engine.Check(context.Background(), []string{"https://panic.test", "https://fine.test"})
	require.NoError(t, err)
	assert.Equal(t, models.HealthUnhealthy, report["https://panic.test"].Status)
	assert.Contains(t, report["https://panic.test"].Error, "boom")
	assert.Equal(t, models.HealthHealthy, report["https://fine.test"].Status)
	assert.Equal(t, "https://fine.test", report["https://fine.test"].URL)
}

func TestEngine_NonHealthyCheckerStatusNormalised(t *testing.T) {
	engine := newTestEngine(CheckerFunc(func(context.Context, string) Result {
		return Result{Status: models.HealthUnknown}
	}))
	statuses, err := engine.ProbeAll(context.Background(), []string{"https://a.test"})
	require.NoError(t, err)
	assert.Equal(t, models.HealthUnhealthy, statuses["https://a.test"])
}

func TestEngine_RespectsConcurrencyBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	checker := CheckerFunc(func(_ context.Context, target string) Result {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return Result{Status: models.HealthHealthy}
	})
	engine := newTestEngine(checker, WithMaxConcurrency(3))

	urls := make([]string, 0, 25)
	for i := range 25 {
		urls = append(urls, fmt.Sprintf("https://host-%d.test", i))
	}
	report, err := engine.Check(context.Background(), urls)
	require.NoError(t, err)
	assert.Len(t, report, 25)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Positive(t, peak.Load())
}

func TestEngine_Defaults(t *testing.T) {
	engine := NewEngine(NewHTTPChecker(), WithMaxConcurrency(0), WithTimeout(0))
	assert.Equal(t, 10, engine.MaxConcurrency())
	assert.Equal(t, 8*time.Second, engine.Timeout())
	assert.Equal(t, DefaultMaxConcurrency, engine.MaxConcurrency())
	assert.Equal(t, DefaultTimeout, engine.Timeout())
}

func TestEngine_CancelledPassReturnsNoReport(t *testing.T) {
	srv, _ := newTargetServer(t)
	engine := newTestEngine(NewHTTPChecker(), WithTimeout(5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	report, err := engine.Check(ctx, []string{srv.URL + "/hang", srv.URL + "/ok"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEngine_EmptyInput(t *testing.T) {
	engine := newTestEngine(NewHTTPChecker())
	report, err := engine.Check(context.Background(), []string{"", ""})
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestForwardingChecker(t *testing.T) {
	origin, _ := newTargetServer(t)
	var forwarded atomic.Int32
	forwarder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded.Add(1)
		target, err := url.QueryUnescape(r.URL.RawQuery)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp, err := http.Get(target)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		w.WriteHeader(resp.StatusCode)
	}))
	t.Cleanup(forwarder.Close)

	engine := newTestEngine(NewForwardingChecker(forwarder.URL + "/?"))
	statuses, err := engine.ProbeAll(context.Background(), []string{
		origin.URL + "/ok?x=1&y=2",
		origin.URL + "/broken",
		"http://127.0.0.1:1/unreachable",
	})
	require.NoError(t, err)
	assert.Equal(t, models.HealthHealthy, statuses[origin.URL+"/ok?x=1&y=2"])
	assert.Equal(t, models.HealthUnhealthy, statuses[origin.URL+"/broken"])
	assert.Equal(t, models.HealthUnhealthy, statuses["http://127.0.0.1:1/unreachable"])
	assert.Equal(t, int32(3), forwarded.Load())
}

func TestForwardedURL(t *testing.T) {
	assert.Equal(t, "https://corsproxy.io/?https%3A%2F%2Fa.test%2Fx%3Fq%3D1",
		ForwardedURL(DefaultForwardURL, "https://a.test/x?q=1"))
	assert.Equal(t, DefaultForwardURL, NewForwardingChecker("").ForwardURL)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, models.HealthHealthy, Classify(200))
	assert.Equal(t, models.HealthHealthy, Classify(304))
	assert.Equal(t, models.HealthHealthy, Classify(399))
	assert.Equal(t, models.HealthUnhealthy, Classify(400))
	assert.Equal(t, models.HealthUnhealthy, Classify(503))
	assert.Equal(t, models.HealthUnhealthy, Classify(0))
}
