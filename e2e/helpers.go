//go:build e2e

package e2e

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/appstore-dev/appstore/internal/client"
	"github.com/appstore-dev/appstore/internal/registry"
	"github.com/appstore-dev/appstore/internal/registry/config"
	"github.com/appstore-dev/appstore/pkg/cli"
)

// Origin is a deployment endpoint that counts requests per path.
//
//	/up     200
//	/down   503
//	/hang   blocks until the request is abandoned
type Origin struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// NewOrigin starts an origin server for the test.
func NewOrigin(t *testing.T) *Origin {
	t.Helper()
	o := &Origin{hits: map[string]int{}}
	o.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		o.hits[r.URL.Path]++
		o.mu.Unlock()

		switch {
		case strings.HasPrefix(r.URL.Path, "/up"):
			w.WriteHeader(http.StatusOK)
		case strings.HasPrefix(r.URL.Path, "/hang"):
			<-r.Context().Done()
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(o.Close)
	return o
}

// Hits returns how often path was requested.
func (o *Origin) Hits(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[path]
}

// TotalHits returns the number of requests across all paths.
func (o *Origin) TotalHits() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	total := 0
	for _, n := range o.hits {
		total += n
	}
	return total
}

// Stack is an App Store server running in-process.
type Stack struct {
	URL    string
	Client *client.Client
}

// StartStack serves the registry configured by env. Records come from a
// records file when recordsYAML is non-empty.
func StartStack(t *testing.T, recordsYAML string, env map[string]string) *Stack {
	t.Helper()
	environ := map[string]string{"APPSTORE_LOG_LEVEL": "error"}
	for k, v := range env {
		environ[k] = v
	}
	if recordsYAML != "" {
		path := filepath.Join(t.TempDir(), "records.yaml")
		if err := os.WriteFile(path, []byte(recordsYAML), 0o600); err != nil {
			t.Fatalf("Failed to write records file: %v", err)
		}
		environ["APPSTORE_RECORDS_FILE"] = path
	}

	cfg, err := config.LoadFromEnvironment(environ)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	app, err := registry.New(cfg, false)
	if err != nil {
		t.Fatalf("Failed to initialize registry: %v", err)
	}
	srv := httptest.NewServer(app.Server().Handler())
	t.Cleanup(srv.Close)

	base := srv.URL + "/v0"
	t.Logf("App Store API: %s", base)
	return &Stack{URL: base, Client: client.NewClient(base, "")}
}

// AppstoreResult holds the output from running appstore.
type AppstoreResult struct {
	Stdout string
	Stderr string
	Err    error
}

// RunAppstore executes the appstore command tree in-process against stack.
func RunAppstore(t *testing.T, stack *Stack, args ...string) AppstoreResult {
	t.Helper()
	t.Setenv(client.BaseURLEnv, stack.URL)
	t.Logf("Running: appstore %s", strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	root := cli.Root()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()

	result := AppstoreResult{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
	if result.Stdout != "" {
		t.Logf("Stdout:\n%s", result.Stdout)
	}
	if result.Stderr != "" {
		t.Logf("Stderr:\n%s", result.Stderr)
	}
	return result
}

// RequireSuccess asserts the command succeeded.
func RequireSuccess(t *testing.T, result AppstoreResult) {
	t.Helper()
	if result.Err != nil {
		t.Fatalf("Expected success but got %v.\nStdout: %s\nStderr: %s",
			result.Err, result.Stdout, result.Stderr)
	}
}

// RequireFailure asserts the command failed.
func RequireFailure(t *testing.T, result AppstoreResult) {
	t.Helper()
	if result.Err == nil {
		t.Fatalf("Expected failure but command succeeded.\nStdout: %s\nStderr: %s",
			result.Stdout, result.Stderr)
	}
}

// WaitFor polls cond until it holds or the timeout expires.
func WaitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Timed out after %v waiting for %s", timeout, what)
}

// DeploymentRecord renders one ApplicationDeploymentRecord for a records file.
// An empty url omits the url attribute.
func DeploymentRecord(id, appID, name, url string) string {
	rec := fmt.Sprintf(`  - id: %s
    attributes:
      - key: type
        value: {string: ApplicationDeploymentRecord}
      - key: application
        value: {string: %s}
      - key: name
        value: {string: %s}
`, id, appID, name)
	if url != "" {
		rec += fmt.Sprintf(`      - key: url
        value: {string: "%s"}
`, url)
	}
	return rec
}

// ApplicationRecord renders one ApplicationRecord for a records file.
func ApplicationRecord(id, name string) string {
	return fmt.Sprintf(`  - id: %s
    attributes:
      - key: type
        value: {string: ApplicationRecord}
      - key: name
        value: {string: %s}
`, id, name)
}
