// Package client is the HTTP client for the App Store API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/appstore-dev/appstore/pkg/models"
)

const (
	// DefaultBaseURL is the API base of a locally running server.
	DefaultBaseURL = "http://localhost:12121/v0"

	BaseURLEnv = "APPSTORE_API_BASE_URL"
	TokenEnv   = "APPSTORE_API_TOKEN"

	defaultTimeout = 60 * time.Second
	pingAttempts   = 5
	pingBackoff    = 200 * time.Millisecond
)

// ErrNotFound matches API errors with status 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, msg)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the App Store API.
type Client struct {
	BaseURL    string
	token      string
	httpClient *http.Client
}

// VersionInfo is the server build metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildTime string `json:"buildTime"`
}

// HealthInfo is the server health report.
type HealthInfo struct {
	Status           string `json:"status"`
	RecordSource     string `json:"recordSource"`
	RecordStore      string `json:"recordStore"`
	RecordStoreError string `json:"recordStoreError,omitempty"`
	ProbeMode        string `json:"probeMode"`
	ProbeConcurrency int    `json:"probeConcurrency"`
	ProbeTimeout     string `json:"probeTimeout"`
}

// ListOptions filters and orders the application list.
type ListOptions struct {
	Sort   string
	Order  string
	Search string
}

// NewClient creates a client for the API at baseURL. token, when set, is sent
// as a bearer token.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientFromEnv creates a client from APPSTORE_API_BASE_URL and
// APPSTORE_API_TOKEN and checks that the server answers.
func NewClientFromEnv() (*Client, error) {
	c := NewClient(os.Getenv(BaseURLEnv), os.Getenv(TokenEnv))
	if err := pingWithRetry(c); err != nil {
		return nil, fmt.Errorf("app store API at %s is not reachable: %w", c.BaseURL, err)
	}
	return c, nil
}

// Ping checks that the server is up.
func (c *Client) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/ping", nil, nil)
}

func pingWithRetry(c *Client) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = c.Ping(); err == nil {
			return nil
		}
		if attempt < pingAttempts {
			time.Sleep(time.Duration(attempt) * pingBackoff)
		}
	}
	return err
}

// GetVersion returns the server build metadata.
func (c *Client) GetVersion(ctx context.Context) (*VersionInfo, error) {
	var out VersionInfo
	if err := c.do(ctx, http.MethodGet, "/version", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHealth returns the server health report.
func (c *Client) GetHealth(ctx context.Context) (*HealthInfo, error) {
	var out HealthInfo
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListApplications returns the application list.
func (c *Client) ListApplications(ctx context.Context, opts ListOptions) (*models.ApplicationList, error) {
	q := url.Values{}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.Order != "" {
		q.Set("order", opts.Order)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	var out models.ApplicationList
	if err := c.do(ctx, http.MethodGet, "/applications", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetApplication returns the resolved detail view. It blocks until the
// server's health-check pass has resolved.
func (c *Client) GetApplication(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	var out models.ApplicationDetail
	if err := c.do(ctx, http.MethodGet, "/applications/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDeployments lists an application's deployments without probing them.
func (c *Client) GetDeployments(ctx context.Context, id string) (*models.DeploymentList, error) {
	var out models.DeploymentList
	if err := c.do(ctx, http.MethodGet, "/applications/"+url.PathEscape(id)+"/deployments", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartHealthCheck starts an asynchronous health check of an application.
func (c *Client) StartHealthCheck(ctx context.Context, id string) (*models.HealthCheckJob, error) {
	var out models.HealthCheckJob
	if err := c.do(ctx, http.MethodPost, "/applications/"+url.PathEscape(id)+"/health-checks", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHealthCheck returns the current state of a health check.
func (c *Client) GetHealthCheck(ctx context.Context, jobID string) (*models.HealthCheckJob, error) {
	var out models.HealthCheckJob
	if err := c.do(ctx, http.MethodGet, "/health-checks/"+url.PathEscape(jobID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelHealthCheck abandons a pending health check.
func (c *Client) CancelHealthCheck(ctx context.Context, jobID string) (*models.HealthCheckJob, error) {
	var out models.HealthCheckJob
	if err := c.do(ctx, http.MethodDelete, "/health-checks/"+url.PathEscape(jobID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitHealthCheck polls a health check every interval until it is no longer pending.
func (c *Client) WaitHealthCheck(ctx context.Context, jobID string, interval time.Duration) (*models.HealthCheckJob, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := c.GetHealthCheck(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status != models.HealthCheckPending {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
