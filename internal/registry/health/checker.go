// Package health probes deployment URLs and classifies their reachability.
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appstore-dev/appstore/pkg/models"
)

// DefaultForwardURL is the public cross-origin forwarding endpoint. The
// escaped target URL is appended to it.
const DefaultForwardURL = "https://corsproxy.io/?"

// maxDrainBytes bounds how much of a response body is read before closing.
const maxDrainBytes = 64 << 10

// Result is the outcome of probing one URL.
type Result struct {
	URL        string
	Status     models.HealthStatus
	StatusCode int
	Latency    time.Duration
	Error      string
}

// Checker performs one reachability check. Implementations must honour ctx
// and report every failure through Result rather than panicking.
type Checker interface {
	Check(ctx context.Context, target string) Result
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, target string) Result

func (f CheckerFunc) Check(ctx context.Context, target string) Result { return f(ctx, target) }

// Classify maps an HTTP status code to a health status.
func Classify(statusCode int) models.HealthStatus {
	if statusCode > 0 && statusCode < http.StatusBadRequest {
		return models.HealthHealthy
	}
	return models.HealthUnhealthy
}

// HTTPChecker issues a direct GET to the target.
type HTTPChecker struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPChecker returns a checker using its own HTTP client.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{Client: &http.Client{}, UserAgent: "appstore-health/1"}
}

// Check implements Checker.
func (c *HTTPChecker) Check(ctx context.Context, target string) Result {
	return c.get(ctx, target, target)
}

func (c *HTTPChecker) get(ctx context.Context, target, requestURL string) (res Result) {
	res = Result{URL: target, Status: models.HealthUnhealthy}
	start := time.Now()
	defer func() { res.Latency = time.Since(start) }()

	if err := ValidateTarget(target); err != nil {
		res.Error = err.Error()
		return res
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			res.Error = "timeout"
		} else {
			res.Error = err.Error()
		}
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	res.StatusCode = resp.StatusCode
	res.Status = Classify(resp.StatusCode)
	if res.Status != models.HealthHealthy {
		res.Error = resp.Status
	}
	return res
}

// ForwardingChecker routes each GET through a cross-origin forwarding
// endpoint that relays the origin's status code.
type ForwardingChecker struct {
	HTTPChecker
	ForwardURL string
}

// NewForwardingChecker returns a checker sending requests through forwardURL.
func NewForwardingChecker(forwardURL string) *ForwardingChecker {
	if forwardURL == "" {
		forwardURL = DefaultForwardURL
	}
	return &ForwardingChecker{HTTPChecker: *NewHTTPChecker(), ForwardURL: forwardURL}
}

// Check implements Checker.
func (c *ForwardingChecker) Check(ctx context.Context, target string) Result {
	return c.get(ctx, target, ForwardedURL(c.ForwardURL, target))
}

// ForwardedURL builds the forwarding request URL for target.
func ForwardedURL(forwardURL, target string) string {
	return forwardURL + url.QueryEscape(target)
}

// ValidateTarget checks that target is an absolute http or https URL.
func ValidateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", target)
	}
	return nil
}

// ErrPrivateTarget is returned by CheckPublicTarget for loopback, private,
// link-local and unspecified addresses.
var ErrPrivateTarget = errors.New("target resolves to a non-public address")

// CheckPublicTarget validates target and resolves its host, rejecting it when
// any address is not publicly routable.
func CheckPublicTarget(ctx context.Context, target string) error {
	if err := ValidateTarget(target); err != nil {
		return err
	}
	u, _ := url.Parse(target)
	host := u.Hostname()

	var addrs []net.IP
	if ip := net.ParseIP(host); ip != nil {
		addrs = []net.IP{ip}
	} else {
		resolved, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", host, err)
		}
		for _, a := range resolved {
			addrs = append(addrs, a.IP)
		}
	}
	for _, ip := range addrs {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
			ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
			return fmt.Errorf("%w: %s", ErrPrivateTarget, ip)
		}
	}
	return nil
}
