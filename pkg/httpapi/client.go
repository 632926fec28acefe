// Package httpapi provides the request plumbing shared by the GitHub, Notion and Slack clients.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"
)

// Retry constants. Attempts come from configuration; these only shape the backoff.
const (
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 30 * time.Second
)

// errRetryable marks failures worth another attempt (429, 5xx, transport errors).
var errRetryable = errors.New("retryable")

// HTTPDoer provides an interface for making HTTP requests.
// This allows us to mock HTTP calls in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Requester sends JSON requests to one upstream API.
type Requester struct {
	Doer      HTTPDoer
	Limiter   *rate.Limiter       // optional client-side rate limit
	Authorize func(*http.Request) // sets credentials on every request
	Header    http.Header         // extra headers sent on every request
	Component string              // log attribute, e.g. "github"
	Attempts  uint                // total attempts per request; values below 1 mean 1
	Redact    bool                // log only the host (for URLs that embed secrets)
}

// NewHTTPClient returns an *http.Client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// DrainAndClose drains and closes an HTTP response body to prevent resource leaks.
func DrainAndClose(body io.ReadCloser) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		slog.Warn("Failed to drain response body", "error", err)
	}
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "error", err)
	}
}

// Do sends a request and returns the response for any status below 500 other than 429.
// Transport failures, 429 and 5xx responses are reported as types.ErrUpstreamUnavailable.
// The caller owns the returned body.
func (r *Requester) Do(ctx context.Context, method, apiURL string, body any) (*http.Response, error) {
	logURL := r.logURL(apiURL)
	slog.Debug("HTTP request", "component", r.Component, "method", method, "url", logURL)

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = b
	}

	var resp *http.Response
	err := r.withRetry(ctx, method+" "+logURL, func() error {
		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		for k, vs := range r.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if r.Authorize != nil {
			r.Authorize(req)
		}

		localResp, err := r.Doer.Do(req) //nolint:bodyclose // body is closed below or passed to caller
		if err != nil {
			return fmt.Errorf("%w: request failed: %w", errRetryable, err)
		}

		if localResp.StatusCode == http.StatusTooManyRequests {
			DrainAndClose(localResp.Body)
			slog.Warn("Rate limited", "component", r.Component, "method", method, "url", logURL, "status", localResp.StatusCode)
			return fmt.Errorf("%w: http %d: rate limited", errRetryable, localResp.StatusCode)
		}
		if localResp.StatusCode >= http.StatusInternalServerError {
			DrainAndClose(localResp.Body)
			slog.Warn("Server error", "component", r.Component, "method", method, "url", logURL, "status", localResp.StatusCode)
			return fmt.Errorf("%w: http %d: server error", errRetryable, localResp.StatusCode)
		}

		resp = localResp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, logURL, types.ErrUpstreamUnavailable, err)
	}

	slog.Debug("HTTP response", "component", r.Component, "method", method, "url", logURL, "status", resp.StatusCode)
	return resp, nil
}

// withRetry runs fn up to r.Attempts times using the codeGROOVE retry library.
func (r *Requester) withRetry(ctx context.Context, operation string, fn func() error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(initialRetryDelay/4),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retry attempt", "component", r.Component, "operation", operation, "attempt", n+1, "max_attempts", attempts, "error", err)
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errRetryable)
		}),
	)
}

func (r *Requester) logURL(apiURL string) string {
	if r.Redact {
		u, err := url.Parse(apiURL)
		if err != nil {
			return "[redacted]"
		}
		return u.Scheme + "://" + u.Host + "/[redacted]"
	}
	return SanitizeURL(apiURL)
}

// SanitizeURL drops query parameters and user info so e-mails and tokens never reach the logs.
func SanitizeURL(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "[unparseable url]"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// ReadError builds an error describing an unexpected status, including a bounded slice of the body.
func ReadError(resp *http.Response, what string) error {
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return fmt.Errorf("%s: %w: status %d (could not read body: %w)", what, types.ErrUpstreamUnavailable, resp.StatusCode, err)
	}
	return fmt.Errorf("%s: %w: status %d: %s", what, types.ErrUpstreamUnavailable, resp.StatusCode, bytes.TrimSpace(b))
}
