// Package providers holds the plumbing shared by every per-source API
// client: the retry/backoff policy, the circuit breaker, the coalescing
// region-code cache and remote-work inference. Provider-specific protocol
// handling lives in the subpackages.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// HTTPError is a non-2xx response from a provider endpoint.
type HTTPError struct {
	StatusCode int
	Status     string
	// RetryAfter is the parsed Retry-After header value, when present.
	RetryAfter time.Duration
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("provider returned %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("provider returned %s", e.Status)
}

// Retryable reports whether the response class is worth retrying:
// 5xx and 429 are, all other 4xx are not.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsRetryable classifies an error per the provider retry matrix:
// connection timeouts and transport failures are retryable, as are 5xx and
// 429 responses. Other 4xx responses and decode errors are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// Remaining transport-level failures (connection refused, reset) are
	// transient from the client's point of view; the circuit breaker caps
	// the damage when a provider is fully down.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsAuthError reports whether err is a 401 or 403 response, which triggers
// token invalidation and a single re-authenticated retry.
func IsAuthError(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden
}

// IsRateLimit reports whether err is a 429 response.
func IsRateLimit(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusTooManyRequests
}

// parseRetryAfter interprets a Retry-After header as either delay seconds
// or an HTTP date. Returns 0 when absent or unparseable.
func parseRetryAfter(header string, now time.Time) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
