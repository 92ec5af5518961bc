package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMaxAttempts    = 3
	defaultBaseDelay      = 500 * time.Millisecond
	defaultRateLimitDelay = 5 * time.Second
	defaultMaxDelay       = 30 * time.Second

	// maxErrorBodyBytes bounds how much of an error response body is kept
	// for logging.
	maxErrorBodyBytes = 4096
)

// RetryPolicy describes the backoff behaviour of a provider client.
// Rate-limit responses back off from a larger base than generic transient
// errors, and a provider-supplied Retry-After value takes precedence over
// the computed exponential delay.
type RetryPolicy struct {
	MaxAttempts        int
	BaseDelay          time.Duration
	RateLimitBaseDelay time.Duration
	MaxDelay           time.Duration
}

// DefaultRetryPolicy returns the reference policy: 3 attempts, 500ms base,
// 5s rate-limit base, 30s ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:        defaultMaxAttempts,
		BaseDelay:          defaultBaseDelay,
		RateLimitBaseDelay: defaultRateLimitDelay,
		MaxDelay:           defaultMaxDelay,
	}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return defaultMaxAttempts
}

// Delay computes the backoff before the retry following failed attempt n
// (1-based): baseDelay * 2^(n-1), capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int, err error) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		if httpErr.RetryAfter > 0 {
			return httpErr.RetryAfter
		}
		base = p.RateLimitBaseDelay
		if base <= 0 {
			base = defaultRateLimitDelay
		}
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// Doer abstracts *http.Client for testability.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Executor issues provider requests with retry, backoff and circuit
// breaking. Requests are rebuilt per attempt via the build callback so the
// loop never reuses a consumed body.
type Executor struct {
	Client  Doer
	Policy  RetryPolicy
	Breaker *CircuitBreaker // optional
	Logger  *slog.Logger    // optional

	// Sleep is the wait hook between attempts; tests inject a no-op.
	Sleep func(ctx context.Context, d time.Duration) error
}

// GetJSON performs the request with the configured retry budget and decodes
// the successful response body into out. The retry loop is an explicit
// counter, never recursion.
func (e *Executor) GetJSON(ctx context.Context, build func(ctx context.Context) (*http.Request, error), out any) error {
	attempts := e.Policy.attempts()

	for attempt := 1; ; attempt++ {
		if !e.Breaker.Allow() {
			return ErrCircuitOpen
		}

		err := e.doOnce(ctx, build, out)
		if err == nil {
			e.Breaker.RecordSuccess()
			return nil
		}
		e.Breaker.RecordFailure()

		if !IsRetryable(err) || attempt >= attempts {
			return err
		}

		delay := e.Policy.Delay(attempt, err)
		if e.Logger != nil {
			e.Logger.WarnContext(ctx, "provider request failed, retrying",
				"attempt", attempt,
				"max_attempts", attempts,
				"delay", delay,
				"rate_limited", IsRateLimit(err),
				"error", err,
			)
		}
		if serr := e.sleep(ctx, delay); serr != nil {
			return serr
		}
	}
}

func (e *Executor) doOnce(ctx context.Context, build func(ctx context.Context) (*http.Request, error), out any) error {
	req, err := build(ctx)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close failure is not actionable

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext waits for d or until ctx is done, whichever comes first.
// Paginated clients use it for inter-page pacing as well.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
