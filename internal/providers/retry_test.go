package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func buildGet(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:        3,
		BaseDelay:          100 * time.Millisecond,
		RateLimitBaseDelay: time.Second,
		MaxDelay:           10 * time.Second,
	}

	serverErr := &HTTPError{StatusCode: 500, Status: "500 Internal Server Error"}
	rateLimitErr := &HTTPError{StatusCode: 429, Status: "429 Too Many Requests"}

	tests := []struct {
		name    string
		attempt int
		err     error
		want    time.Duration
	}{
		{"first attempt uses base", 1, serverErr, 100 * time.Millisecond},
		{"exponential growth", 2, serverErr, 200 * time.Millisecond},
		{"third attempt", 3, serverErr, 400 * time.Millisecond},
		{"rate limit uses larger base", 1, rateLimitErr, time.Second},
		{"rate limit second attempt", 2, rateLimitErr, 2 * time.Second},
		{
			"retry-after takes precedence",
			1,
			&HTTPError{StatusCode: 429, RetryAfter: 7 * time.Second},
			7 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Delay(tt.attempt, tt.err))
		})
	}
}

func TestRetryPolicyDelayCapped(t *testing.T) {
	policy := RetryPolicy{BaseDelay: time.Second, MaxDelay: 3 * time.Second}
	err := &HTTPError{StatusCode: 503}
	assert.Equal(t, 3*time.Second, policy.Delay(5, err))
}

func TestExecutorExhaustsRetryBudget(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	exec := &Executor{
		Client: srv.Client(),
		Policy: RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		Sleep:  noSleep,
	}

	var out struct{}
	err := exec.GetJSON(context.Background(), buildGet(srv.URL), &out)
	require.Error(t, err)
	assert.Equal(t, 3, calls, "retryable failure must consume the whole budget")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestExecutorDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	exec := &Executor{
		Client: srv.Client(),
		Policy: DefaultRetryPolicy(),
		Sleep:  noSleep,
	}

	err := exec.GetJSON(context.Background(), buildGet(srv.URL), nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-429 4xx must be requested exactly once")
}

func TestExecutorRetriesRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var slept []time.Duration
	exec := &Executor{
		Client: srv.Client(),
		Policy: DefaultRetryPolicy(),
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	var out struct {
		OK bool `json:"ok"`
	}
	err := exec.GetJSON(context.Background(), buildGet(srv.URL), &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, 3, calls)
	// Retry-After (1s) takes precedence over the computed exponential delay.
	assert.Equal(t, []time.Duration{time.Second, time.Second}, slept)
}

func TestExecutorCircuitOpenFailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	breaker := NewCircuitBreaker(2, time.Minute)
	exec := &Executor{
		Client:  srv.Client(),
		Policy:  RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		Breaker: breaker,
		Sleep:   noSleep,
	}

	// Two failures open the breaker mid-loop; the third attempt fails fast.
	err := exec.GetJSON(context.Background(), buildGet(srv.URL), nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, calls)

	// Subsequent requests never reach the network.
	err = exec.GetJSON(context.Background(), buildGet(srv.URL), nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, calls)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 30*time.Second, parseRetryAfter("30", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))

	at := now.Add(90 * time.Second).Format(http.TimeFormat)
	assert.Equal(t, 90*time.Second, parseRetryAfter(at, now))
}

func TestLooksRemote(t *testing.T) {
	tests := []struct {
		name        string
		location    string
		description string
		want        bool
	}{
		{"remote in location", "Remote - France", "", true},
		{"french keyword with accents", "Paris", "Télétravail complet possible", true},
		{"work from home", "", "You can work from home", true},
		{"on-site", "Lyon", "On-site position in our Lyon office", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksRemote(tt.location, tt.description))
		})
	}
}
