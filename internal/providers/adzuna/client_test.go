package adzuna

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Options{
		Config: Config{
			AppID:   "id",
			AppKey:  "key",
			BaseURL: srv.URL,
			Country: "fr",
		},
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	client.exec.Sleep = func(context.Context, time.Duration) error { return nil }
	return client, srv
}

func listing(id, title, desc string, salaryMin, salaryMax float64) map[string]any {
	return map[string]any{
		"id":           id,
		"title":        title,
		"description":  desc,
		"company":      map[string]any{"display_name": "ACME"},
		"location":     map[string]any{"display_name": "Lyon, Rhône"},
		"salary_min":   salaryMin,
		"salary_max":   salaryMax,
		"redirect_url": "https://example.org/" + id,
		"created":      "2025-05-01T09:00:00Z",
	}
}

func writeResults(w http.ResponseWriter, results ...map[string]any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Options{Config: Config{BaseURL: "http://example.org"}})
	require.Error(t, err)
}

func TestFetchJobsClampsResultsPerPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("results_per_page"))
		assert.Equal(t, "id", r.URL.Query().Get("app_id"))
		assert.True(t, strings.Contains(r.URL.Path, "/fr/search/1"))
		writeResults(w)
	})

	dtos, err := client.FetchJobs(context.Background(), FetchOptions{PageSize: 200})
	require.NoError(t, err)
	assert.Empty(t, dtos)
}

func TestFetchJobsStopsOnShortPage(t *testing.T) {
	var pages atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/search/1"):
			writeResults(w,
				listing("a1", "Go Developer", "Go and Docker", 40000, 50000),
				listing("a2", "React Developer", "React and TypeScript", 0, 0),
			)
		default:
			writeResults(w, listing("a3", "Python Developer", "Python scripts", 38000, 0))
		}
	})

	dtos, err := client.FetchJobs(context.Background(), FetchOptions{PageSize: 2, MaxResults: 100})
	require.NoError(t, err)
	require.Len(t, dtos, 3)
	assert.Equal(t, int64(2), pages.Load(), "short page terminates pagination")

	// Absolute salaries come back in thousands; zero means absent.
	require.NotNil(t, dtos[0].SalaryMin)
	assert.Equal(t, 40, *dtos[0].SalaryMin)
	require.NotNil(t, dtos[0].SalaryMax)
	assert.Equal(t, 50, *dtos[0].SalaryMax)
	assert.Nil(t, dtos[1].SalaryMin)
	assert.Nil(t, dtos[1].SalaryMax)
	assert.Equal(t, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC), dtos[0].PostedAt)
}

func TestFetchJobsReturnsAccumulatedOnRetryExhaustion(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/search/1") {
			writeResults(w,
				listing("a1", "Go Developer", "Go backend", 0, 0),
				listing("a2", "Java Developer", "Spring Boot", 0, 0),
			)
			return
		}
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	dtos, err := client.FetchJobs(context.Background(), FetchOptions{PageSize: 2, MaxResults: 10})
	require.NoError(t, err)
	assert.Len(t, dtos, 2)
	assert.Equal(t, int64(3), calls.Load())
}

func TestFetchJobsDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	dtos, err := client.FetchJobs(context.Background(), FetchOptions{})
	require.NoError(t, err)
	assert.Empty(t, dtos)
	assert.Equal(t, int64(1), calls.Load(), "4xx must not be retried")
}

func TestMapJobs(t *testing.T) {
	min := 40
	dto := JobDTO{
		ExternalID:  "a1",
		Title:       "Go Developer",
		Company:     "ACME",
		Description: "Fully remote Go role",
		Location:    "Lyon",
		SalaryMin:   &min,
		URL:         "https://example.org/a1",
		PostedAt:    time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	raw := MapJobs([]JobDTO{dto})
	require.Len(t, raw, 1)
	assert.Equal(t, SourceName, raw[0].SourceAPI)
	assert.True(t, raw[0].Remote)
	assert.NotEmpty(t, raw[0].ID)
	assert.Nil(t, raw[0].RegionID)
}

func TestThousands(t *testing.T) {
	assert.Nil(t, thousands(0))
	assert.Equal(t, 40, *thousands(40000))
	assert.Equal(t, 42, *thousands(41700))
	assert.Equal(t, 1, *thousands(500), "small figures round up to one")
}
