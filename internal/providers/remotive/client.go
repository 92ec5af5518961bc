// Package remotive fetches postings from the Remotive public API: a keyless
// endpoint with a limit/category/search query contract and no pagination.
// Every posting from this provider is remote by definition.
package remotive

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jobpulse/jobpulse/internal/detect"
	"github.com/jobpulse/jobpulse/internal/providers"
)

// SourceName identifies this provider in RawJobData and statistics.
const SourceName = "remotive"

const defaultLimit = 200

// Config holds the provider endpoint.
type Config struct {
	BaseURL string // e.g. https://remotive.com/api
}

// FetchOptions are the per-call query parameters.
type FetchOptions struct {
	Category string
	Search   string
	Limit    int
}

// FetchOptionsForLimit is the bare-number convenience call shape.
func FetchOptionsForLimit(limit int) FetchOptions {
	return FetchOptions{Limit: limit}
}

// Options groups the dependencies for New.
type Options struct {
	Config     Config
	HTTPClient *http.Client
	Retry      providers.RetryPolicy
	Breaker    *providers.CircuitBreaker
	Logger     *slog.Logger
}

// Client is the Remotive API client.
type Client struct {
	cfg    Config
	exec   *providers.Executor
	logger *slog.Logger
}

// New validates the configuration and constructs a Client.
func New(opts Options) (*Client, error) {
	if opts.Config.BaseURL == "" {
		return nil, errors.New("remotive: base URL is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "remotive_client")
	}

	return &Client{
		cfg: opts.Config,
		exec: &providers.Executor{
			Client:  httpClient,
			Policy:  opts.Retry,
			Breaker: opts.Breaker,
			Logger:  logger,
		},
		logger: logger,
	}, nil
}

type listResponse struct {
	Jobs []remoteJob `json:"jobs"`
}

type remoteJob struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	CompanyName     string   `json:"company_name"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	Location        string   `json:"candidate_required_location"`
	Salary          string   `json:"salary"`
	URL             string   `json:"url"`
	PublicationDate string   `json:"publication_date"`
}

// JobDTO is the normalized per-source shape emitted by this client.
// Technologies carries the canonical names derived from the provider's
// tags; the downstream pipeline preserves them instead of re-detecting.
type JobDTO struct {
	ExternalID   string
	Title        string
	Company      string
	Description  string
	Technologies []string
	Location     string
	SalaryMin    *int
	SalaryMax    *int
	URL          string
	PostedAt     time.Time
}

// FetchJobs issues one list request. Failures after the retry budget are
// logged and an empty result is returned, never an error: the provider is
// keyless and a failed call only reduces coverage.
func (c *Client) FetchJobs(ctx context.Context, opts FetchOptions) ([]JobDTO, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	build := func(ctx context.Context) (*http.Request, error) {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(limit))
		if opts.Category != "" {
			q.Set("category", opts.Category)
		}
		if opts.Search != "" {
			q.Set("search", opts.Search)
		}
		return http.NewRequestWithContext(ctx, http.MethodGet,
			c.cfg.BaseURL+"/remote-jobs?"+q.Encode(), nil)
	}

	var out listResponse
	if err := c.exec.GetJSON(ctx, build, &out); err != nil {
		if c.logger != nil {
			if providers.IsRateLimit(err) {
				c.logger.ErrorContext(ctx, "remotive rate limit persisted after retries", "error", err)
			} else {
				c.logger.ErrorContext(ctx, "remotive fetch failed", "error", err)
			}
		}
		return nil, nil
	}

	return c.mapItems(ctx, out.Jobs), nil
}

// mapItems drops postings without an identifier, canonicalizes provider tags
// against the technology vocabulary, and parses salary text. Postings whose
// tags and free text both yield zero technologies are dropped.
func (c *Client) mapItems(ctx context.Context, items []remoteJob) []JobDTO {
	dtos := make([]JobDTO, 0, len(items))
	for _, item := range items {
		if item.ID == 0 {
			if c.logger != nil {
				c.logger.WarnContext(ctx, "dropping posting without identifier", "title", item.Title)
			}
			continue
		}

		techs := detect.Technologies(strings.Join(item.Tags, " "))
		if len(techs) == 0 && len(detect.Technologies(item.Title+" "+item.Description)) == 0 {
			if c.logger != nil {
				c.logger.DebugContext(ctx, "dropping posting without detectable technologies",
					"external_id", item.ID)
			}
			continue
		}

		dto := JobDTO{
			ExternalID:   strconv.FormatInt(item.ID, 10),
			Title:        item.Title,
			Company:      item.CompanyName,
			Description:  item.Description,
			Technologies: techs,
			Location:     item.Location,
			URL:          item.URL,
		}

		if item.Salary != "" {
			minK, maxK, ok := ParseSalaryRange(item.Salary)
			if ok {
				dto.SalaryMin, dto.SalaryMax = minK, maxK
			} else if c.logger != nil {
				c.logger.WarnContext(ctx, "unusable salary text",
					"external_id", item.ID, "salary", item.Salary)
			}
		}
		if item.PublicationDate != "" {
			if at, err := parsePublicationDate(item.PublicationDate); err == nil {
				dto.PostedAt = at
			}
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

// parsePublicationDate accepts the provider's "2006-01-02T15:04:05" shape
// as well as plain RFC3339.
func parsePublicationDate(s string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339, s); err == nil {
		return at, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
