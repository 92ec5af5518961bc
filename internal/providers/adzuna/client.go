// Package adzuna fetches job listings from the Adzuna search API: API-key
// query authentication and page-numbered pagination with a results_per_page
// parameter capped at 50.
package adzuna

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jobpulse/jobpulse/internal/detect"
	"github.com/jobpulse/jobpulse/internal/providers"
)

// SourceName identifies this provider in RawJobData and statistics.
const SourceName = "adzuna"

const (
	// maxResultsPerPage is the provider's hard ceiling.
	maxResultsPerPage = 50
	defaultMaxResults = 500
)

// Config holds the provider credentials and endpoint.
type Config struct {
	AppID   string
	AppKey  string
	BaseURL string // e.g. https://api.adzuna.com/v1/api/jobs
	Country string // two-letter country segment, e.g. "fr"

	PageDelay time.Duration
}

// FetchOptions are the per-call search parameters.
type FetchOptions struct {
	What       string
	Where      string
	MaxResults int
	PageSize   int
}

// FetchOptionsForLimit is the bare-number convenience call shape.
func FetchOptionsForLimit(limit int) FetchOptions {
	return FetchOptions{MaxResults: limit}
}

// Options groups the dependencies for New.
type Options struct {
	Config     Config
	HTTPClient *http.Client
	Retry      providers.RetryPolicy
	Breaker    *providers.CircuitBreaker
	Logger     *slog.Logger
}

// Client is the Adzuna API client.
type Client struct {
	cfg    Config
	exec   *providers.Executor
	logger *slog.Logger
}

// New validates the configuration and constructs a Client.
func New(opts Options) (*Client, error) {
	cfg := opts.Config
	if cfg.AppID == "" || cfg.AppKey == "" {
		return nil, errors.New("adzuna: app_id and app_key are required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("adzuna: base URL is required")
	}
	if cfg.Country == "" {
		cfg.Country = "fr"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "adzuna_client")
	}

	return &Client{
		cfg: cfg,
		exec: &providers.Executor{
			Client:  httpClient,
			Policy:  opts.Retry,
			Breaker: opts.Breaker,
			Logger:  logger,
		},
		logger: logger,
	}, nil
}

type searchResponse struct {
	Results []adResult `json:"results"`
}

type adResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	SalaryMin   float64 `json:"salary_min"`
	SalaryMax   float64 `json:"salary_max"`
	RedirectURL string  `json:"redirect_url"`
	Created     string  `json:"created"`
}

// JobDTO is the normalized per-source shape emitted by this client.
type JobDTO struct {
	ExternalID  string
	Title       string
	Company     string
	Description string
	Location    string
	SalaryMin   *int // thousands
	SalaryMax   *int
	URL         string
	PostedAt    time.Time
}

// FetchJobs pages through the search endpoint until an empty page, a short
// page, or the result bound. Page failures after the retry budget are
// logged and the accumulated listings are returned.
func (c *Client) FetchJobs(ctx context.Context, opts FetchOptions) ([]JobDTO, error) {
	size := opts.PageSize
	if size <= 0 {
		size = maxResultsPerPage
	}
	if size > maxResultsPerPage {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "requested page size exceeds provider maximum, clamping",
				"requested", size, "max", maxResultsPerPage)
		}
		size = maxResultsPerPage
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var dtos []JobDTO
	for page := 1; len(dtos) < maxResults; page++ {
		out, err := c.fetchPage(ctx, opts, page, size)
		if err != nil {
			c.logTerminal(ctx, err, page)
			return dtos, nil
		}
		if len(out.Results) == 0 {
			break
		}

		dtos = append(dtos, c.mapItems(ctx, out.Results)...)

		if len(out.Results) < size {
			break
		}
		if c.cfg.PageDelay > 0 {
			if err := providers.SleepContext(ctx, c.cfg.PageDelay); err != nil {
				return dtos, nil
			}
		}
	}

	if len(dtos) > maxResults {
		dtos = dtos[:maxResults]
	}
	return dtos, nil
}

func (c *Client) fetchPage(ctx context.Context, opts FetchOptions, page, size int) (searchResponse, error) {
	build := func(ctx context.Context) (*http.Request, error) {
		q := url.Values{}
		q.Set("app_id", c.cfg.AppID)
		q.Set("app_key", c.cfg.AppKey)
		q.Set("results_per_page", strconv.Itoa(size))
		q.Set("content-type", "application/json")
		if opts.What != "" {
			q.Set("what", opts.What)
		}
		if opts.Where != "" {
			q.Set("where", opts.Where)
		}

		endpoint := c.cfg.BaseURL + "/" + c.cfg.Country + "/search/" + strconv.Itoa(page) + "?" + q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}

	var out searchResponse
	err := c.exec.GetJSON(ctx, build, &out)
	return out, err
}

// mapItems drops listings without an identifier or without any detectable
// technology in their free text, converts absolute salaries to thousands
// and parses the posting date.
func (c *Client) mapItems(ctx context.Context, items []adResult) []JobDTO {
	dtos := make([]JobDTO, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			if c.logger != nil {
				c.logger.WarnContext(ctx, "dropping listing without identifier", "title", item.Title)
			}
			continue
		}
		if len(detect.Technologies(item.Title+" "+item.Description)) == 0 {
			if c.logger != nil {
				c.logger.DebugContext(ctx, "dropping listing without detectable technologies",
					"external_id", item.ID)
			}
			continue
		}

		dto := JobDTO{
			ExternalID:  item.ID,
			Title:       item.Title,
			Company:     item.Company.DisplayName,
			Description: item.Description,
			Location:    item.Location.DisplayName,
			SalaryMin:   thousands(item.SalaryMin),
			SalaryMax:   thousands(item.SalaryMax),
			URL:         item.RedirectURL,
		}
		if item.Created != "" {
			if at, err := time.Parse(time.RFC3339, item.Created); err == nil {
				dto.PostedAt = at
			} else if c.logger != nil {
				c.logger.WarnContext(ctx, "unparseable created date",
					"external_id", item.ID, "created", item.Created)
			}
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

// thousands converts an absolute yearly salary to thousands of currency
// units; zero means the provider carried no figure.
func thousands(v float64) *int {
	if v <= 0 {
		return nil
	}
	k := int(math.Round(v / 1000))
	if k == 0 {
		k = 1
	}
	return &k
}

func (c *Client) logTerminal(ctx context.Context, err error, page int) {
	if c.logger == nil {
		return
	}
	switch {
	case providers.IsRateLimit(err):
		c.logger.ErrorContext(ctx, "adzuna rate limit persisted after retries, returning partial results",
			"page", page, "error", err)
	case providers.IsAuthError(err):
		c.logger.ErrorContext(ctx, "adzuna rejected credentials, returning partial results",
			"page", page, "error", err)
	default:
		c.logger.ErrorContext(ctx, "adzuna fetch failed, returning partial results",
			"page", page, "error", err)
	}
}
