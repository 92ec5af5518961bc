// Package francetravail fetches job offers from the France Travail (former
// Pôle Emploi) API: OAuth2 client-credentials authentication and a
// paginated search endpoint driven by a range parameter capped at 150
// results per page.
package francetravail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jobpulse/jobpulse/internal/detect"
	"github.com/jobpulse/jobpulse/internal/providers"
)

// SourceName identifies this provider in RawJobData and statistics.
const SourceName = "francetravail"

const (
	// maxPageSize is the provider's hard ceiling on the range parameter.
	maxPageSize       = 150
	defaultMaxResults = 1000
)

// Config holds the provider credentials and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string // search endpoint base, e.g. https://api.francetravail.io/partenaire/offresdemploi/v2
	Scope        string

	// PageDelay paces successive page requests.
	PageDelay time.Duration
}

// FetchOptions are the per-call search parameters.
type FetchOptions struct {
	Keywords   string
	Department string
	MaxResults int
	PageSize   int
}

// FetchOptionsForLimit is the bare-number convenience: fetch up to limit
// offers with default paging and no filters.
func FetchOptionsForLimit(limit int) FetchOptions {
	return FetchOptions{MaxResults: limit}
}

// Options groups the dependencies for New.
type Options struct {
	Config     Config
	HTTPClient *http.Client
	Regions    *providers.RegionCache // optional region resolution at the edge
	Retry      providers.RetryPolicy
	Breaker    *providers.CircuitBreaker // optional
	Logger     *slog.Logger
}

// Client is the France Travail API client. It owns its token cache,
// circuit-breaker state and region-code cache; no other component issues
// raw requests against this provider.
type Client struct {
	cfg     Config
	exec    *providers.Executor
	tokens  *tokenProvider
	regions *providers.RegionCache
	logger  *slog.Logger
}

// New validates the configuration and constructs a Client.
func New(opts Options) (*Client, error) {
	cfg := opts.Config
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("francetravail: client credentials are required")
	}
	if cfg.TokenURL == "" || cfg.BaseURL == "" {
		return nil, errors.New("francetravail: token and base URLs are required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "francetravail_client")
	}

	return &Client{
		cfg: cfg,
		exec: &providers.Executor{
			Client:  httpClient,
			Policy:  opts.Retry,
			Breaker: opts.Breaker,
			Logger:  logger,
		},
		tokens:  newTokenProvider(cfg, httpClient),
		regions: opts.Regions,
		logger:  logger,
	}, nil
}

type searchResponse struct {
	Resultats []offerItem `json:"resultats"`
}

type offerItem struct {
	ID           string    `json:"id"`
	Intitule     string    `json:"intitule"`
	Description  string    `json:"description"`
	DateCreation time.Time `json:"dateCreation"`
	Entreprise   struct {
		Nom string `json:"nom"`
	} `json:"entreprise"`
	LieuTravail struct {
		Libelle    string `json:"libelle"`
		CodePostal string `json:"codePostal"`
	} `json:"lieuTravail"`
	ExperienceLibelle string `json:"experienceLibelle"`
	OrigineOffre      struct {
		URLOrigine string `json:"urlOrigine"`
	} `json:"origineOffre"`
}

// JobDTO is the normalized per-source shape emitted by this client, before
// mapping into the pipeline's RawJobData.
type JobDTO struct {
	ExternalID      string
	Title           string
	Company         string
	Description     string
	Location        string
	PostalCode      string
	ExperienceLabel string
	RegionID        *string
	URL             string
	PostedAt        time.Time
}

// FetchJobs pages through the search endpoint until an empty page, a short
// page, or the result bound is reached. Page-level failures after the retry
// budget are logged and the offers accumulated so far are returned: callers
// treat partial results as success with reduced coverage.
func (c *Client) FetchJobs(ctx context.Context, opts FetchOptions) ([]JobDTO, error) {
	size := opts.PageSize
	if size <= 0 {
		size = maxPageSize
	}
	if size > maxPageSize {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "requested page size exceeds provider maximum, clamping",
				"requested", size, "max", maxPageSize)
		}
		size = maxPageSize
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	// Missing or rejected credentials are a configuration problem, not
	// reduced coverage; they propagate.
	if _, err := c.tokens.Token(ctx); err != nil {
		return nil, fmt.Errorf("francetravail authenticate: %w", err)
	}

	var dtos []JobDTO
	for start := 0; len(dtos) < maxResults; start += size {
		page, err := c.fetchPage(ctx, opts, start, start+size-1)
		if err != nil {
			c.logTerminal(ctx, err, start)
			return dtos, nil
		}
		if len(page.Resultats) == 0 {
			break
		}

		dtos = append(dtos, c.mapItems(ctx, page.Resultats)...)

		if len(page.Resultats) < size {
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

// fetchPage requests one range of results. On a 401/403 the cached token is
// cleared, a re-authentication is attempted, and the same data request is
// retried exactly once.
func (c *Client) fetchPage(ctx context.Context, opts FetchOptions, start, end int) (searchResponse, error) {
	build := func(ctx context.Context) (*http.Request, error) {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		q := url.Values{}
		q.Set("range", strconv.Itoa(start)+"-"+strconv.Itoa(end))
		if opts.Keywords != "" {
			q.Set("motsCles", opts.Keywords)
		}
		if opts.Department != "" {
			q.Set("departement", opts.Department)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.cfg.BaseURL+"/offres/search?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	var out searchResponse
	err := c.exec.GetJSON(ctx, build, &out)
	if providers.IsAuthError(err) {
		c.tokens.Invalidate()
		if _, authErr := c.tokens.Token(ctx); authErr != nil {
			return out, fmt.Errorf("re-authenticate: %w", authErr)
		}
		out = searchResponse{}
		err = c.exec.GetJSON(ctx, build, &out)
	}
	return out, err
}

// mapItems converts offer items to DTOs. Items without an identifier and
// items whose free text yields zero detected technologies are dropped,
// never failing the batch.
func (c *Client) mapItems(ctx context.Context, items []offerItem) []JobDTO {
	dtos := make([]JobDTO, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			if c.logger != nil {
				c.logger.WarnContext(ctx, "dropping offer without identifier", "title", item.Intitule)
			}
			continue
		}
		if len(detect.Technologies(item.Intitule+" "+item.Description)) == 0 {
			if c.logger != nil {
				c.logger.DebugContext(ctx, "dropping offer without detectable technologies",
					"external_id", item.ID)
			}
			continue
		}

		dto := JobDTO{
			ExternalID:      item.ID,
			Title:           item.Intitule,
			Company:         item.Entreprise.Nom,
			Description:     item.Description,
			Location:        item.LieuTravail.Libelle,
			PostalCode:      item.LieuTravail.CodePostal,
			ExperienceLabel: item.ExperienceLibelle,
			URL:             item.OrigineOffre.URLOrigine,
			PostedAt:        item.DateCreation,
		}
		if code := regionCodeForPostal(item.LieuTravail.CodePostal); code != "" && c.regions != nil {
			id, err := c.regions.Resolve(ctx, code)
			if err != nil {
				if c.logger != nil {
					c.logger.WarnContext(ctx, "region lookup failed", "code", code, "error", err)
				}
			} else {
				dto.RegionID = id
			}
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

func (c *Client) logTerminal(ctx context.Context, err error, start int) {
	if c.logger == nil {
		return
	}
	switch {
	case providers.IsAuthError(err):
		c.logger.ErrorContext(ctx, "francetravail authentication failed, returning partial results",
			"start", start, "error", err)
	case providers.IsRateLimit(err):
		c.logger.ErrorContext(ctx, "francetravail rate limit persisted after retries, returning partial results",
			"start", start, "error", err)
	default:
		c.logger.ErrorContext(ctx, "francetravail fetch failed, returning partial results",
			"start", start, "error", err)
	}
}
