package francetravail

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// defaultExpiryMargin refreshes tokens this long before their stated
// expiry, so a token never dies mid-pagination.
const defaultExpiryMargin = 30 * time.Second

// tokenProvider caches the OAuth2 client-credentials bearer token.
// Tokens are refreshed proactively once inside the expiry margin, and
// cleared reactively (Invalidate) when a data request answers 401/403.
type tokenProvider struct {
	conf   *clientcredentials.Config
	client *http.Client
	margin time.Duration

	mu      sync.Mutex
	current *oauth2.Token
}

func newTokenProvider(cfg Config, client *http.Client) *tokenProvider {
	var scopes []string
	if cfg.Scope != "" {
		scopes = []string{cfg.Scope}
	}
	return &tokenProvider{
		conf: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		client: client,
		margin: defaultExpiryMargin,
	}
}

// Token returns a bearer token, fetching a fresh one when none is cached,
// the cached one expired, or expiry is within the safety margin.
func (p *tokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.Valid() && time.Until(p.current.Expiry) > p.margin {
		return p.current.AccessToken, nil
	}

	if p.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	}
	tok, err := p.conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch oauth token: %w", err)
	}
	p.current = tok
	return tok.AccessToken, nil
}

// Invalidate drops the cached token so the next Token call re-authenticates.
func (p *tokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
}
