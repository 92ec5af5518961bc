package config

// FranceTravailConfig contains the France Travail API source configuration.
// The source needs OAuth2 client credentials; leaving them empty keeps the
// source disabled even when Enabled is set.
type FranceTravailConfig struct {
	Enabled      bool   `env:"ENABLED"       envDefault:"false"`
	ClientID     string `env:"CLIENT_ID"     envDefault:""`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:""`
	BaseURL      string `env:"BASE_URL"      envDefault:"https://api.francetravail.io/partenaire/offresdemploi/v2"`
	TokenURL     string `env:"TOKEN_URL"     envDefault:"https://entreprise.francetravail.fr/connexion/oauth2/access_token?realm=%2Fpartenaire"`
	Scope        string `env:"SCOPE"         envDefault:"api_offresdemploiv2 o2dsoffre"`
	Keywords     string `env:"KEYWORDS"      envDefault:"developpeur"`
	MaxResults   int    `env:"MAX_RESULTS"   envDefault:"300"`
}

// Configured reports whether the source is enabled with usable credentials.
func (c FranceTravailConfig) Configured() bool {
	return c.Enabled && c.ClientID != "" && c.ClientSecret != ""
}

// AdzunaConfig contains the Adzuna API source configuration.
type AdzunaConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	AppID      string `env:"APP_ID"      envDefault:""`
	AppKey     string `env:"APP_KEY"     envDefault:""`
	BaseURL    string `env:"BASE_URL"    envDefault:"https://api.adzuna.com/v1/api/jobs"`
	Country    string `env:"COUNTRY"     envDefault:"fr"`
	What       string `env:"WHAT"        envDefault:"developer"`
	MaxResults int    `env:"MAX_RESULTS" envDefault:"200"`
}

// Configured reports whether the source is enabled with usable credentials.
func (c AdzunaConfig) Configured() bool {
	return c.Enabled && c.AppID != "" && c.AppKey != ""
}

// RemotiveConfig contains the Remotive API source configuration.
// Remotive is keyless, so Enabled alone controls it.
type RemotiveConfig struct {
	Enabled  bool   `env:"ENABLED"  envDefault:"false"`
	BaseURL  string `env:"BASE_URL" envDefault:"https://remotive.com/api"`
	Category string `env:"CATEGORY" envDefault:"software-dev"`
	Search   string `env:"SEARCH"   envDefault:""`
	Limit    int    `env:"LIMIT"    envDefault:"100"`
}
