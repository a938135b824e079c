package authkit

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

const (
	// EnvDevelopment relaxes cookie security and error redaction
	EnvDevelopment = "development"
	// EnvProduction enables secure-only cookies and redacts internals
	EnvProduction = "production"
	// EnvTest is used by the test suite
	EnvTest = "test"
)

// EnvConfig is the immutable runtime configuration, constructed once at
// process start and passed by reference into the constructors. There is no
// ambient lookup after that.
type EnvConfig struct {
	AccessSigningKey  string        `env:"AUTH_ACCESS_SIGNING_KEY,required"`
	RefreshSigningKey string        `env:"AUTH_REFRESH_SIGNING_KEY,required"`
	AccessTokenTTL    time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL   time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" envDefault:"168h"`
	Issuer            string        `env:"AUTH_ISSUER" envDefault:"authkit"`
	Audience          []string      `env:"AUTH_AUDIENCE" envSeparator:","`
	AdminWhitelist    []string      `env:"AUTH_WHITELIST_ADMIN_MAIL" envSeparator:","`
	Environment       string        `env:"AUTH_ENV" envDefault:"development"`
	TokenLookup       string        `env:"AUTH_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme        string        `env:"AUTH_SCHEME" envDefault:"Bearer"`
	ContextKey        string        `env:"AUTH_CONTEXT_KEY" envDefault:"principal"`
}

// NewEnvConfig loads configuration from environment variables.
func NewEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse auth environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the invariants the signer depends on.
func (c *EnvConfig) Validate() error {
	if c.AccessSigningKey == "" || c.RefreshSigningKey == "" {
		return errors.New("signing keys must be configured", errors.CategoryBadInput)
	}

	// A shared secret would let an access token replay as a refresh token.
	if c.AccessSigningKey == c.RefreshSigningKey {
		return errors.New("access and refresh signing keys must differ", errors.CategoryBadInput)
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive", errors.CategoryBadInput)
	}

	return nil
}

func (c *EnvConfig) GetAccessSigningKey() string { return c.AccessSigningKey }

func (c *EnvConfig) GetRefreshSigningKey() string { return c.RefreshSigningKey }

func (c *EnvConfig) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

func (c *EnvConfig) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }

func (c *EnvConfig) GetIssuer() string { return c.Issuer }

func (c *EnvConfig) GetAudience() []string { return c.Audience }

func (c *EnvConfig) GetAdminWhitelist() []string { return c.AdminWhitelist }

func (c *EnvConfig) GetEnvironment() string { return c.Environment }

func (c *EnvConfig) GetTokenLookup() string { return c.TokenLookup }

func (c *EnvConfig) GetAuthScheme() string { return c.AuthScheme }

func (c *EnvConfig) GetContextKey() string { return c.ContextKey }

var _ Config = (*EnvConfig)(nil)

// IsProduction reports whether cfg runs in production mode. Secure-only
// cookies and error redaction key off this.
func IsProduction(cfg Config) bool {
	return cfg.GetEnvironment() == EnvProduction
}
