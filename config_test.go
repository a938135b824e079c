package authkit_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-authkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_ACCESS_SIGNING_KEY", "env-access-secret")
	t.Setenv("AUTH_REFRESH_SIGNING_KEY", "env-refresh-secret")
}

func TestNewEnvConfig(t *testing.T) {
	t.Run("loads defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := authkit.NewEnvConfig()
		require.NoError(t, err)

		assert.Equal(t, "env-access-secret", cfg.GetAccessSigningKey())
		assert.Equal(t, "env-refresh-secret", cfg.GetRefreshSigningKey())
		assert.Equal(t, 15*time.Minute, cfg.GetAccessTokenTTL())
		assert.Equal(t, 168*time.Hour, cfg.GetRefreshTokenTTL())
		assert.Equal(t, "authkit", cfg.GetIssuer())
		assert.Equal(t, "development", cfg.GetEnvironment())
		assert.Equal(t, "header:Authorization", cfg.GetTokenLookup())
		assert.Equal(t, "Bearer", cfg.GetAuthScheme())
		assert.Equal(t, "principal", cfg.GetContextKey())
	})

	t.Run("parses list values", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("AUTH_WHITELIST_ADMIN_MAIL", "root@example.com,ops@example.com")
		t.Setenv("AUTH_AUDIENCE", "api,web")

		cfg, err := authkit.NewEnvConfig()
		require.NoError(t, err)

		assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.GetAdminWhitelist())
		assert.Equal(t, []string{"api", "web"}, cfg.GetAudience())
	})

	t.Run("requires signing keys", func(t *testing.T) {
		t.Setenv("AUTH_ACCESS_SIGNING_KEY", "")
		t.Setenv("AUTH_REFRESH_SIGNING_KEY", "")

		_, err := authkit.NewEnvConfig()
		assert.Error(t, err)
	})

	t.Run("rejects shared signing secret", func(t *testing.T) {
		t.Setenv("AUTH_ACCESS_SIGNING_KEY", "same-secret")
		t.Setenv("AUTH_REFRESH_SIGNING_KEY", "same-secret")

		_, err := authkit.NewEnvConfig()
		assert.Error(t, err)
	})

	t.Run("rejects non positive TTLs", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("AUTH_ACCESS_TOKEN_TTL", "-5m")

		_, err := authkit.NewEnvConfig()
		assert.Error(t, err)
	})
}

func TestIsProduction(t *testing.T) {
	cfg := newTestConfig()
	assert.False(t, authkit.IsProduction(cfg))

	cfg.Environment = authkit.EnvProduction
	assert.True(t, authkit.IsProduction(cfg))
}
