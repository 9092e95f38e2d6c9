package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akash12888/note-taking-app/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "production", cfg.Server.Environment)
	require.Equal(t, 50, cfg.Server.RateLimit.MaxRequests)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 6543, cfg.Database.Postgres.Port)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "noteapp-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, 8, cfg.Auth.OTP.Length)
	require.Equal(t, 10*time.Minute, cfg.Auth.OTP.TTL)
	require.Equal(t, "session", cfg.Auth.Cookie.Name)
	require.Equal(t, "example.com", cfg.Auth.Cookie.Domain)
	require.True(t, cfg.Auth.Google.Enabled())

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.Equal(t, "https://app.example.com", cfg.Frontend.URL)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "development", cfg.Server.Environment)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 168*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, 6, cfg.Auth.OTP.Length)
	require.Equal(t, 5*time.Minute, cfg.Auth.OTP.TTL)
	require.Equal(t, "authToken", cfg.Auth.Cookie.Name)
	require.Equal(t, "https://accounts.google.com", cfg.Auth.Google.Issuer)
	require.False(t, cfg.Auth.Google.Enabled())
	require.Equal(t, 100, cfg.Server.RateLimit.MaxRequests)
	require.Equal(t, 15*time.Minute, cfg.Server.RateLimit.Window)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestValidateRequiresJWTSecret(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.Validate())

	cfg.Auth.JWT.Secret = "  "
	require.Error(t, cfg.Validate())

	cfg.Auth.JWT.Secret = "super-secret"
	require.NoError(t, cfg.Validate())
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "secret",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
	}

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, "secret", jwtCfg.Secret)
	require.Equal(t, "issuer", jwtCfg.Issuer)
	require.Equal(t, 30*time.Minute, jwtCfg.TokenTTL)

	cfg.JWT.TTL = 0
	require.Equal(t, auth.DefaultTokenTTL, cfg.JWTServiceConfig().TokenTTL)

	require.Equal(t, 6, cfg.CodeLength())
	cfg.OTP.Length = 4
	require.Equal(t, 4, cfg.CodeLength())
}
