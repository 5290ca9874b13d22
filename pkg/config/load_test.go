package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GAMEWALLET_DATABASE_URL",
		"GAMEWALLET_AUTH_ENCRYPTION_KEY",
		"GAMEWALLET_AUTH_ALLOWED_IP_ENFORCEMENT",
		"GAMEWALLET_SERVER_PORT",
		"GAMEWALLET_AML_MAX_RETRIES",
	} {
		t.Setenv(key, "") // registers restoration of the original value
		os.Unsetenv(key)
	}
}

func TestLoad_RequiredFieldsMustBeSet(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_AppliesDefaultsWhenOptionalFieldsAreUnset(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAMEWALLET_DATABASE_URL", "postgres://localhost/gamewallet")
	t.Setenv("GAMEWALLET_AUTH_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, 3, cfg.AML.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.AML.RetryBaseDelay)
	require.True(t, cfg.Auth.AllowedIPEnforcement)
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAMEWALLET_DATABASE_URL", "postgres://localhost/gamewallet")
	t.Setenv("GAMEWALLET_AUTH_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("GAMEWALLET_SERVER_PORT", "8080")
	t.Setenv("GAMEWALLET_AML_MAX_RETRIES", "5")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 5, cfg.AML.MaxRetries)
}

func TestLoad_MissingDotenvFileIsNotAnError(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAMEWALLET_DATABASE_URL", "postgres://localhost/gamewallet")
	t.Setenv("GAMEWALLET_AUTH_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	_, err := Load("/nonexistent/path/.env")
	require.NoError(t, err)
}
