package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestParseServerConfig_Defaults(t *testing.T) {
	cfg, err := ParseServerConfig(nil, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.Address)
	assert.Equal(t, "", cfg.DatabaseDSN)
	assert.Equal(t, AuthBackendLocal, cfg.AuthBackend)
	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
}

func TestParseServerConfig_FlagsAndEnv(t *testing.T) {
	env := map[string]string{
		"DATABASE_DSN": "postgres://env",
		"SESSION_TTL":  "2h",
	}
	cfg, err := ParseServerConfig(
		[]string{"-a", ":9090", "-d", "postgres://flag", "-auth", "supabase"},
		func(k string) string { return env[k] },
	)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Address)
	assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
	assert.Equal(t, AuthBackendSupabase, cfg.AuthBackend)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestParseServerConfig_BadTTL(t *testing.T) {
	_, err := ParseServerConfig(nil, func(k string) string {
		if k == "SESSION_TTL" {
			return "soon"
		}
		return ""
	})
	assert.Error(t, err)
}
