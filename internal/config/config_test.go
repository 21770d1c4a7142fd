package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "stockfolio", cfg.DBName)
	assert.Equal(t, map[string]string{"dev-token": "dev-user"}, cfg.APITokens)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("API_TOKENS", "tok1:u1, tok2:u2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, map[string]string{"tok1": "u1", "tok2": "u2"}, cfg.APITokens)
}

func TestLoad_MalformedTokens(t *testing.T) {
	t.Setenv("API_TOKENS", "just-a-token")

	_, err := Load()
	assert.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.internal",
		DBPort:     5433,
		DBUser:     "app",
		DBPassword: "secret",
		DBName:     "stocks",
		DBSSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=app password=secret dbname=stocks sslmode=require",
		cfg.ConnectionString())
}
