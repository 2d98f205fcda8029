package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/tmp/libris-test"},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Auth: AuthConfig{
			AccessTokenDuration: 24 * time.Hour,
			LoginRatePerSecond:  1,
			LoginBurst:          5,
		},
		Catalog: CatalogConfig{SharedPassword: "secret"},
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, validTestConfig().Validate())
}

func TestConfig_Validate_BadEnvironment(t *testing.T) {
	cfg := validTestConfig()
	cfg.App.Environment = "prod"

	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_BadLogLevel(t *testing.T) {
	cfg := validTestConfig()
	cfg.Logger.Level = "verbose"

	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_EmptyPassword(t *testing.T) {
	cfg := validTestConfig()
	cfg.Catalog.SharedPassword = ""

	assert.Error(t, cfg.Validate())
}

func TestExpandPath(t *testing.T) {
	got, err := expandPath("", "/default/path")
	require.NoError(t, err)
	assert.Equal(t, "/default/path", got)

	got, err = expandPath("/var/lib/libris", "/default/path")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/libris", got)

	got, err = expandPath("~/libris", "/default/path")
	require.NoError(t, err)
	assert.NotContains(t, got, "~")
	assert.True(t, len(got) > 0 && got[0] == '/')
}
