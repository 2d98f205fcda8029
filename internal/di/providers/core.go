// Package providers contains dependency injection providers for the Libris server.
package providers

import (
	"encoding/hex"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/librisapp/libris-server/internal/auth"
	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the application logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	}), nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}

// AuthKey is the hex-encoded PASETO symmetric key loaded at startup.
type AuthKey string

// ProvideAuthKey loads or generates the token signing key and stores it on
// the config for downstream consumers.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return "", err
	}
	cfg.Auth.AccessTokenKey = key

	log.Info("Auth key ready", "path", cfg.Data.BasePath)
	return AuthKey(hex.EncodeToString(key)), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(key), cfg.Auth.AccessTokenDuration)
}
