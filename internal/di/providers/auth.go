package providers

import (
	"github.com/samber/do/v2"

	"github.com/heyprompt/heyprompt-server/internal/auth"
	"github.com/heyprompt/heyprompt-server/internal/config"
	"github.com/heyprompt/heyprompt-server/internal/logger"
)

// AuthKey is the PASETO key read from the data directory.
type AuthKey []byte

func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}
	return AuthKey(key), nil
}

// ProvideTokenService issues access and refresh tokens with the configured lifetimes.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)
	log := do.MustInvoke[*logger.Logger](i)

	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	if err != nil {
		return nil, err
	}
	log.Debug("Token service ready",
		"access_ttl", cfg.Auth.AccessTokenDuration,
		"refresh_ttl", cfg.Auth.RefreshTokenDuration,
	)
	return tokens, nil
}
