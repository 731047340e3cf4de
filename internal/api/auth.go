package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"kvfiles/internal/config"
	kvmiddleware "kvfiles/internal/middleware"
)

// NewAuthenticator 按 AuthMode 构造鉴权中间件。
// 返回的 cleanup 在服务退出时调用；disabled 模式下中间件为 nil。
func NewAuthenticator(cfg *config.Config, logger *slog.Logger) (func(http.Handler) http.Handler, func(), error) {
	noop := func() {}

	switch cfg.AuthMode {
	case config.AuthModeDisabled:
		logger.Warn("鉴权已关闭，列表接口对所有来源开放")
		return nil, noop, nil
	case config.AuthModeAPIKey:
		return kvmiddleware.APIKeyAuth(cfg.APIKeys), noop, nil
	case config.AuthModeJWT:
		verifier, err := kvmiddleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWKSURL, logger)
		if err != nil {
			return nil, noop, err
		}
		return verifier.Middleware(), verifier.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}
