package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier 校验 Bearer token。HS256 使用共享密钥，
// RS256/ES256 使用 JWKS 公钥集（后台定时刷新）。
type JWTVerifier struct {
	secret []byte
	jwks   *keyfunc.JWKS
	logger *slog.Logger
}

// NewJWTVerifier 创建校验器。secret 与 jwksURL 至少提供一个。
func NewJWTVerifier(secret, jwksURL string, logger *slog.Logger) (*JWTVerifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if secret == "" && jwksURL == "" {
		return nil, errors.New("jwt secret or jwks url is required")
	}

	v := &JWTVerifier{secret: []byte(secret), logger: logger}
	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  time.Minute,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				logger.Error("JWKS 刷新失败", "url", jwksURL, "error", err)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("初始化 JWKS 失败 (%s): %w", jwksURL, err)
		}
		v.jwks = jwks
		logger.Info("JWKS 初始化成功", "url", jwksURL)
	}
	return v, nil
}

// Close 停止 JWKS 后台刷新。
func (v *JWTVerifier) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func (v *JWTVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if len(v.secret) == 0 {
			return nil, errors.New("hmac token but no secret configured")
		}
		return v.secret, nil
	}
	if v.jwks != nil {
		return v.jwks.Keyfunc(token)
	}
	return nil, fmt.Errorf("no verification key for alg %v", token.Header["alg"])
}

// Verify 解析并校验 token，返回 sub 声明。
func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, v.keyFunc,
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512", "RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// Middleware 返回 JWT 鉴权中间件，期望 Authorization: Bearer <token>。
func (v *JWTVerifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "Bearer", "missing Authorization header")
				return
			}

			const prefix = "Bearer "
			if !strings.HasPrefix(authHeader, prefix) {
				writeAuthError(w, http.StatusUnauthorized, "Bearer", "invalid Authorization format, expected: Bearer <token>")
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
			if tokenString == "" {
				writeAuthError(w, http.StatusUnauthorized, "Bearer", "empty token")
				return
			}

			sub, err := v.Verify(tokenString)
			if err != nil {
				v.logger.Debug("token 校验失败", "error", err)
				writeAuthError(w, http.StatusUnauthorized, "Bearer", "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), sub)))
		})
	}
}
