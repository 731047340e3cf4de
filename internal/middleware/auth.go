package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// principalContextKey 是存储在 context 中的调用方标识的键。
type principalContextKey struct{}

// APIKeyAuth 创建 API Key 鉴权中间件。
// 支持两种请求头：
//   - Authorization: ApiKey <token>
//   - X-API-Key: <token>
//
// 验证成功后将 API Key 作为调用方标识存入 context。
func APIKeyAuth(validKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(validKeys))
	for _, key := range validKeys {
		trimmed := strings.TrimSpace(key)
		if trimmed != "" {
			keys = append(keys, []byte(trimmed))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, msg := extractAPIKey(r)
			if msg != "" {
				writeAuthError(w, http.StatusUnauthorized, "ApiKey", msg)
				return
			}

			if !containsKey(keys, apiKey) {
				writeAuthError(w, http.StatusUnauthorized, "ApiKey", "invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), apiKey)))
		})
	}
}

func extractAPIKey(r *http.Request) (string, string) {
	if header := strings.TrimSpace(r.Header.Get("X-API-Key")); header != "" {
		return header, ""
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "missing Authorization header"
	}

	const prefix = "ApiKey "
	if !strings.HasPrefix(authHeader, prefix) {
		return "", "invalid Authorization format, expected: ApiKey <token>"
	}

	apiKey := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	if apiKey == "" {
		return "", "empty API key"
	}
	return apiKey, ""
}

func containsKey(keys [][]byte, candidate string) bool {
	found := false
	for _, key := range keys {
		if subtle.ConstantTimeCompare(key, []byte(candidate)) == 1 {
			found = true
		}
	}
	return found
}

// WithPrincipal 返回携带调用方标识的 context。
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// GetPrincipal 从 context 中获取经过鉴权的调用方标识。
func GetPrincipal(ctx context.Context) string {
	if v, ok := ctx.Value(principalContextKey{}).(string); ok {
		return v
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, scheme, message string) {
	w.Header().Set("WWW-Authenticate", scheme+` realm="kvfiles"`)
	writeJSONError(w, status, message)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
