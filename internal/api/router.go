package api

import (
	"net/http"

	"kvfiles/internal/config"
	kvmiddleware "kvfiles/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 构建 HTTP 路由，集中注册所有对外服务的端点。
// auth 为 nil 时列表接口不做鉴权（开发模式）。
func NewRouter(cfg *config.Config, listHandler *ListHandler, auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(kvmiddleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(kvmiddleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
	r.Use(kvmiddleware.Metrics())

	// 健康检查不需要鉴权
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheus 指标端点
	r.Handle("/metrics", promhttp.Handler())

	if listHandler != nil {
		r.Group(func(r chi.Router) {
			if auth != nil {
				r.Use(auth)
			}
			listHandler.RegisterRoutes(r)
		})
	}

	return r
}
