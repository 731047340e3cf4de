package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"kvfiles/internal/keystore"
	"kvfiles/internal/middleware"
	"kvfiles/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Lister 是列表处理器依赖的服务能力。
type Lister interface {
	List(ctx context.Context, params service.ListParams) (*service.ListResponse, error)
}

// ListHandler 提供 key 列表与统计的 HTTP 端点。
type ListHandler struct {
	service Lister
	logger  *slog.Logger
}

func NewListHandler(s Lister, logger *slog.Logger) *ListHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListHandler{service: s, logger: logger}
}

func (h *ListHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/manage/list", h.List)
}

// List 返回一页规范化后的 key；includeStats 为真时附带全量统计。
func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		writeError(w, http.StatusInternalServerError, "handler not initialized")
		return
	}

	params := service.ParseListParams(r.URL.Query())
	resp, err := h.service.List(r.Context(), params)
	if err != nil {
		h.writeListError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ListHandler) writeListError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, keystore.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, "invalid cursor")
	case errors.Is(err, context.Canceled):
		// 客户端已断开，不再写响应体
		h.logger.Debug("列表请求被取消", "request_id", chimiddleware.GetReqID(r.Context()))
	default:
		h.logger.Error("列表请求失败",
			"request_id", chimiddleware.GetReqID(r.Context()),
			"principal", middleware.GetPrincipal(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "failed to list keys")
	}
}
