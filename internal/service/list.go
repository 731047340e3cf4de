package service

import (
	"context"
	"errors"
	"log/slog"

	"kvfiles/internal/catalog"
	"kvfiles/internal/keystore"
)

// ListResponse 是列表接口的响应体：存储的分页信封 + 规范化后的 keys，
// 以及按需附带的全量统计。cursor 与 list_complete 原样透传，存储没有给出游标时省略 cursor。
type ListResponse struct {
	Keys         []keystore.Key `json:"keys"`
	ListComplete bool           `json:"list_complete"`
	Cursor       string         `json:"cursor,omitempty"`
	PageCount    int            `json:"pageCount"`
	Stats        *catalog.Stats `json:"stats,omitempty"`
}

// ListService 编排单页列表与可选的全量统计。
type ListService struct {
	paginator *Paginator
	stats     *StatsAggregator
	logger    *slog.Logger
}

func NewListService(store keystore.KeyStore, logger *slog.Logger) *ListService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListService{
		paginator: NewPaginator(store),
		stats:     NewStatsAggregator(store, logger),
		logger:    logger,
	}
}

// List 先读取一页；IncludeStats 为 true 时再对整个 key 空间做一次统计扫描。
// 统计的成本与 key 总数成正比，因此必须由调用方显式开启。
func (s *ListService) List(ctx context.Context, params ListParams) (*ListResponse, error) {
	if s == nil || s.paginator == nil {
		return nil, errors.New("list service not initialized")
	}

	page, err := s.paginator.Fetch(ctx, PageRequest{
		Limit:   params.Limit,
		Cursor:  params.Cursor,
		Prefix:  params.Prefix,
		Storage: params.Storage,
	})
	if err != nil {
		return nil, err
	}

	resp := &ListResponse{
		Keys:         page.Keys,
		ListComplete: page.ListComplete,
		Cursor:       page.Cursor,
		PageCount:    page.PageCount,
	}

	if params.IncludeStats {
		stats, err := s.stats.Aggregate(ctx, params.Prefix, params.Storage)
		if err != nil {
			return nil, err
		}
		resp.Stats = stats
	}

	return resp, nil
}
