package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kvfiles/internal/catalog"
	"kvfiles/internal/keystore"

	"github.com/google/uuid"
)

const (
	// StatsPageSize 是全量扫描时每页请求的 key 数量。
	StatsPageSize = keystore.MaxPageSize
	// MaxStatsPages 是单次扫描的最大分页次数，防止存储永不报告完成。
	MaxStatsPages = 10000
)

// StatsAggregator 顺序遍历整个（过滤后的）key 空间并累加计数。
// 游标是有状态的续页令牌，不能并行推进，所以分页严格串行。
type StatsAggregator struct {
	store    keystore.KeyStore
	logger   *slog.Logger
	maxPages int
}

func NewStatsAggregator(store keystore.KeyStore, logger *slog.Logger) *StatsAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsAggregator{store: store, logger: logger, maxPages: MaxStatsPages}
}

// Aggregate 与调用方的 limit/cursor 无关，总是从头扫描 prefix 下的全部 key。
// 任何一页读取失败都会中止扫描，不返回部分结果。
func (a *StatsAggregator) Aggregate(ctx context.Context, prefix, storageFilter string) (*catalog.Stats, error) {
	if a == nil || a.store == nil {
		return nil, errors.New("stats aggregator not initialized")
	}

	scanID := uuid.NewString()
	logger := a.logger.With(slog.String("scan_id", scanID))
	logger.Debug("stats scan started",
		slog.String("prefix", prefix),
		slog.String("storage", storageFilter))

	started := time.Now()
	stats := &catalog.Stats{}
	cursor := ""
	pages := 0
	outcome := outcomeComplete

	for {
		keyStorePages.WithLabelValues(callerStats).Inc()
		page, err := a.store.List(ctx, keystore.ListOptions{
			Limit:  StatsPageSize,
			Cursor: cursor,
			Prefix: prefix,
		})
		if err != nil {
			statsScans.WithLabelValues(outcomeError).Inc()
			logger.Error("stats scan aborted",
				slog.Int("pages", pages),
				slog.String("error", err.Error()))
			return nil, err
		}
		pages++

		for _, key := range page.Keys {
			normalized, ok := catalog.Select(key, storageFilter)
			if !ok {
				continue
			}
			stats.Add(catalog.Classification(normalized))
		}

		cursor = page.Cursor
		if page.ListComplete {
			cursor = ""
		}
		if cursor == "" {
			break
		}
		if pages >= a.maxPages {
			outcome = outcomeGuard
			logger.Warn("stats scan stopped by page guard",
				slog.Int("pages", pages),
				slog.String("prefix", prefix))
			break
		}
	}

	statsScans.WithLabelValues(outcome).Inc()
	statsScanPages.Observe(float64(pages))
	logger.Debug("stats scan finished",
		slog.Int("pages", pages),
		slog.Int("total", stats.Total),
		slog.Duration("elapsed", time.Since(started)))

	return stats, nil
}
