package service

import (
	"context"
	"errors"

	"kvfiles/internal/catalog"
	"kvfiles/internal/keystore"
)

// PageRequest 是单页列表请求。
type PageRequest struct {
	Limit   int
	Cursor  string
	Prefix  string
	Storage string
}

// PageResult 是过滤、规范化后的单页结果，保留存储返回的游标与完成标记。
type PageResult struct {
	Keys         []keystore.Key
	Cursor       string
	ListComplete bool
	PageCount    int
}

// Paginator 对 KeyStore 发起且仅发起一次分页读取。
type Paginator struct {
	store keystore.KeyStore
}

func NewPaginator(store keystore.KeyStore) *Paginator {
	return &Paginator{store: store}
}

// Fetch 读取一页并依次应用有效性过滤、规范化、存储过滤。
// 存储返回的错误原样向上传递。
func (p *Paginator) Fetch(ctx context.Context, req PageRequest) (*PageResult, error) {
	if p == nil || p.store == nil {
		return nil, errors.New("paginator not initialized")
	}

	keyStorePages.WithLabelValues(callerPage).Inc()
	page, err := p.store.List(ctx, keystore.ListOptions{
		Limit:  req.Limit,
		Cursor: req.Cursor,
		Prefix: req.Prefix,
	})
	if err != nil {
		return nil, err
	}

	keys := make([]keystore.Key, 0, len(page.Keys))
	for _, key := range page.Keys {
		if normalized, ok := catalog.Select(key, req.Storage); ok {
			keys = append(keys, normalized)
		}
	}

	return &PageResult{
		Keys:         keys,
		Cursor:       page.Cursor,
		ListComplete: page.ListComplete,
		PageCount:    len(keys),
	}, nil
}
