package keystore

import (
	"context"
	"errors"
	"log/slog"
)

// MaxPageSize 是单次 List 调用允许返回的最大条目数。
const MaxPageSize = 1000

// ErrInvalidCursor 表示调用方传入的游标无法被当前存储识别。
var ErrInvalidCursor = errors.New("keystore: invalid cursor")

// Key 代表 KV 命名空间中的一个条目，通常对应一个已上传的文件。
type Key struct {
	Name       string         `json:"name"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Expiration *int64         `json:"expiration,omitempty"`
}

// ListOptions 描述一次分页请求。
type ListOptions struct {
	Limit  int
	Cursor string
	Prefix string
}

// Page 是一次 List 调用的返回结果。
// ListComplete 为 false 时 Cursor 可用于获取下一页。
type Page struct {
	Keys         []Key
	Cursor       string
	ListComplete bool
}

// KeyStore 是只读的分页列举原语，所有后端实现都需满足该接口。
type KeyStore interface {
	List(ctx context.Context, opts ListOptions) (*Page, error)
}

// UndecodableKey 记录值无法解析的条目，并返回不带 metadata 的 Key。
// 这样的 key 仍占据分页位置，但会被有效性过滤排除，不会让整页失败。
func UndecodableKey(logger *slog.Logger, name string, err error) Key {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("key value undecodable, metadata dropped",
		slog.String("key", name),
		slog.String("error", err.Error()))
	return Key{Name: name}
}

// EffectiveLimit 把非正数或超出上限的 limit 规整到 [1, MaxPageSize]。
func (o ListOptions) EffectiveLimit() int {
	if o.Limit <= 0 || o.Limit > MaxPageSize {
		return MaxPageSize
	}
	return o.Limit
}
