// Package natskv 把 NATS JetStream KeyValue bucket 适配为 keystore.KeyStore。
//
// JetStream 的 key 只允许 [-/_=.a-zA-Z0-9]，而文件名里常见 ':'，
// 因此 bucket 中的 key 是原始名称的 base64url 编码，value 是 keystore.Key 的 JSON。
package natskv

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"kvfiles/internal/keystore"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config 描述连接 JetStream KV 所需的参数。
type Config struct {
	URL    string
	Bucket string
	Logger *slog.Logger
}

type bucket interface {
	keys(ctx context.Context) ([]string, error)
	value(ctx context.Context, key string) ([]byte, bool, error)
}

// Store 实现 keystore.KeyStore。
type Store struct {
	bucket bucket
	conn   *nats.Conn
	logger *slog.Logger
}

// Dial 连接 NATS 并打开已存在的 bucket。
func Dial(ctx context.Context, cfg Config) (*Store, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("kvfiles"))
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("init jetstream: %w", err)
	}

	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open kv bucket %s: %w", cfg.Bucket, err)
	}

	return &Store{bucket: &jsBucket{kv: kv}, conn: conn, logger: cfg.Logger}, nil
}

// Close 断开底层连接。
func (s *Store) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

// List 列出 bucket 全部 key，排序后按游标切出一页，再逐个读取 value。
// JetStream 没有服务端分页，每页都要重新枚举 key 集合。
func (s *Store) List(ctx context.Context, opts keystore.ListOptions) (*keystore.Page, error) {
	if s == nil || s.bucket == nil {
		return nil, fmt.Errorf("nats keystore uninitialized")
	}

	encoded, err := s.bucket.keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bucket keys: %w", err)
	}

	byName := make(map[string]string, len(encoded))
	names := make([]string, 0, len(encoded))
	for _, key := range encoded {
		name, ok := DecodeName(key)
		if !ok {
			continue
		}
		byName[name] = key
		names = append(names, name)
	}
	sort.Strings(names)

	window, next, complete, err := keystore.Window(names, opts)
	if err != nil {
		return nil, err
	}

	page := &keystore.Page{Cursor: next, ListComplete: complete}
	for _, name := range window {
		raw, found, err := s.bucket.value(ctx, byName[name])
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", name, err)
		}
		if !found {
			continue
		}

		key := keystore.Key{Name: name}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &key); err != nil {
				key = keystore.UndecodableKey(s.logger, name, err)
			}
			key.Name = name
		}
		page.Keys = append(page.Keys, key)
	}

	return page, nil
}

// EncodeName 把文件名转换为合法的 JetStream key。
func EncodeName(name string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(name))
}

// DecodeName 是 EncodeName 的逆操作。
func DecodeName(key string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

type jsBucket struct {
	kv jetstream.KeyValue
}

func (b *jsBucket) keys(ctx context.Context) ([]string, error) {
	lister, err := b.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, err
	}
	defer lister.Stop() //nolint:errcheck

	var out []string
	for key := range lister.Keys() {
		out = append(out, key)
	}
	return out, nil
}

func (b *jsBucket) value(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := b.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry.Value(), true, nil
}
