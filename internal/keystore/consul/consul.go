package consul

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"kvfiles/internal/keystore"

	"github.com/hashicorp/consul/api"
)

// Config 包含连接 Consul KV 的配置。
type Config struct {
	// Address 默认 "127.0.0.1:8500"
	Address    string
	Token      string
	Datacenter string
	// Root 是所有文件 key 的公共前缀，默认 "kvfiles/"
	Root string

	Logger *slog.Logger
}

type kvLister interface {
	List(prefix string, q *api.QueryOptions) (api.KVPairs, *api.QueryMeta, error)
}

// Store 实现 keystore.KeyStore，value 为 keystore.Key 的 JSON。
type Store struct {
	kv     kvLister
	root   string
	logger *slog.Logger
}

// New 创建 Consul 客户端。Consul 客户端本身无状态，不需要显式关闭。
func New(cfg Config) (*Store, error) {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8500"
	}
	if cfg.Root == "" {
		cfg.Root = "kvfiles/"
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = cfg.Address
	if cfg.Token != "" {
		clientConfig.Token = cfg.Token
	}
	if cfg.Datacenter != "" {
		clientConfig.Datacenter = cfg.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &Store{kv: client.KV(), root: cfg.Root, logger: cfg.Logger}, nil
}

// List 一次性取回 root+prefix 下的全部条目，再按游标切页。
// Consul 返回的 KVPairs 已按 key 排序。
func (s *Store) List(ctx context.Context, opts keystore.ListOptions) (*keystore.Page, error) {
	if s == nil || s.kv == nil {
		return nil, fmt.Errorf("consul keystore uninitialized")
	}

	q := (&api.QueryOptions{}).WithContext(ctx)
	pairs, _, err := s.kv.List(s.root+opts.Prefix, q)
	if err != nil {
		return nil, fmt.Errorf("consul kv list: %w", err)
	}

	names := make([]string, 0, len(pairs))
	values := make(map[string][]byte, len(pairs))
	for _, pair := range pairs {
		if pair == nil {
			continue
		}
		name := strings.TrimPrefix(pair.Key, s.root)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		names = append(names, name)
		values[name] = pair.Value
	}

	window, next, complete, err := keystore.Window(names, opts)
	if err != nil {
		return nil, err
	}

	page := &keystore.Page{Cursor: next, ListComplete: complete}
	for _, name := range window {
		key := keystore.Key{Name: name}
		if raw := values[name]; len(raw) > 0 {
			if err := json.Unmarshal(raw, &key); err != nil {
				key = keystore.UndecodableKey(s.logger, name, err)
			}
			key.Name = name
		}
		page.Keys = append(page.Keys, key)
	}

	return page, nil
}
