package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"
	"sync"

	"kvfiles/internal/keystore"

	"github.com/tidwall/btree"
)

// Store 是基于有序 B 树的进程内 KeyStore，适用于开发环境与测试。
type Store struct {
	mu   sync.RWMutex
	keys *btree.Map[string, keystore.Key]
}

func New() *Store {
	return &Store{keys: btree.NewMap[string, keystore.Key](0)}
}

// Put 写入或覆盖一个 key，metadata 会被复制，调用方后续修改不影响已存数据。
func (s *Store) Put(key keystore.Key) {
	key.Metadata = maps.Clone(key.Metadata)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys.Set(key.Name, key)
}

// Len 返回当前条目数。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.Len()
}

// List 按名称字典序返回一页数据。
func (s *Store) List(ctx context.Context, opts keystore.ListOptions) (*keystore.Page, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	after, err := keystore.DecodeCursor(opts.Cursor)
	if err != nil {
		return nil, err
	}

	pivot := opts.Prefix
	if after > pivot {
		pivot = after
	}

	limit := opts.EffectiveLimit()
	page := &keystore.Page{ListComplete: true}

	s.mu.RLock()
	defer s.mu.RUnlock()

	s.keys.Ascend(pivot, func(name string, key keystore.Key) bool {
		if name == after {
			return true
		}
		if !strings.HasPrefix(name, opts.Prefix) {
			return false
		}
		if len(page.Keys) == limit {
			page.ListComplete = false
			page.Cursor = keystore.EncodeCursor(page.Keys[len(page.Keys)-1].Name)
			return false
		}
		key.Metadata = maps.Clone(key.Metadata)
		page.Keys = append(page.Keys, key)
		return true
	})

	return page, nil
}

// Load 从 JSON 数组（[{"name":..,"metadata":{..}}]）批量导入 key。
func (s *Store) Load(r io.Reader) (int, error) {
	var keys []keystore.Key
	if err := json.NewDecoder(r).Decode(&keys); err != nil {
		return 0, fmt.Errorf("decode seed keys: %w", err)
	}

	loaded := 0
	for _, key := range keys {
		if key.Name == "" {
			continue
		}
		s.Put(key)
		loaded++
	}
	return loaded, nil
}

// LoadFile 是 Load 的文件版本。
func (s *Store) LoadFile(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close()

	return s.Load(file)
}
