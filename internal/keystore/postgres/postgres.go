package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"kvfiles/internal/keystore"
)

// Store 在 kv_keys 表上实现 keystore.KeyStore，使用 keyset 分页。
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New 返回基于 *sql.DB（pgx 驱动）的实现。
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

var keySelectColumns = []string{
	"name",
	"metadata",
	"expiration",
}

// List 读取 name 大于游标位置、且匹配 prefix 的下一页。
// 多取一行用于判断是否还有后续数据。
func (s *Store) List(ctx context.Context, opts keystore.ListOptions) (*keystore.Page, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("postgres keystore uninitialized")
	}

	after, err := keystore.DecodeCursor(opts.Cursor)
	if err != nil {
		return nil, err
	}

	limit := opts.EffectiveLimit()
	query := fmt.Sprintf(`SELECT %s FROM kv_keys
	WHERE name LIKE $1 ESCAPE '\' AND name > $2
	ORDER BY name
	LIMIT $3`, strings.Join(keySelectColumns, ","))

	rows, err := s.db.QueryContext(ctx, query, likePrefix(opts.Prefix), after, limit+1)
	if err != nil {
		return nil, fmt.Errorf("query kv_keys: %w", err)
	}
	defer rows.Close()

	page := &keystore.Page{ListComplete: true}
	for rows.Next() {
		key, err := scanKey(rows, s.logger)
		if err != nil {
			return nil, err
		}
		if len(page.Keys) == limit {
			page.ListComplete = false
			page.Cursor = keystore.EncodeCursor(page.Keys[len(page.Keys)-1].Name)
			break
		}
		page.Keys = append(page.Keys, *key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kv_keys: %w", err)
	}

	return page, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanKey 只在行读取失败时报错；metadata 不是合法 JSON 对象时丢弃 metadata。
func scanKey(rs rowScanner, logger *slog.Logger) (*keystore.Key, error) {
	var (
		key        keystore.Key
		metadata   []byte
		expiration sql.NullInt64
	)

	if err := rs.Scan(&key.Name, &metadata, &expiration); err != nil {
		return nil, fmt.Errorf("scan kv_keys: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &key.Metadata); err != nil {
			key = keystore.UndecodableKey(logger, key.Name, err)
		}
	}
	if expiration.Valid {
		key.Expiration = &expiration.Int64
	}

	return &key, nil
}

// likePrefix 把 prefix 转义为 LIKE 模式，避免 % 与 _ 被当作通配符。
func likePrefix(prefix string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(prefix) + "%"
}
