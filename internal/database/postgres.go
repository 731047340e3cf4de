package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kvfiles/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Connect 打开 kv_keys 所在的 PostgreSQL 连接池并做一次 ping。
// 列表与统计都是只读的顺序扫描，连接数不需要很大。
func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns / 2)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres %s:%d: %w", cfg.DBHost, cfg.DBPort, err)
	}

	return db, nil
}
