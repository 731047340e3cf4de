package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	dbmigrations "kvfiles/db/migrations"
)

const historyTable = "kvfiles_schema_migrations"

// Migration 是一个待执行的 up 脚本。
type Migration struct {
	Name string
	SQL  string
}

// Apply 按文件名顺序执行尚未应用的内嵌迁移，返回本次新应用的数量。
func Apply(ctx context.Context, db *sql.DB, logger *slog.Logger) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("nil database connection")
	}
	if logger == nil {
		logger = slog.Default()
	}

	pending, err := Load(dbmigrations.UpFiles)
	if err != nil {
		return 0, err
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+historyTable+` (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return 0, fmt.Errorf("ensure %s: %w", historyTable, err)
	}

	applied, err := appliedNames(ctx, db)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range pending {
		if applied[mig.Name] {
			continue
		}
		if err := applyOne(ctx, db, mig); err != nil {
			return count, err
		}
		logger.Info("migration applied", slog.String("name", mig.Name))
		count++
	}

	return count, nil
}

// Load 读取 fsys 根目录下的 *.up.sql，并按名称排序。
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migration files: %w", err)
	}

	var out []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		out = append(out, Migration{Name: name, SQL: string(data)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func appliedNames(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM `+historyTable)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", historyTable, err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", historyTable, err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func applyOne(ctx context.Context, db *sql.DB, mig Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return fmt.Errorf("apply migration %s: %w", mig.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO `+historyTable+` (name) VALUES ($1)`, mig.Name); err != nil {
		return fmt.Errorf("record migration %s: %w", mig.Name, err)
	}

	return tx.Commit()
}
