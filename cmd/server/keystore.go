package main

import (
	"context"
	"fmt"
	"log/slog"

	"kvfiles/internal/config"
	"kvfiles/internal/database"
	"kvfiles/internal/keystore"
	"kvfiles/internal/keystore/consul"
	"kvfiles/internal/keystore/memory"
	"kvfiles/internal/keystore/natskv"
	"kvfiles/internal/keystore/postgres"
	"kvfiles/internal/keystore/s3"
)

// buildKeyStore 按 KV_DRIVER 构造存储后端，返回的 close 在退出时调用。
func buildKeyStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (keystore.KeyStore, func(), error) {
	noop := func() {}

	switch cfg.KVDriver {
	case config.DriverMemory:
		store := memory.New()
		if cfg.KVSeedFile != "" {
			n, err := store.LoadFile(cfg.KVSeedFile)
			if err != nil {
				return nil, noop, fmt.Errorf("导入种子数据失败: %w", err)
			}
			logger.Info("内存存储已导入种子数据", "file", cfg.KVSeedFile, "keys", n)
		}
		return store, noop, nil

	case config.DriverPostgres:
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("连接数据库失败: %w", err)
		}
		return postgres.New(db, logger), func() { _ = db.Close() }, nil

	case config.DriverNATS:
		store, err := natskv.Dial(ctx, natskv.Config{URL: cfg.NATSURL, Bucket: cfg.NATSBucket, Logger: logger})
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	case config.DriverConsul:
		store, err := consul.New(consul.Config{
			Address:    cfg.ConsulAddress,
			Token:      cfg.ConsulToken,
			Datacenter: cfg.ConsulDatacenter,
			Root:       cfg.ConsulPrefix,
			Logger:     logger,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case config.DriverS3:
		store, err := s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
			Logger:    logger,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown kv driver %q", cfg.KVDriver)
	}
}
