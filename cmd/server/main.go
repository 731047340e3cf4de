package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kvfiles/internal/api"
	"kvfiles/internal/config"
	"kvfiles/internal/logging"
	"kvfiles/internal/service"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	logger, logCloser := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("配置加载完成，开始启动服务", "kv_driver", cfg.KVDriver, "auth_mode", cfg.AuthMode)

	store, closeStore, err := buildKeyStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	auth, closeAuth, err := api.NewAuthenticator(cfg, logger)
	if err != nil {
		return fmt.Errorf("初始化鉴权失败: %w", err)
	}
	defer closeAuth()

	listService := service.NewListService(store, logger)
	router := api.NewRouter(cfg, api.NewListHandler(listService, logger), auth)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		// 统计请求需要遍历全部 key，写超时放宽
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		Handler:      router,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("服务监听端口", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("监听失败: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("收到退出信号", "signal", sig.String())
		case <-gCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("优雅关闭失败", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("服务已停止")
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "kvfiles",
		Usage:  "Paginated listing and statistics over a key-value file index",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional YAML config file layered over the environment",
				Sources: cli.EnvVars("KVFILES_CONFIG"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
