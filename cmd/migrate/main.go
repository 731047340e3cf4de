package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"kvfiles/internal/config"
	"kvfiles/internal/database"
	"kvfiles/internal/logging"
	"kvfiles/internal/migrations"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer logCloser.Close()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	applied, err := migrations.Apply(ctx, db, logger)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	logger.Info("migrations applied", "count", applied)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "kvfiles-migrate",
		Usage:  "Apply the embedded kv_keys schema migrations",
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
		slog.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
