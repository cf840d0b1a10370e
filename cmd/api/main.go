package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hirelink/hirelink/internal/alerts"
	"github.com/hirelink/hirelink/internal/api"
	"github.com/hirelink/hirelink/internal/collab"
	"github.com/hirelink/hirelink/internal/config"
	"github.com/hirelink/hirelink/internal/db"
	"github.com/hirelink/hirelink/internal/fees"
	"github.com/hirelink/hirelink/internal/ledger"
	"github.com/hirelink/hirelink/internal/project"
	"github.com/hirelink/hirelink/internal/users"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	engine, err := fees.NewEngine(cfg.FeeTiers)
	if err != nil {
		logger.Error("build fee engine", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	led := ledger.New(ledger.NewPostgresStore(pool), cfg.PlatformAccountID)

	var notifier collab.Notifier
	if cfg.RedisAddr != "" {
		sink := alerts.NewSink(cfg.RedisAddr)
		defer sink.Close()
		notifier = sink

		go func() {
			if err := alerts.RunProcessor(cfg.RedisAddr, logger); err != nil {
				logger.Error("alerts processor stopped", "error", err)
			}
		}()
	}

	svc := collab.NewService(
		collab.NewPostgresStore(pool),
		project.NewPostgresStore(pool),
		users.NewPostgresDirectory(pool),
		engine,
		led,
		notifier,
		collab.Options{
			SinglePerProject:  cfg.SinglePerProject,
			DependencyTimeout: cfg.DependencyTimeout,
			Logger:            logger,
		},
	)

	if swept, err := svc.SweepOrphanedHolds(ctx); err != nil {
		logger.Error("sweep orphaned holds", "error", err)
		os.Exit(1)
	} else if swept > 0 {
		logger.Warn("refunded orphaned escrow holds from a prior crash", "count", swept)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	api.Register(e, api.NewHandler(svc, led, logger), cfg.JWTSecret)

	logger.Info("starting api", "port", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
