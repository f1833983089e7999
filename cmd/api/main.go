// Package main is the entrypoint for the graphcrm API server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/graphcrm/graphcrm/internal/app"
	"github.com/graphcrm/graphcrm/internal/auth"
	"github.com/graphcrm/graphcrm/internal/clock"
	"github.com/graphcrm/graphcrm/internal/config"
	"github.com/graphcrm/graphcrm/internal/graph"
	"github.com/graphcrm/graphcrm/internal/handler"
	"github.com/graphcrm/graphcrm/internal/metrics"
	"github.com/graphcrm/graphcrm/internal/server"
	"github.com/graphcrm/graphcrm/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, os.Stdout)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	cacheClient, err := app.OpenCache(ctx, cfg, logger)
	if err != nil {
		store.Close()
		return err
	}

	recorder := metrics.NewInMemory()
	crm := service.NewCRMService(store, clock.NewRealClock(), recorder)

	schema, err := graph.NewSchema(graph.Config{
		CRM:               crm,
		Logger:            logger,
		LowStockThreshold: cfg.LowStockThreshold,
		RestockAmount:     cfg.RestockAmount,
	})
	if err != nil {
		store.Close()
		return err
	}

	deps := app.RouterDeps{
		Config:  cfg,
		Logger:  logger,
		Version: version,
		Schema:  schema,
		Metrics: recorder,
	}
	if cacheClient != nil {
		deps.Health = handler.NewHealthHandler(store, cacheClient)
		deps.Limiter = cacheClient
	} else {
		deps.Health = handler.NewHealthHandler(store, nil)
	}
	if cfg.APIKeyHash != "" {
		verifier, err := auth.NewVerifier(cfg.APIKeyHash)
		if err != nil {
			store.Close()
			return err
		}
		deps.Verifier = verifier
		logger.Info("API key authentication enabled")
	}

	srv := server.New(app.NewRouter(deps), server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered first, closed last.
	srv.OnShutdown("database", func(context.Context) error {
		store.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	if cfg.EmbedScheduler {
		sched, err := newScheduler(cfg, crm, cacheClient, recorder, logger)
		if err != nil {
			store.Close()
			return err
		}
		if err := sched.Start(ctx); err != nil {
			store.Close()
			return err
		}
		srv.OnShutdown("scheduler", sched.Stop)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"version", version,
		"embedded_scheduler", cfg.EmbedScheduler,
	)

	return srv.Run(ctx)
}
