package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/golang-cz/devslog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/siahsang/conduit/internal/auth"
	"github.com/siahsang/conduit/internal/config"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/database"
	"github.com/siahsang/conduit/internal/metrics"
	"github.com/siahsang/conduit/internal/ratelimit"
	"github.com/siahsang/conduit/internal/utils/databaseutils"
)

type application struct {
	config   *config.Config
	logger   *slog.Logger
	core     *core.Core
	auth     *auth.Auth
	metrics  metrics.Recorder
	gatherer prometheus.Gatherer
	limiter  *ratelimit.Limiter
	wg       sync.WaitGroup
}

func main() {
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := configLogger(cfg)
	logger.Info("Starting application...", "env", cfg.Env)

	db, err := database.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Error opening database connection", "error", err)
		os.Exit(1)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err)
		}
	}()

	if cfg.DB.Migrate {
		if err := database.RunMigrations(cfg.DB.DSN); err != nil {
			logger.Error("Error running migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("Database migrations applied")
	}

	sqlTemplate := databaseutils.NewSQLTemplate(db, cfg.DB.QueryTimeout)
	session := databaseutils.NewSession(db, logger)
	credentials := auth.New(cfg.JWT.Secret, cfg.JWT.TTL, cfg.BcryptCost)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "conduit"),
	)

	app := &application{
		config:   cfg,
		logger:   logger,
		core:     core.NewCore(db, logger, sqlTemplate, session, credentials),
		auth:     credentials,
		metrics:  metrics.NewCollector(registry),
		gatherer: registry,
	}
	if cfg.Limiter.Enabled {
		app.limiter = ratelimit.New(cfg.Limiter.RPS, cfg.Limiter.Burst)
	}

	if err := app.serve(); err != nil {
		logger.Error("Error running server", "error", err)
		os.Exit(1)
	}
}

func configLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	handler := devslog.NewHandler(
		os.Stdout, &devslog.Options{
			HandlerOptions: &slog.HandlerOptions{
				AddSource: true,
				Level:     slog.LevelDebug,
			},
			NewLineAfterLog: false,
		})

	return slog.New(handler)
}
