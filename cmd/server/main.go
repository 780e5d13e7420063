package main

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aromat/cashflow/internal/api"
	"github.com/aromat/cashflow/internal/config"
	"github.com/aromat/cashflow/internal/feed"
	"github.com/aromat/cashflow/internal/recompute"
	"github.com/aromat/cashflow/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Fatal("load timezone", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
	}

	log.Info("initializing database", zap.String("path", cfg.App.DBPath))
	db, err := repository.InitDB(cfg.App.DBPath)
	if err != nil {
		log.Fatal("init db", zap.Error(err))
	}
	defer db.Close()

	// Repositories.
	summaryRepo := repository.NewSummaryRepo(db)
	payoutRepo := repository.NewPayoutRepo(db)
	holidayRepo := repository.NewHolidayRepo(db)

	// Feed client and recompute service.
	feedClient := feed.NewClient(feed.Config{
		BaseURL:        cfg.Feed.BaseURL,
		APIKey:         cfg.Feed.APIKey,
		Password:       cfg.Feed.Password,
		PerPage:        cfg.Feed.PerPage,
		MaxPages:       cfg.Feed.MaxPages,
		RequestTimeout: cfg.Feed.RequestTimeout,
		MaxRetries:     uint64(cfg.Feed.MaxRetries),
	}, loc, log)

	reconSvc := recompute.NewService(
		feedClient, holidayRepo, summaryRepo, payoutRepo,
		loc, cfg.App.Currency, log,
	)

	router := api.NewRouter(reconSvc, summaryRepo, payoutRepo, holidayRepo, log)

	log.Info("payout engine listening",
		zap.String("port", cfg.App.Port),
		zap.String("feed", cfg.Feed.BaseURL),
		zap.String("timezone", cfg.App.Timezone),
		zap.String("currency", cfg.App.Currency))

	if err := http.ListenAndServe(":"+cfg.App.Port, router); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
