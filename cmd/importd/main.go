package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/draft"
	"github.com/stockrx/importer/internal/enrich"
	"github.com/stockrx/importer/internal/export"
	"github.com/stockrx/importer/internal/extract"
	"github.com/stockrx/importer/internal/genai"
	"github.com/stockrx/importer/internal/pipeline"
	"github.com/stockrx/importer/internal/reconcile"
	"github.com/stockrx/importer/internal/repository"
	"github.com/stockrx/importer/internal/search"
	"github.com/stockrx/importer/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.Database.DSN,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("database startup failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, lock and invalidation disabled", "error", err)
			rdb = nil
		}
	}

	client := genai.NewClient(genai.Config{
		BaseURL:     cfg.GenAI.BaseURL,
		APIKey:      cfg.GenAI.APIKey,
		TextModel:   cfg.GenAI.TextModel,
		VisionModel: cfg.GenAI.VisionModel,
		Timeout:     cfg.GenAI.Timeout,
	}, logger)

	inventory := repository.NewInventoryRepository(db, logger)
	importTx := repository.NewImportTxRepository(db, logger)

	processor := pipeline.NewProcessor(
		extract.NewValidator(cfg.Pipeline.MaxUploadBytes, logger),
		extract.NewExtractor(
			extract.NewTabularExtractor(cfg.Pipeline.MaxItemsPerDoc, logger),
			extract.NewVisionExtractor(client, cfg.Pipeline.MaxItemsPerDoc, cfg.Pipeline.EnhanceVisionInput, logger),
		),
		reconcile.NewReconciler(logger),
		enrich.NewEnricher(client, enrich.NewFixedDelayPacer(cfg.Pipeline.EnrichDelay), logger),
		draft.NewGate(cfg.Pipeline.NewRecordCap, logger),
		inventory,
		importTx,
		search.NewInvalidator(rdb, logger),
		logger,
	)

	handler := server.NewImportHandler(
		processor,
		export.NewService(inventory, logger),
		server.NewImportLocker(rdb, cfg.Pipeline.ImportLockTTL, logger),
		cfg.Pipeline.MaxUploadBytes,
		logger,
	)

	router := server.NewRouter(handler, func(ctx context.Context) error {
		return repository.HealthCheck(ctx, db, cfg.Database.DialTimeout)
	}, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
