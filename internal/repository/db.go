package repository

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stockrx/importer/internal/entity"
)

type Config struct {
	DSN         string
	DialTimeout time.Duration
}

// Open connects to Postgres and migrates the pipeline's tables.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*gorm.DB, error) {
	log.Info("connecting to database")

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if cfg.DialTimeout > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			log.Error("database ping failed", "error", err)
			return nil, err
		}
	}

	if err := Migrate(db); err != nil {
		log.Error("migration failed", "error", err)
		return nil, err
	}

	log.Info("successfully connected to database")
	return db, nil
}

// Migrate creates or updates the pipeline's tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Medicine{},
		&entity.ImportTransaction{},
		&entity.StockCounter{},
	)
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB, log *slog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("failed to resolve sql.DB for close", "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("failed to close database", "error", err)
		return
	}
	log.Info("database connection closed")
}

// HealthCheck pings the store, bounded by timeout.
func HealthCheck(ctx context.Context, db *gorm.DB, timeout time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return sqlDB.PingContext(ctx)
}
