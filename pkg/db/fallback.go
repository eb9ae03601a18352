package db

import (
	"fmt"
	"io"
	"log"

	"github.com/hometechhq/installr-backend/pkg/config"
	"github.com/hometechhq/installr-backend/pkg/db/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenFallback opens the local fallback ledger, a sqlite file that survives
// process restarts. It is durable on this node only; losing the node before
// reconciliation loses the records it still holds.
func OpenFallback(cfg config.FallbackConfig) (*gorm.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("fallback ledger path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening fallback ledger: %w", err)
	}

	if err := conn.AutoMigrate(&models.FallbackOrder{}); err != nil {
		return nil, fmt.Errorf("migrating fallback ledger: %w", err)
	}

	return conn, nil
}
