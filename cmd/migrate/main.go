package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"sample-logistics/internal/config"
	"sample-logistics/internal/db"
	"sample-logistics/internal/logging"
)

// migrate applies the embedded schema migrations. "migrate status" only reports
// the applied version.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(false).Fatal("config", zap.Error(err))
	}
	log := logging.New(cfg.IsDev())
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect", zap.Error(err))
	}
	pool.Close()
	log.Info("connect: success")

	if len(os.Args) > 1 && os.Args[1] == "status" {
		version, err := db.MigrationVersion(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("status", zap.Error(err))
		}
		log.Info("schema version", zap.Int64("version", version))
		return
	}

	before, err := db.MigrationVersion(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("status", zap.Error(err))
	}
	if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal("apply", zap.Error(err))
	}
	after, err := db.MigrationVersion(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("status", zap.Error(err))
	}
	log.Info("all migrations processed", zap.Int64("from", before), zap.Int64("to", after))
}
