package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"marketplace-be/internal/logger"
	"marketplace-be/migrations"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

var supportedModes = map[string]bool{
	"up":      true,
	"down":    true,
	"status":  true,
	"version": true,
	"reset":   true,
}

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	mode := flag.String("mode", "up", "migration mode: up, down, status, version or reset")
	flag.Parse()

	log := logger.L()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL not set in environment")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("failed to connect db", zap.Error(err))
	}
	defer db.Close()

	if err := run(context.Background(), db, *mode); err != nil {
		log.Fatal("migration failed", zap.String("mode", *mode), zap.Error(err))
	}
	log.Info("migration finished", zap.String("mode", *mode))
}

func validateMode(mode string) error {
	if !supportedModes[mode] {
		return fmt.Errorf("unknown mode: %s (use up, down, status, version or reset)", mode)
	}
	return nil
}

func configure() error {
	goose.SetBaseFS(migrations.FS)
	return goose.SetDialect("postgres")
}

func run(ctx context.Context, db *sql.DB, mode string) error {
	if err := validateMode(mode); err != nil {
		return err
	}
	if err := configure(); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	return goose.RunContext(ctx, mode, db, ".")
}
