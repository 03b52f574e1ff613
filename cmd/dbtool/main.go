package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"roadtrip-planner/internal/adapters/repositories"
	"roadtrip-planner/internal/config"
	"roadtrip-planner/internal/platform/db"
	"roadtrip-planner/internal/platform/obs"
	"strings"

	"github.com/joho/godotenv"
)

func main() {
	logger := newLogger()
	if err := run(logger); err != nil {
		obs.LogError(logger, "dbtool failed", err)
		os.Exit(1)
	}
}

// newLogger loads .env before reading LOG_LEVEL so the file can set it.
func newLogger() *slog.Logger {
	envErr := godotenv.Load()

	logger := obs.NewLogger(os.Stdout, obs.ParseLevel(config.Get("LOG_LEVEL", "info")))
	if envErr != nil {
		logger.Info("no .env file found (using environment variables)")
	}
	return logger
}

func run(logger *slog.Logger) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/trips.json")
	if err := initAndSeed(logger, conn.DB, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	return nil
}

func initAndSeed(logger *slog.Logger, db *sql.DB, seedPath string) error {
	logger.Info("initializing database schema")
	if err := repositories.InitSchema(db); err != nil {
		return err
	}
	logger.Info("schema ready")

	logger.Info("seeding database", slog.String("seed_path", seedPath))
	if err := repositories.SeedFromJSON(db, seedPath); err != nil {
		return err
	}
	logger.Info("seeding complete")

	return nil
}
