package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/bnpl-service/internal/adapters/database"
	"github.com/kevin07696/bnpl-service/internal/adapters/postgres"
	"github.com/kevin07696/bnpl-service/pkg/logging"
)

var (
	flags     = flag.NewFlagSet("migrate", flag.ExitOnError)
	dsn       = flags.String("dsn", "", "PostgreSQL connection string (default: built from DB_* variables)")
	printOnly = flags.Bool("print", false, "print the schema instead of applying it")
	timeout   = flags.Duration("timeout", 30*time.Second, "time allowed for the whole migration")
)

func main() {
	flags.Usage = usage
	_ = flags.Parse(os.Args[1:])

	if *printOnly {
		fmt.Print(postgres.Schema)
		return
	}

	logger, err := logging.NewLogger(getEnv("LOG_LEVEL", "info"), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	connString := *dsn
	if connString == "" {
		connString = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "bnpl_service"),
			getEnv("DB_SSL_MODE", "disable"),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg := database.DefaultPoolConfig(connString)
	cfg.MaxConns = 2
	cfg.MinConns = 1
	pool, err := database.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
	logger.Info("Schema applied")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func usage() {
	fmt.Print(`Usage: migrate [flags]

Applies the connector schema. Every statement is idempotent, so running it
against an up-to-date database is a no-op.

Flags:
`)
	flags.PrintDefaults()
}
