package testdb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kevin07696/bnpl-service/internal/adapters/postgres"
)

// TestDBConfig holds test database configuration
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// GetTestDBConfig returns test database configuration from environment or defaults
func GetTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnv("TEST_DB_PORT", "5434"),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "bnpl_service_test"),
	}
}

// SetupTestDB connects to the test database, applies the schema and empties every table.
// The test is skipped when no database is reachable.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	cfg := GetTestDBConfig()

	connString := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		t.Fatalf("Failed to parse database config: %v", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Skipf("Could not create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("Could not ping test database: %v", err)
	}

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	CleanDatabase(t, pool)
	t.Cleanup(pool.Close)

	return pool
}

// CleanDatabase truncates all tables for a fresh test state
func CleanDatabase(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	const truncate = `TRUNCATE TABLE
	    provider_refund_records, provider_capture_records, provider_order_references,
	    sales_invoice_item, sales_invoice, sales_creditmemo_item, sales_creditmemo,
	    sales_order_status_history, sales_shipment_track, sales_order_item, sales_order,
	    quote, catalog_product_image
	RESTART IDENTITY CASCADE`
	if _, err := pool.Exec(context.Background(), truncate); err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
