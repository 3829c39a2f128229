package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig("host=localhost")
	assert.Equal(t, int32(25), cfg.MaxConns)
	assert.Equal(t, int32(5), cfg.MinConns)
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
}

func TestPoolUtilization(t *testing.T) {
	assert.Equal(t, 0.0, PoolUtilization(3, 0))
	assert.Equal(t, 50.0, PoolUtilization(5, 10))
	assert.Equal(t, 100.0, PoolUtilization(25, 25))
}

func TestNewPool_InvalidConnString(t *testing.T) {
	_, err := NewPool(context.Background(), DefaultPoolConfig("postgres://%zz"), zap.NewNop())
	require.Error(t, err)
}

// TestNewPool requires a real database connection
func TestNewPool(t *testing.T) {
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, DefaultPoolConfig(connString), zap.NewNop())
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, pool.Ping(ctx))
}
