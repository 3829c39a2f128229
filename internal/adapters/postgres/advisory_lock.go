package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

// captureLockNamespace is the first key of pg_advisory_lock(int4, int4)
const captureLockNamespace int32 = 0x424e504c // "BNPL"

var _ ports.OrderLocker = (*AdvisoryLocker)(nil)

// AdvisoryLocker implements ports.OrderLocker with session-level advisory locks.
// The lock lives on a dedicated pooled connection until unlock is called.
type AdvisoryLocker struct {
	pool   *pgxpool.Pool
	logger ports.Logger
}

// NewAdvisoryLocker creates a locker backed by pool
func NewAdvisoryLocker(pool *pgxpool.Pool, logger ports.Logger) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool, logger: logger}
}

// Lock blocks until the order lock is held or ctx is done
func (l *AdvisoryLocker) Lock(ctx context.Context, orderID int64) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	// Order ids are folded into int4; collisions only cost extra serialization.
	key := int32(orderID ^ (orderID >> 32))
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1, $2)", captureLockNamespace, key); err != nil {
		conn.Release()
		return nil, fmt.Errorf("advisory lock order %d: %w", orderID, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's ctx may already be cancelled; unlocking must still run.
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := conn.Exec(unlockCtx, "SELECT pg_advisory_unlock($1, $2)", captureLockNamespace, key); err != nil {
				l.logger.Error("advisory unlock failed, dropping connection",
					ports.Int64("order_id", orderID),
					ports.Err(err))
				// Closing the session releases every lock it holds
				_ = conn.Conn().Close(unlockCtx)
			}
			conn.Release()
		})
	}, nil
}
