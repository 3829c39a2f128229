package capture

import (
	"context"
	"sync"
)

// orderLock is a 1-slot semaphore shared by all waiters of one order
type orderLock struct {
	sem  chan struct{}
	refs int
}

// KeyedLocker is an in-process ports.OrderLocker.
// It only serializes captures inside one process; use the postgres advisory locker
// when several instances share the database.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[int64]*orderLock
}

// NewKeyedLocker creates an empty in-process locker
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[int64]*orderLock)}
}

// Lock blocks until the order lock is held or ctx is done
func (l *KeyedLocker) Lock(ctx context.Context, orderID int64) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[orderID]
	if !ok {
		lk = &orderLock{sem: make(chan struct{}, 1)}
		l.locks[orderID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(orderID, lk)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.sem
			l.release(orderID, lk)
		})
	}, nil
}

// release drops a reference and forgets the entry once nobody waits on it
func (l *KeyedLocker) release(orderID int64, lk *orderLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, orderID)
	}
}

// size returns the number of tracked orders
func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
