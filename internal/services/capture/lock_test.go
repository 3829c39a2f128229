package capture

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocker_ImplementsOrderLocker(t *testing.T) {
	var locker ports.OrderLocker = NewKeyedLocker()
	unlock, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, unlock)
	unlock()
}

func TestKeyedLocker_SerializesSameOrder(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, 1)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		unlock2, err := locker.Lock(ctx, 1)
		if err == nil {
			close(acquired)
			unlock2()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock not acquired after release")
	}
}

func TestKeyedLocker_DifferentOrdersDoNotBlock(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, 1)
	require.NoError(t, err)
	defer unlock1()

	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlock2, err := locker.Lock(ctx2, 2)
	require.NoError(t, err)
	unlock2()
}

func TestKeyedLocker_ContextCancelled(t *testing.T) {
	locker := NewKeyedLocker()

	unlock, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Equal(t, 0, locker.size())
}

func TestKeyedLocker_UnlockIsIdempotent(t *testing.T) {
	locker := NewKeyedLocker()

	unlock, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	unlock()
	unlock()

	assert.Equal(t, 0, locker.size())

	unlock, err = locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	unlock()
}

func TestKeyedLocker_ForgetsReleasedOrders(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, id%5)
			if assert.NoError(t, err) {
				unlock()
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 0, locker.size())
}
