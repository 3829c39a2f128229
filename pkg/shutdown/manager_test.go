package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_ShutdownRunsInReverseOrder(t *testing.T) {
	sm := NewManager(zap.NewNop(), time.Second)
	var order []string
	for _, name := range []string{"database", "http", "consumer"} {
		name := name
		sm.RegisterNoErr(name, func() { order = append(order, name) })
	}

	failures := sm.Shutdown()

	assert.Empty(t, failures)
	assert.Equal(t, []string{"consumer", "http", "database"}, order)
}

func TestManager_ShutdownCollectsErrorsAndContinues(t *testing.T) {
	sm := NewManager(zap.NewNop(), time.Second)
	closed := false
	sm.RegisterNoErr("database", func() { closed = true })
	sm.Register("http", func(ctx context.Context) error { return errors.New("listener busy") })

	failures := sm.Shutdown()

	require.Len(t, failures, 1)
	assert.EqualError(t, failures["http"], "listener busy")
	assert.True(t, closed)
}

func TestManager_ShutdownOnlyOnce(t *testing.T) {
	sm := NewManager(zap.NewNop(), time.Second)
	calls := 0
	sm.RegisterNoErr("pool", func() { calls++ })

	sm.Shutdown()
	sm.Shutdown()

	assert.Equal(t, 1, calls)
}

func TestManager_TimeoutSkipsRemaining(t *testing.T) {
	sm := NewManager(zap.NewNop(), 20*time.Millisecond)
	reached := false
	sm.RegisterNoErr("database", func() { reached = true })
	sm.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	failures := sm.Shutdown()

	assert.Len(t, failures, 2)
	assert.False(t, reached)
}

func TestBackgroundWorker_StartAndShutdown(t *testing.T) {
	bw := NewBackgroundWorker("consumer", zap.NewNop())
	var wg sync.WaitGroup
	wg.Add(1)
	stopped := make(chan struct{})
	bw.Start(func(ctx context.Context) {
		wg.Done()
		<-ctx.Done()
		close(stopped)
	})
	wg.Wait()

	require.NoError(t, bw.Shutdown(context.Background()))
	select {
	case <-stopped:
	default:
		t.Fatal("work did not observe cancellation")
	}

	// second shutdown is a no-op
	require.NoError(t, bw.Shutdown(context.Background()))
}

func TestBackgroundWorker_ShutdownWithoutStart(t *testing.T) {
	bw := NewBackgroundWorker("idle", zap.NewNop())
	require.NoError(t, bw.Shutdown(context.Background()))
}

func TestBackgroundWorker_ShutdownTimeout(t *testing.T) {
	bw := NewBackgroundWorker("stuck", zap.NewNop())
	release := make(chan struct{})
	defer close(release)
	bw.Start(func(ctx context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bw.Shutdown(ctx), context.DeadlineExceeded)
}
