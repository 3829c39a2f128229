package shutdown

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// BackgroundWorker runs one long-lived loop that stops when its context is cancelled
type BackgroundWorker struct {
	name   string
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	start  sync.Once
}

// NewBackgroundWorker creates a new background worker
func NewBackgroundWorker(name string, logger *zap.Logger) *BackgroundWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &BackgroundWorker{
		name:   name,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start runs work in a goroutine. work must return once ctx is done.
func (bw *BackgroundWorker) Start(work func(ctx context.Context)) {
	bw.start.Do(func() {
		go func() {
			defer close(bw.done)
			bw.logger.Info("Background worker started", zap.String("worker", bw.name))
			work(bw.ctx)
			bw.logger.Info("Background worker stopped", zap.String("worker", bw.name))
		}()
	})
}

// Shutdown cancels the worker and waits for it until ctx expires
func (bw *BackgroundWorker) Shutdown(ctx context.Context) error {
	bw.cancel()

	// a worker that never started has nothing to wait for
	bw.start.Do(func() { close(bw.done) })

	select {
	case <-bw.done:
		return nil
	case <-ctx.Done():
		bw.logger.Warn("Background worker shutdown timeout", zap.String("worker", bw.name))
		return ctx.Err()
	}
}
