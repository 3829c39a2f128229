package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the application's timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	HTTP Handler / Event Handler (60s)
//	  ↓
//	Provider API (30s)
//	  ↓
//	Database Query (5s)
//
// Each layer must complete before its parent times out.
type TimeoutConfig struct {
	HTTPHandler  time.Duration // Capture/refund/checkout-return request (default: 60s)
	EventHandler time.Duration // One lifecycle event from the queue (default: 60s)
	ProviderAPI  time.Duration // Single provider HTTP call (default: 30s)
	Database     time.Duration // Single query or transaction (default: 5s)
	LockWait     time.Duration // Waiting for the per-order capture lock (default: 15s)
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:  60 * time.Second,
		EventHandler: 60 * time.Second,
		ProviderAPI:  30 * time.Second,
		Database:     5 * time.Second,
		LockWait:     15 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:  5 * time.Second,
		EventHandler: 5 * time.Second,
		ProviderAPI:  2 * time.Second,
		Database:     500 * time.Millisecond,
		LockWait:     1 * time.Second,
	}
}

// WithProviderTimeout returns a copy with the provider call timeout overridden.
// Non-positive values keep the current setting.
func (tc *TimeoutConfig) WithProviderTimeout(d time.Duration) *TimeoutConfig {
	out := *tc
	if d > 0 {
		out.ProviderAPI = d
	}
	return &out
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// EventContext creates a context with timeout for a single queued event
func (tc *TimeoutConfig) EventContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.EventHandler)
}

// ProviderContext creates a context for a provider API call
func (tc *TimeoutConfig) ProviderContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ProviderAPI)
}

// DatabaseContext creates a context for a database operation
func (tc *TimeoutConfig) DatabaseContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Database)
}

// LockContext bounds the wait for an order lock
func (tc *TimeoutConfig) LockContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.LockWait)
}
