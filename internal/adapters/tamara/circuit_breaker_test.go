package tamara

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProvider = errors.New("provider down")

func testBreaker(maxFailures uint32) (*CircuitBreaker, *time.Time) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:         maxFailures,
		Timeout:             time.Second,
		MaxRequestsHalfOpen: 1,
	})
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func trip(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Call(func() error { return errProvider })
	}
}

func TestCircuitBreaker_DefaultConfig(t *testing.T) {
	config := DefaultCircuitBreakerConfig()
	assert.Equal(t, uint32(5), config.MaxFailures)
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, uint32(1), config.MaxRequestsHalfOpen)
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := testBreaker(3)

	trip(cb, 2)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(2), cb.Failures())

	trip(cb, 1)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := testBreaker(3)

	trip(cb, 2)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, uint32(0), cb.Failures())

	trip(cb, 2)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb, now := testBreaker(1)
	trip(cb, 1)
	require.Equal(t, StateOpen, cb.State())

	*now = now.Add(2 * time.Second)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now := testBreaker(1)
	trip(cb, 1)

	*now = now.Add(2 * time.Second)
	err := cb.Call(func() error { return errProvider })
	assert.ErrorIs(t, err, errProvider)
	assert.Equal(t, StateOpen, cb.State())

	// the open timeout restarts from the failed probe
	err = cb.Call(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenAllowsOneProbe(t *testing.T) {
	cb, now := testBreaker(1)
	trip(cb, 1)
	*now = now.Add(2 * time.Second)

	probing := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = cb.Call(func() error {
			close(probing)
			<-release
			return nil
		})
	}()

	<-probing
	err := cb.Call(func() error { return nil })
	assert.ErrorIs(t, err, ErrTooManyRequests)

	close(release)
	wg.Wait()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb, now := testBreaker(1)
	var transitions []string
	cb.OnStateChange(func(from, to CircuitState) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	trip(cb, 1)
	*now = now.Add(2 * time.Second)
	require.NoError(t, cb.Call(func() error { return nil }))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
