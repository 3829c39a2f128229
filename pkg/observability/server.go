package observability

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Readiness flips to ready once every component has started
type Readiness struct {
	ready atomic.Bool
}

// SetReady marks the service ready or not ready
func (r *Readiness) SetReady(ready bool) {
	r.ready.Store(ready)
}

// Handler answers 200 when ready, 503 otherwise
func (r *Readiness) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !r.ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}

// NewMetricsServer builds the server for Prometheus metrics, health and readiness probes
func NewMetricsServer(port string, healthChecker *HealthChecker, readiness *Readiness) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if healthChecker != nil {
		mux.HandleFunc("/health", healthChecker.HealthHandler())
	}
	if readiness != nil {
		mux.HandleFunc("/ready", readiness.Handler())
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}

// StartMetricsServer serves in the background and logs a listener failure
func StartMetricsServer(server *http.Server, logger *zap.Logger) {
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()
}
