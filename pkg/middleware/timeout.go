package middleware

import (
	"net/http"

	"github.com/kevin07696/bnpl-service/pkg/resilience"
	"go.uber.org/zap"
)

// Timeout applies the handler timeout unless the request context already has a deadline
func Timeout(config *resilience.TimeoutConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, hasDeadline := r.Context().Deadline(); hasDeadline {
				logger.Debug("Context already has deadline, respecting parent timeout",
					zap.String("path", r.URL.Path))
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := config.HandlerContext(r.Context())
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
