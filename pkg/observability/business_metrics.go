package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Capture metrics
	capturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_captures_total",
		Help: "Total capture attempts by outcome",
	}, []string{
		"outcome", // captured, rejected, skipped, failed
	})

	captureAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_capture_amount_total",
		Help: "Total captured amount in major currency units",
	}, []string{
		"currency",
	})

	invoicingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bnpl_invoicing_failures_total",
		Help: "Captures acknowledged by the provider whose local invoicing failed",
	})

	// Refund metrics
	refundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_refunds_total",
		Help: "Total credit memo refunds by outcome",
	}, []string{
		"outcome", // refunded, disabled, skipped, failed
	})

	refundAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_refund_amount_total",
		Help: "Total refunded amount in major currency units",
	}, []string{
		"currency",
	})

	// Checkout return metrics
	finalizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_finalizations_total",
		Help: "Checkout success finalizations by outcome",
	}, []string{
		"outcome", // success, failed
	})

	// Provider API latency
	providerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bnpl_provider_request_duration_seconds",
		Help:    "Duration of payment provider API calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"operation", // capture, refund
		"status",    // ok, error
	})

	// Lifecycle event intake
	eventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_events_consumed_total",
		Help: "Lifecycle events consumed from the queue",
	}, []string{
		"event_type",
		"status", // processed, failed, ignored
	})
)

// RecordCapture records a capture attempt outcome
func RecordCapture(outcome, currency string, amount float64) {
	capturesTotal.WithLabelValues(outcome).Inc()
	if outcome == "captured" {
		captureAmount.WithLabelValues(currency).Add(amount)
	}
}

// RecordInvoicingFailure records a post-capture invoicing failure
func RecordInvoicingFailure() {
	invoicingFailures.Inc()
}

// RecordRefund records a refund attempt outcome
func RecordRefund(outcome, currency string, amount float64) {
	refundsTotal.WithLabelValues(outcome).Inc()
	if outcome == "refunded" {
		refundAmount.WithLabelValues(currency).Add(amount)
	}
}

// RecordFinalization records a checkout return finalization
func RecordFinalization(outcome string) {
	finalizationsTotal.WithLabelValues(outcome).Inc()
}

// RecordProviderRequest records a provider API call
func RecordProviderRequest(operation, status string, duration float64) {
	providerRequestDuration.WithLabelValues(operation, status).Observe(duration)
}

// RecordEventConsumed records a consumed lifecycle event
func RecordEventConsumed(eventType, status string) {
	eventsConsumedTotal.WithLabelValues(eventType, status).Inc()
}
