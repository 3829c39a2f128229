package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/kevin07696/bnpl-service/pkg/observability"
	"github.com/kevin07696/bnpl-service/pkg/timeutil"
)

// Stage is the furthest point a capture invocation reached
type Stage string

const (
	StageSkipped       Stage = "skipped"  // foreign payment method
	StageRejected      Stage = "rejected" // eligibility check failed
	StageLedgerUpdated Stage = "ledger_updated"
	StageInvoiced      Stage = "invoiced"
	StageNotified      Stage = "notified"
)

// Outcome describes a finished capture invocation.
// InvoiceErr is set when the capture succeeded but invoicing did not.
type Outcome struct {
	OrderID    int64
	Stage      Stage
	Payload    *domain.CapturePayload
	Record     *domain.CaptureRecord
	Invoice    *domain.Invoice
	InvoiceErr error
}

// Service drives a capture: eligibility, payload, provider call, ledger, invoice
type Service struct {
	orders   ports.OrderRepository
	refs     ports.ProviderOrderStore
	ledger   ports.CaptureLedger
	gateway  ports.ProviderGateway
	builder  *PayloadBuilder
	invoicer *Invoicer
	locker   ports.OrderLocker
	settings ports.CheckoutSettings
	logger   ports.Logger
	now      func() time.Time
}

// NewService creates a new capture service
func NewService(
	orders ports.OrderRepository,
	refs ports.ProviderOrderStore,
	ledger ports.CaptureLedger,
	gateway ports.ProviderGateway,
	builder *PayloadBuilder,
	invoicer *Invoicer,
	locker ports.OrderLocker,
	settings ports.CheckoutSettings,
	logger ports.Logger,
) *Service {
	return &Service{
		orders:   orders,
		refs:     refs,
		ledger:   ledger,
		gateway:  gateway,
		builder:  builder,
		invoicer: invoicer,
		locker:   locker,
		settings: settings,
		logger:   logger,
		now:      timeutil.Now,
	}
}

// CaptureOrder captures the order at the provider and invoices it locally.
// Provider failures propagate; invoicing failures are reported in Outcome.InvoiceErr only.
func (s *Service) CaptureOrder(ctx context.Context, orderID int64) (*Outcome, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		s.logger.Error("capture: load order failed",
			ports.Int64("order_id", orderID),
			ports.Err(err))
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}

	outcome := &Outcome{OrderID: orderID}

	if !s.settings.IsProviderMethod(order.PaymentMethod()) {
		s.logger.Debug("capture skipped for foreign payment method",
			ports.Int64("order_id", orderID),
			ports.String("payment_method", order.PaymentMethod()))
		outcome.Stage = StageSkipped
		observability.RecordCapture("skipped", order.CurrencyCode, 0)
		return outcome, nil
	}

	// Held through invoicing: the invoice raises TotalPaid before a waiting trigger reads the order
	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		observability.RecordCapture("failed", order.CurrencyCode, 0)
		return nil, fmt.Errorf("lock order %d: %w", orderID, err)
	}
	defer unlock()

	record, payload, err := s.captureLocked(ctx, orderID)
	if err != nil {
		observability.RecordCapture("failed", order.CurrencyCode, 0)
		return nil, err
	}
	outcome.Payload = payload
	if record == nil {
		outcome.Stage = StageRejected
		observability.RecordCapture("rejected", order.CurrencyCode, 0)
		return outcome, nil
	}
	outcome.Record = record
	outcome.Stage = StageLedgerUpdated
	observability.RecordCapture("captured", record.Currency, record.TotalAmount.InexactFloat64())

	invoice, err := s.invoicer.InvoiceOrder(ctx, orderID)
	if invoice != nil {
		outcome.Invoice = invoice
		outcome.Stage = StageInvoiced
		if invoice.EmailSent {
			outcome.Stage = StageNotified
		}
	}
	if err != nil {
		outcome.InvoiceErr = domain.WrapError(domain.ErrorCodeInvoicingFailed, domain.ErrInvoicingFailed.Message, err).
			WithDetail("order_id", orderID).
			WithDetail("provider_capture_id", record.ProviderCaptureID)
		observability.RecordInvoicingFailure()
		s.logger.Error("invoicing after capture failed",
			ports.Int64("order_id", orderID),
			ports.String("provider_capture_id", record.ProviderCaptureID),
			ports.Err(outcome.InvoiceErr))
	}

	s.logger.Info("capture completed",
		ports.Int64("order_id", orderID),
		ports.String("stage", string(outcome.Stage)),
		ports.String("amount", record.TotalAmount.String()))

	return outcome, nil
}

// captureLocked runs eligibility, provider call and ledger append. The caller holds the order lock.
// A nil record with a nil error means the capture was rejected as ineligible.
func (s *Service) captureLocked(ctx context.Context, orderID int64) (*domain.CaptureRecord, *domain.CapturePayload, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("reload order %d: %w", orderID, err)
	}

	prior, err := s.ledger.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list captures for order %d: %w", order.ID, err)
	}

	if !CanCapture(order.TotalPaid, prior) {
		s.logger.Info("order cannot capture",
			ports.Int64("order_id", order.ID),
			ports.String("captured_amount", CapturedAmount(prior).String()),
			ports.Int("prior_captures", len(prior)))
		return nil, nil, nil
	}

	providerOrderID, err := s.refs.GetProviderOrderID(ctx, order.ID)
	if err != nil {
		s.logger.Error("capture: provider reference lookup failed",
			ports.Int64("order_id", order.ID),
			ports.Err(err))
		return nil, nil, fmt.Errorf("provider reference for order %d: %w", order.ID, err)
	}

	payload, err := s.builder.Build(ctx, order, providerOrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("build capture payload: %w", err)
	}

	remaining, bounded := RemainingCapturable(order.TotalPaid, prior)
	if bounded && remaining.LessThan(payload.TotalAmount) {
		s.logger.Info("capture amount limited to the uncaptured paid total",
			ports.Int64("order_id", order.ID),
			ports.String("grand_total", payload.TotalAmount.String()),
			ports.String("remaining", remaining.String()))
		payload.TotalAmount = remaining
	}

	s.logger.Info(fmt.Sprintf("Capture when order status is %s", order.Status),
		ports.Int64("order_id", order.ID),
		ports.String("provider_order_id", providerOrderID),
		ports.Int("items", len(payload.Items)))

	result, err := s.gateway.Capture(ctx, payload, order)
	if err != nil {
		s.logger.Error("provider capture failed",
			ports.Int64("order_id", order.ID),
			ports.String("provider_order_id", providerOrderID),
			ports.Err(err))
		return nil, payload, domain.WrapError(domain.ErrorCodeProviderCallFailed, domain.ErrProviderCallFailed.Message, err).
			WithDetail("order_id", order.ID)
	}

	// A provider amount may lower what is recorded, never raise it
	amount := payload.TotalAmount
	if result != nil && result.Amount.IsPositive() && result.Amount.LessThan(amount) {
		amount = result.Amount
	}
	record := &domain.CaptureRecord{
		ID:              uuid.New().String(),
		OrderID:         order.ID,
		ProviderOrderID: providerOrderID,
		TotalAmount:     amount,
		Currency:        payload.Currency,
		CreatedAt:       s.now(),
	}
	if result != nil {
		record.ProviderCaptureID = result.ProviderCaptureID
	}

	if err := s.ledger.Append(ctx, record); err != nil {
		// The provider holds the capture; the operator must reconcile the ledger by hand.
		s.logger.Error("capture acknowledged but ledger append failed",
			ports.Int64("order_id", order.ID),
			ports.String("provider_capture_id", record.ProviderCaptureID),
			ports.String("amount", amount.String()),
			ports.Err(err))
		return nil, payload, domain.WrapError(domain.ErrorCodeDatabaseError, "append capture record", err).
			WithDetail("provider_capture_id", record.ProviderCaptureID)
	}

	return record, payload, nil
}
