package refund

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

// Outcome describes a finished credit memo refund
type Outcome struct {
	CreditMemoID int64
	OrderID      int64
	Refunded     bool
	Reason       string // set when nothing was sent to the provider
	Payload      *domain.RefundPayload
	Record       *domain.RefundRecord
}

// Service propagates credit memos to the payment provider as refunds
type Service struct {
	orders   ports.OrderRepository
	memos    ports.CreditMemoRepository
	refs     ports.ProviderOrderStore
	ledger   ports.RefundLedger
	gateway  ports.ProviderGateway
	settings ports.CheckoutSettings
	logger   ports.Logger
	now      func() time.Time
}

// NewService creates a new refund service
func NewService(
	orders ports.OrderRepository,
	memos ports.CreditMemoRepository,
	refs ports.ProviderOrderStore,
	ledger ports.RefundLedger,
	gateway ports.ProviderGateway,
	settings ports.CheckoutSettings,
	logger ports.Logger,
) *Service {
	return &Service{
		orders:   orders,
		memos:    memos,
		refs:     refs,
		ledger:   ledger,
		gateway:  gateway,
		settings: settings,
		logger:   logger,
		now:      timeutil.Now,
	}
}

// HandleCreditMemoCreated is the credit-memo-created entry point
func (s *Service) HandleCreditMemoCreated(ctx context.Context, creditMemoID int64) (*Outcome, error) {
	s.logger.Debug("start to refund credit memo", ports.Int64("credit_memo_id", creditMemoID))

	if !s.settings.TriggerActions() {
		s.logger.Debug("trigger actions turned off", ports.Int64("credit_memo_id", creditMemoID))
		observability.RecordRefund("disabled", "", 0)
		return &Outcome{CreditMemoID: creditMemoID, Reason: "trigger actions disabled"}, nil
	}

	memo, err := s.memos.Get(ctx, creditMemoID)
	if err != nil {
		return nil, fmt.Errorf("load credit memo %d: %w", creditMemoID, err)
	}

	outcome, err := s.RefundOrderByCreditMemo(ctx, memo)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("end to refund credit memo", ports.Int64("credit_memo_id", creditMemoID))
	return outcome, nil
}

// RefundOrderByCreditMemo refunds the credit memo amount at the provider.
// Deduplication is left to the host platform and the provider idempotency key.
func (s *Service) RefundOrderByCreditMemo(ctx context.Context, memo *domain.CreditMemo) (*Outcome, error) {
	outcome := &Outcome{CreditMemoID: memo.ID, OrderID: memo.OrderID}

	if !s.settings.TriggerActions() {
		s.logger.Debug("trigger actions turned off", ports.Int64("credit_memo_id", memo.ID))
		observability.RecordRefund("disabled", memo.CurrencyCode, 0)
		outcome.Reason = "trigger actions disabled"
		return outcome, nil
	}

	order, err := s.orders.Get(ctx, memo.OrderID)
	if err != nil {
		s.logger.Error("refund: load order failed",
			ports.Int64("order_id", memo.OrderID),
			ports.Int64("credit_memo_id", memo.ID),
			ports.Err(err))
		return nil, fmt.Errorf("load order %d: %w", memo.OrderID, err)
	}

	if !s.settings.IsProviderMethod(order.PaymentMethod()) {
		s.logger.Debug("refund skipped for foreign payment method",
			ports.Int64("order_id", order.ID),
			ports.String("payment_method", order.PaymentMethod()))
		observability.RecordRefund("skipped", memo.CurrencyCode, 0)
		outcome.Reason = "foreign payment method"
		return outcome, nil
	}

	providerOrderID, err := s.refs.GetProviderOrderID(ctx, order.ID)
	if err != nil {
		s.logger.Error("refund: provider reference lookup failed",
			ports.Int64("order_id", order.ID),
			ports.Err(err))
		observability.RecordRefund("failed", memo.CurrencyCode, 0)
		return nil, fmt.Errorf("provider reference for order %d: %w", order.ID, err)
	}

	payload := BuildRefundPayload(memo, order, providerOrderID)
	outcome.Payload = payload

	result, err := s.gateway.Refund(ctx, payload, order)
	if err != nil {
		s.logger.Error("provider refund failed",
			ports.Int64("order_id", order.ID),
			ports.Int64("credit_memo_id", memo.ID),
			ports.Err(err))
		observability.RecordRefund("failed", memo.CurrencyCode, 0)
		return nil, domain.WrapError(domain.ErrorCodeProviderCallFailed, domain.ErrProviderCallFailed.Message, err).
			WithDetail("order_id", order.ID).
			WithDetail("credit_memo_id", memo.ID)
	}

	record := &domain.RefundRecord{
		ID:              uuid.New().String(),
		OrderID:         order.ID,
		CreditMemoID:    memo.ID,
		ProviderOrderID: providerOrderID,
		TotalAmount:     payload.TotalAmount,
		Currency:        payload.Currency,
		CreatedAt:       s.now(),
	}
	if result != nil {
		record.ProviderRefundID = result.ProviderRefundID
		record.ProviderCaptureID = result.ProviderCaptureID
	}
	outcome.Refunded = true
	outcome.Record = record
	observability.RecordRefund("refunded", payload.Currency, payload.TotalAmount.InexactFloat64())

	// The provider already holds the refund; local bookkeeping failures are logged only.
	if err := s.ledger.Append(ctx, record); err != nil {
		s.logger.Error("refund acknowledged but ledger append failed",
			ports.Int64("order_id", order.ID),
			ports.String("provider_refund_id", record.ProviderRefundID),
			ports.Err(err))
	}

	order.AddStatusHistoryComment(
		fmt.Sprintf("Refunded %s %s for credit memo #%d.", payload.TotalAmount.StringFixed(2), payload.Currency, memo.ID),
		false, s.now())
	if err := s.orders.Save(ctx, order); err != nil {
		s.logger.Warn("failed to save refund comment",
			ports.Int64("order_id", order.ID),
			ports.Err(err))
	}

	s.logger.Info("refund completed",
		ports.Int64("order_id", order.ID),
		ports.Int64("credit_memo_id", memo.ID),
		ports.String("amount", payload.TotalAmount.String()))

	return outcome, nil
}
