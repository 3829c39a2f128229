package ports

import (
	"context"

	"github.com/kevin07696/bnpl-service/internal/domain"
)

// OrderRepository loads and persists host platform orders.
// Get returns domain.ErrOrderNotFound when the id does not resolve.
type OrderRepository interface {
	Get(ctx context.Context, orderID int64) (*domain.Order, error)
	Save(ctx context.Context, order *domain.Order) error
}

// ProviderOrderStore resolves the provider's order id for a local order.
// Returns domain.ErrMissingProviderReference when the order was never linked.
type ProviderOrderStore interface {
	GetProviderOrderID(ctx context.Context, orderID int64) (string, error)
}

// CaptureLedger is the append-only record of acknowledged captures
type CaptureLedger interface {
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.CaptureRecord, error)
	Append(ctx context.Context, record *domain.CaptureRecord) error
}

// RefundLedger is the append-only record of acknowledged refunds
type RefundLedger interface {
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.RefundRecord, error)
	Append(ctx context.Context, record *domain.RefundRecord) error
}

// CreditMemoRepository loads credit memos created by the host platform
type CreditMemoRepository interface {
	Get(ctx context.Context, creditMemoID int64) (*domain.CreditMemo, error)
}
