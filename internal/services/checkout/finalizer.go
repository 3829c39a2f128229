package checkout

import (
	"context"
	"fmt"

	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/kevin07696/bnpl-service/pkg/observability"
)

// Result is the internal outcome of finalizing a checkout
type Result struct {
	OrderID int64
	Status  string
	Err     error
}

// OK reports whether the order was finalized
func (r Result) OK() bool {
	return r.Err == nil
}

// SuccessPage is the document returned to the customer after checkout
type SuccessPage struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// Finalizer moves orders to the configured success status when the customer returns
type Finalizer struct {
	orders   ports.OrderRepository
	carts    ports.CartRemover
	settings ports.CheckoutSettings
	logger   ports.Logger
}

// NewFinalizer creates a new checkout finalizer
func NewFinalizer(orders ports.OrderRepository, carts ports.CartRemover, settings ports.CheckoutSettings, logger ports.Logger) *Finalizer {
	return &Finalizer{
		orders:   orders,
		carts:    carts,
		settings: settings,
		logger:   logger,
	}
}

// FinalizeSuccess sets the order state and status to the checkout success status
func (f *Finalizer) FinalizeSuccess(ctx context.Context, orderID int64) Result {
	status := f.settings.CheckoutSuccessStatus()
	result := Result{OrderID: orderID, Status: status}

	order, err := f.orders.Get(ctx, orderID)
	if err != nil {
		result.Err = domain.WrapError(domain.ErrorCodeFinalizationFailed, domain.ErrFinalizationFailed.Message,
			fmt.Errorf("load order: %w", err)).WithDetail("order_id", orderID)
		return result
	}

	order.SetStateAndStatus(status, status)
	if err := f.orders.Save(ctx, order); err != nil {
		result.Err = domain.WrapError(domain.ErrorCodeFinalizationFailed, domain.ErrFinalizationFailed.Message,
			fmt.Errorf("save order: %w", err)).WithDetail("order_id", orderID)
		return result
	}

	return result
}

// HandleReturn finalizes the order and clears the session cart.
// Failures are logged and never reach the customer.
func (f *Finalizer) HandleReturn(ctx context.Context, orderID int64, session ports.SessionAccessor) *SuccessPage {
	result := f.FinalizeSuccess(ctx, orderID)
	if result.OK() {
		observability.RecordFinalization("finalized")
	} else {
		observability.RecordFinalization("failed")
		f.logger.Error("Success has error",
			ports.Int64("order_id", orderID),
			ports.Err(result.Err))
	}

	if session != nil {
		if cartID, ok := session.ActiveCartID(); ok {
			if err := f.carts.RemoveCart(ctx, cartID); err != nil {
				f.logger.Warn("failed to remove cart after checkout",
					ports.Int64("order_id", orderID),
					ports.Int64("cart_id", cartID),
					ports.Err(err))
			}
		}
	}

	return &SuccessPage{OrderID: orderID, Status: result.Status}
}
