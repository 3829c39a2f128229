package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/kevin07696/bnpl-service/pkg/timeutil"
)

// Invoicer bills an order once its capture has been acknowledged
type Invoicer struct {
	orders   ports.OrderRepository
	store    ports.InvoiceStore
	notifier ports.InvoiceNotifier
	logger   ports.Logger
	now      func() time.Time
}

// NewInvoicer creates a new post-capture invoicer
func NewInvoicer(
	orders ports.OrderRepository,
	store ports.InvoiceStore,
	notifier ports.InvoiceNotifier,
	logger ports.Logger,
) *Invoicer {
	return &Invoicer{
		orders:   orders,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      timeutil.Now,
	}
}

// InvoiceOrder re-loads the order and, when it is invoiceable, invoices the full
// invoiceable quantity, notifies the customer and records the notification.
// Returns a nil invoice when the order cannot be invoiced.
func (i *Invoicer) InvoiceOrder(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	order, err := i.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	if !order.CanInvoice() {
		i.logger.Info("order is not invoiceable after capture",
			ports.Int64("order_id", orderID),
			ports.String("state", order.State))
		return nil, nil
	}

	invoice := domain.PrepareInvoice(order, i.now())
	invoice.Register()

	// Invoice and order are persisted atomically
	if err := i.store.SaveWithOrder(ctx, invoice); err != nil {
		return nil, fmt.Errorf("save invoice with order: %w", err)
	}

	if err := i.notifier.SendInvoice(ctx, invoice); err != nil {
		return invoice, fmt.Errorf("send invoice %d: %w", invoice.ID, err)
	}
	invoice.EmailSent = true
	if err := i.store.MarkEmailSent(ctx, invoice.ID); err != nil {
		i.logger.Warn("failed to flag invoice as sent",
			ports.Int64("invoice_id", invoice.ID),
			ports.Err(err))
	}

	order.AddStatusHistoryComment(
		fmt.Sprintf("Notified customer about invoice #%d.", invoice.ID), true, i.now())
	if err := i.orders.Save(ctx, order); err != nil {
		return invoice, fmt.Errorf("save notification comment: %w", err)
	}

	return invoice, nil
}
