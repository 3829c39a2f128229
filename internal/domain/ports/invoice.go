package ports

import (
	"context"

	"github.com/kevin07696/bnpl-service/internal/domain"
)

// InvoiceStore persists a registered invoice together with its order.
// Both rows are written in one transaction: either both persist or neither does.
type InvoiceStore interface {
	SaveWithOrder(ctx context.Context, invoice *domain.Invoice) error
	// MarkEmailSent flags a saved invoice as e-mailed to the customer
	MarkEmailSent(ctx context.Context, invoiceID int64) error
}

// InvoiceNotifier sends the invoice e-mail to the customer
type InvoiceNotifier interface {
	SendInvoice(ctx context.Context, invoice *domain.Invoice) error
}
