package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

const insertInvoice = `
INSERT INTO sales_invoice (order_id, state, grand_total, currency, email_sent, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

const setInvoiceIncrementID = `
UPDATE sales_invoice SET increment_id = $2 WHERE id = $1`

const insertInvoiceItem = `
INSERT INTO sales_invoice_item (invoice_id, order_item_id, qty, row_total)
VALUES ($1, $2, $3, $4)`

const markInvoiceEmailSent = `
UPDATE sales_invoice SET email_sent = TRUE WHERE id = $1`

// InvoiceStore implements ports.InvoiceStore
type InvoiceStore struct {
	db ports.DBPort
}

// NewInvoiceStore creates a new invoice store
func NewInvoiceStore(db ports.DBPort) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// SaveWithOrder inserts the invoice and its items and saves the order in one transaction.
// The invoice ID and increment ID are set on success.
func (s *InvoiceStore) SaveWithOrder(ctx context.Context, invoice *domain.Invoice) error {
	if invoice.Order == nil {
		return fmt.Errorf("invoice for order %d has no order attached", invoice.OrderID)
	}

	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		total, err := decimalToNumeric(invoice.GrandTotal)
		if err != nil {
			return err
		}

		var id int64
		if err := tx.QueryRow(ctx, insertInvoice,
			invoice.OrderID, invoice.State, total, invoice.Currency, invoice.EmailSent, invoice.CreatedAt,
		).Scan(&id); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		incrementID := fmt.Sprintf("%09d", id)
		if _, err := tx.Exec(ctx, setInvoiceIncrementID, id, incrementID); err != nil {
			return fmt.Errorf("set invoice increment id: %w", err)
		}

		for _, item := range invoice.Items {
			args, err := numericArgs(item.Qty, item.RowTotal)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, insertInvoiceItem, id, item.OrderItemID, args[0], args[1]); err != nil {
				return fmt.Errorf("insert invoice item %d: %w", item.OrderItemID, err)
			}
		}

		if err := saveOrder(ctx, tx, invoice.Order); err != nil {
			return err
		}

		invoice.ID = id
		invoice.IncrementID = incrementID
		return nil
	})
}

// MarkEmailSent flags the invoice as e-mailed
func (s *InvoiceStore) MarkEmailSent(ctx context.Context, invoiceID int64) error {
	if _, err := s.db.Conn().Exec(ctx, markInvoiceEmailSent, invoiceID); err != nil {
		return fmt.Errorf("mark invoice %d email sent: %w", invoiceID, err)
	}
	return nil
}
