package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

const selectRefundsByOrder = `
SELECT id, order_id, credit_memo_id, provider_order_id, provider_refund_id, provider_capture_id,
       total_amount, currency, created_at
FROM provider_refund_records
WHERE order_id = $1
ORDER BY created_at, id`

const insertRefund = `
INSERT INTO provider_refund_records
    (id, order_id, credit_memo_id, provider_order_id, provider_refund_id, provider_capture_id, total_amount, currency, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// RefundLedger implements ports.RefundLedger
type RefundLedger struct {
	db ports.DBPort
}

// NewRefundLedger creates a new refund ledger
func NewRefundLedger(db ports.DBPort) *RefundLedger {
	return &RefundLedger{db: db}
}

// ListByOrder returns the acknowledged refunds of an order, oldest first
func (l *RefundLedger) ListByOrder(ctx context.Context, orderID int64) ([]*domain.RefundRecord, error) {
	rows, err := l.db.Conn().Query(ctx, selectRefundsByOrder, orderID)
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	defer rows.Close()

	records := []*domain.RefundRecord{}
	for rows.Next() {
		var (
			rec                 domain.RefundRecord
			id                  uuid.UUID
			refundID, captureID pgtype.Text
			amount              pgtype.Numeric
		)
		if err := rows.Scan(&id, &rec.OrderID, &rec.CreditMemoID, &rec.ProviderOrderID, &refundID, &captureID,
			&amount, &rec.Currency, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan refund record: %w", err)
		}
		rec.ID = id.String()
		rec.ProviderRefundID = textValue(refundID)
		rec.ProviderCaptureID = textValue(captureID)
		if rec.TotalAmount, err = pgNumericToDecimal(amount); err != nil {
			return nil, fmt.Errorf("refund %s amount: %w", rec.ID, err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Append inserts one refund record
func (l *RefundLedger) Append(ctx context.Context, record *domain.RefundRecord) error {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return fmt.Errorf("invalid refund record ID: %w", err)
	}
	amount, err := decimalToNumeric(record.TotalAmount)
	if err != nil {
		return err
	}

	_, err = l.db.Conn().Exec(ctx, insertRefund,
		id, record.OrderID, record.CreditMemoID, record.ProviderOrderID,
		nullText(record.ProviderRefundID), nullText(record.ProviderCaptureID),
		amount, record.Currency, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refund record: %w", err)
	}
	return nil
}
