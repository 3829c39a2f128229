package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

const selectCapturesByOrder = `
SELECT id, order_id, provider_order_id, provider_capture_id, total_amount, currency, created_at
FROM provider_capture_records
WHERE order_id = $1
ORDER BY created_at, id`

const insertCapture = `
INSERT INTO provider_capture_records (id, order_id, provider_order_id, provider_capture_id, total_amount, currency, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// CaptureLedger implements ports.CaptureLedger.
// Rows are only ever inserted.
type CaptureLedger struct {
	db ports.DBPort
}

// NewCaptureLedger creates a new capture ledger
func NewCaptureLedger(db ports.DBPort) *CaptureLedger {
	return &CaptureLedger{db: db}
}

// ListByOrder returns every acknowledged capture of the order, oldest first
func (l *CaptureLedger) ListByOrder(ctx context.Context, orderID int64) ([]*domain.CaptureRecord, error) {
	rows, err := l.db.Conn().Query(ctx, selectCapturesByOrder, orderID)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	records := []*domain.CaptureRecord{}
	for rows.Next() {
		var (
			rec       domain.CaptureRecord
			id        uuid.UUID
			captureID pgtype.Text
			amount    pgtype.Numeric
		)
		if err := rows.Scan(&id, &rec.OrderID, &rec.ProviderOrderID, &captureID, &amount, &rec.Currency, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan capture record: %w", err)
		}
		rec.ID = id.String()
		rec.ProviderCaptureID = textValue(captureID)
		if rec.TotalAmount, err = pgNumericToDecimal(amount); err != nil {
			return nil, fmt.Errorf("capture %s amount: %w", rec.ID, err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Append inserts one capture record
func (l *CaptureLedger) Append(ctx context.Context, record *domain.CaptureRecord) error {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return fmt.Errorf("invalid capture record ID: %w", err)
	}
	amount, err := decimalToNumeric(record.TotalAmount)
	if err != nil {
		return err
	}

	_, err = l.db.Conn().Exec(ctx, insertCapture,
		id, record.OrderID, record.ProviderOrderID, nullText(record.ProviderCaptureID),
		amount, record.Currency, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert capture record: %w", err)
	}
	return nil
}
