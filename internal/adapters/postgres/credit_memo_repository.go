package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

const selectCreditMemo = `
SELECT id, order_id, increment_id, currency_code, grand_total, subtotal, tax_amount, shipping_amount,
       discount_amount, adjustment_positive, adjustment_negative, comment, created_at
FROM sales_creditmemo
WHERE id = $1`

const selectCreditMemoItems = `
SELECT order_item_id, product_type, name, sku, price, qty, row_total, tax_amount, discount_amount,
       discount_tax_compensation_amount
FROM sales_creditmemo_item
WHERE creditmemo_id = $1
ORDER BY id`

// CreditMemoRepository implements ports.CreditMemoRepository
type CreditMemoRepository struct {
	db ports.DBPort
}

// NewCreditMemoRepository creates a new credit memo repository
func NewCreditMemoRepository(db ports.DBPort) *CreditMemoRepository {
	return &CreditMemoRepository{db: db}
}

// Get loads a credit memo and its items
func (r *CreditMemoRepository) Get(ctx context.Context, creditMemoID int64) (*domain.CreditMemo, error) {
	var memo *domain.CreditMemo
	err := r.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		if memo, err = loadCreditMemo(ctx, tx, creditMemoID); err != nil {
			return err
		}
		memo.Items, err = loadCreditMemoItems(ctx, tx, creditMemoID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return memo, nil
}

func loadCreditMemo(ctx context.Context, q ports.DBTX, id int64) (*domain.CreditMemo, error) {
	var (
		memo                                                domain.CreditMemo
		incrementID, comment                                pgtype.Text
		grand, sub, tax, shipping, discount, adjPos, adjNeg pgtype.Numeric
	)
	err := q.QueryRow(ctx, selectCreditMemo, id).Scan(
		&memo.ID, &memo.OrderID, &incrementID, &memo.CurrencyCode, &grand, &sub, &tax, &shipping,
		&discount, &adjPos, &adjNeg, &comment, &memo.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrorCodeCreditMemoNotFound, domain.ErrCreditMemoNotFound.Message, err).
			WithDetail("credit_memo_id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select credit memo %d: %w", id, err)
	}

	var ns numericScanner
	memo.IncrementID = textValue(incrementID)
	memo.Comment = textValue(comment)
	memo.GrandTotal = ns.dec(grand)
	memo.SubTotal = ns.dec(sub)
	memo.TaxAmount = ns.dec(tax)
	memo.ShippingAmount = ns.dec(shipping)
	memo.DiscountAmount = ns.dec(discount)
	memo.AdjustmentPositive = ns.dec(adjPos)
	memo.AdjustmentNegative = ns.dec(adjNeg)
	if ns.err != nil {
		return nil, fmt.Errorf("credit memo %d totals: %w", id, ns.err)
	}
	return &memo, nil
}

func loadCreditMemoItems(ctx context.Context, q ports.DBTX, id int64) ([]domain.CreditMemoItem, error) {
	rows, err := q.Query(ctx, selectCreditMemoItems, id)
	if err != nil {
		return nil, fmt.Errorf("select credit memo items: %w", err)
	}
	defer rows.Close()

	var items []domain.CreditMemoItem
	for rows.Next() {
		var (
			item                                     domain.CreditMemoItem
			price, qty, rowTotal, tax, discount, dtc pgtype.Numeric
		)
		if err := rows.Scan(&item.OrderItemID, &item.ProductType, &item.Name, &item.SKU,
			&price, &qty, &rowTotal, &tax, &discount, &dtc); err != nil {
			return nil, fmt.Errorf("scan credit memo item: %w", err)
		}
		var ns numericScanner
		item.Price = ns.dec(price)
		item.Qty = ns.dec(qty)
		item.RowTotal = ns.dec(rowTotal)
		item.TaxAmount = ns.dec(tax)
		item.DiscountAmount = ns.dec(discount)
		item.DiscountTaxCompensationAmount = ns.dec(dtc)
		if ns.err != nil {
			return nil, fmt.Errorf("credit memo item %d amounts: %w", item.OrderItemID, ns.err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
