package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/kevin07696/bnpl-service/pkg/timeutil"
)

const selectOrder = `
SELECT id, increment_id, state, status, currency_code, customer_email,
       grand_total, tax_amount, shipping_amount, discount_amount, total_paid, total_invoiced,
       payment_method, created_at, updated_at
FROM sales_order
WHERE id = $1`

const selectOrderItems = `
SELECT id, product_id, product_type, name, sku, price, row_total, tax_amount, discount_amount,
       discount_tax_compensation_amount, qty_ordered, qty_shipped, qty_invoiced, qty_refunded, qty_canceled
FROM sales_order_item
WHERE order_id = $1
ORDER BY id`

const selectOrderTracks = `
SELECT track_number, title, carrier_code, created_at
FROM sales_shipment_track
WHERE order_id = $1
ORDER BY created_at, id`

const selectOrderHistory = `
SELECT id, comment, status, is_customer_notified, created_at
FROM sales_order_status_history
WHERE order_id = $1
ORDER BY created_at, id`

const updateOrder = `
UPDATE sales_order
SET state = $2, status = $3, total_invoiced = $4, total_paid = $5, updated_at = $6
WHERE id = $1`

const updateOrderItemQty = `
UPDATE sales_order_item
SET qty_invoiced = $2
WHERE id = $1 AND order_id = $3`

const insertStatusHistory = `
INSERT INTO sales_order_status_history (order_id, comment, status, is_customer_notified, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

// OrderRepository implements ports.OrderRepository over the host sales tables
type OrderRepository struct {
	db ports.DBPort
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db ports.DBPort) *OrderRepository {
	return &OrderRepository{db: db}
}

// Get loads an order with its items, tracks and status history in one snapshot
func (r *OrderRepository) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	var order *domain.Order
	err := r.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = loadOrder(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Save persists the connector-owned order fields and appends new status history entries
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return saveOrder(ctx, tx, order)
	})
}

func loadOrder(ctx context.Context, q ports.DBTX, orderID int64) (*domain.Order, error) {
	var (
		order                                    domain.Order
		email, method                            pgtype.Text
		grand, tax, shipping, discount, invoiced pgtype.Numeric
		paid                                     pgtype.Numeric
	)
	err := q.QueryRow(ctx, selectOrder, orderID).Scan(
		&order.ID, &order.IncrementID, &order.State, &order.Status, &order.CurrencyCode, &email,
		&grand, &tax, &shipping, &discount, &paid, &invoiced,
		&method, &order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrorCodeOrderNotFound, domain.ErrOrderNotFound.Message, err).
			WithDetail("order_id", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("select order %d: %w", orderID, err)
	}

	var ns numericScanner
	order.CustomerEmail = textValue(email)
	order.GrandTotal = ns.dec(grand)
	order.TaxAmount = ns.dec(tax)
	order.ShippingAmount = ns.dec(shipping)
	order.DiscountAmount = ns.dec(discount)
	order.TotalPaid = ns.decPtr(paid)
	order.TotalInvoiced = ns.dec(invoiced)
	if ns.err != nil {
		return nil, fmt.Errorf("order %d totals: %w", orderID, ns.err)
	}
	if m := textValue(method); m != "" {
		order.Payment = &domain.Payment{Method: m}
	}

	if order.Items, err = loadOrderItems(ctx, q, orderID); err != nil {
		return nil, err
	}
	if order.Tracks, err = loadOrderTracks(ctx, q, orderID); err != nil {
		return nil, err
	}
	if order.StatusHistory, err = loadOrderHistory(ctx, q, orderID); err != nil {
		return nil, err
	}
	return &order, nil
}

func loadOrderItems(ctx context.Context, q ports.DBTX, orderID int64) ([]*domain.OrderItem, error) {
	rows, err := q.Query(ctx, selectOrderItems, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []*domain.OrderItem
	for rows.Next() {
		var (
			item                                                          domain.OrderItem
			price, rowTotal, tax, discount, dtc                           pgtype.Numeric
			qtyOrdered, qtyShipped, qtyInvoiced, qtyRefunded, qtyCanceled pgtype.Numeric
		)
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.ProductType, &item.Name, &item.SKU,
			&price, &rowTotal, &tax, &discount, &dtc,
			&qtyOrdered, &qtyShipped, &qtyInvoiced, &qtyRefunded, &qtyCanceled,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		var ns numericScanner
		item.Price = ns.dec(price)
		item.RowTotal = ns.decPtr(rowTotal)
		item.TaxAmount = ns.dec(tax)
		item.DiscountAmount = ns.dec(discount)
		item.DiscountTaxCompensationAmount = ns.dec(dtc)
		item.QtyOrdered = ns.dec(qtyOrdered)
		item.QtyShipped = ns.dec(qtyShipped)
		item.QtyInvoiced = ns.dec(qtyInvoiced)
		item.QtyRefunded = ns.dec(qtyRefunded)
		item.QtyCanceled = ns.dec(qtyCanceled)
		if ns.err != nil {
			return nil, fmt.Errorf("order item %d amounts: %w", item.ID, ns.err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func loadOrderTracks(ctx context.Context, q ports.DBTX, orderID int64) ([]domain.ShipmentTrack, error) {
	rows, err := q.Query(ctx, selectOrderTracks, orderID)
	if err != nil {
		return nil, fmt.Errorf("select shipment tracks: %w", err)
	}
	defer rows.Close()

	tracks := []domain.ShipmentTrack{}
	for rows.Next() {
		var t domain.ShipmentTrack
		if err := rows.Scan(&t.TrackNumber, &t.Title, &t.CarrierCode, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shipment track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func loadOrderHistory(ctx context.Context, q ports.DBTX, orderID int64) ([]domain.StatusHistoryEntry, error) {
	rows, err := q.Query(ctx, selectOrderHistory, orderID)
	if err != nil {
		return nil, fmt.Errorf("select status history: %w", err)
	}
	defer rows.Close()

	var history []domain.StatusHistoryEntry
	for rows.Next() {
		var (
			e      domain.StatusHistoryEntry
			status pgtype.Text
		)
		if err := rows.Scan(&e.ID, &e.Comment, &status, &e.IsCustomerNotified, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		e.Status = textValue(status)
		history = append(history, e)
	}
	return history, rows.Err()
}

// saveOrder writes state, status, invoice totals and unsaved history entries
func saveOrder(ctx context.Context, q ports.DBTX, order *domain.Order) error {
	invoiced, err := decimalToNumeric(order.TotalInvoiced)
	if err != nil {
		return err
	}
	paid := pgtype.Numeric{}
	if order.TotalPaid != nil {
		if paid, err = decimalToNumeric(*order.TotalPaid); err != nil {
			return err
		}
	}
	order.UpdatedAt = timeutil.Now()

	tag, err := q.Exec(ctx, updateOrder, order.ID, order.State, order.Status, invoiced, paid, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order %d: %w", order.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeOrderNotFound, domain.ErrOrderNotFound.Message).
			WithDetail("order_id", order.ID)
	}

	for _, item := range order.Items {
		qty, err := decimalToNumeric(item.QtyInvoiced)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, updateOrderItemQty, item.ID, qty, order.ID); err != nil {
			return fmt.Errorf("update order item %d: %w", item.ID, err)
		}
	}

	for i := range order.StatusHistory {
		entry := &order.StatusHistory[i]
		if entry.ID != 0 {
			continue
		}
		createdAt := timeutil.OrNow(entry.CreatedAt)
		if err := q.QueryRow(ctx, insertStatusHistory,
			order.ID, entry.Comment, nullText(entry.Status), entry.IsCustomerNotified, createdAt,
		).Scan(&entry.ID); err != nil {
			return fmt.Errorf("insert status history for order %d: %w", order.ID, err)
		}
	}

	return nil
}
