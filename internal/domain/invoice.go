package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice states
const (
	InvoiceStateOpen = "open"
	InvoiceStatePaid = "paid"
)

// Invoice bills the invoiceable part of an order
type Invoice struct {
	ID          int64
	OrderID     int64
	State       string
	GrandTotal  decimal.Decimal
	Currency    string
	Items       []InvoiceItem
	CreatedAt   time.Time
	Order       *Order
	EmailSent   bool
	IncrementID string
}

// InvoiceItem is the invoiced quantity of one order item
type InvoiceItem struct {
	OrderItemID int64
	Qty         decimal.Decimal
	RowTotal    decimal.Decimal
}

// PrepareInvoice builds an open invoice for the full invoiceable quantity of the order
func PrepareInvoice(order *Order, at time.Time) *Invoice {
	invoice := &Invoice{
		OrderID:   order.ID,
		State:     InvoiceStateOpen,
		Currency:  order.CurrencyCode,
		CreatedAt: at,
		Order:     order,
	}
	for _, item := range order.Items {
		qty := item.QtyToInvoice()
		if !qty.IsPositive() {
			continue
		}
		rowTotal := item.Price.Mul(qty)
		invoice.Items = append(invoice.Items, InvoiceItem{
			OrderItemID: item.ID,
			Qty:         qty,
			RowTotal:    rowTotal,
		})
	}
	invoice.GrandTotal = order.GrandTotal.Sub(order.TotalInvoiced)
	if invoice.GrandTotal.IsNegative() {
		invoice.GrandTotal = decimal.Zero
	}
	return invoice
}

// Register marks the invoice paid and applies it to the order.
// Invoiced quantities, TotalInvoiced and TotalPaid are raised.
func (inv *Invoice) Register() {
	inv.State = InvoiceStatePaid
	order := inv.Order
	if order == nil {
		return
	}
	byItem := make(map[int64]decimal.Decimal, len(inv.Items))
	for _, it := range inv.Items {
		byItem[it.OrderItemID] = it.Qty
	}
	for _, item := range order.Items {
		if qty, ok := byItem[item.ID]; ok {
			item.QtyInvoiced = item.QtyInvoiced.Add(qty)
		}
	}
	order.TotalInvoiced = order.TotalInvoiced.Add(inv.GrandTotal)

	// A paid invoice counts towards the order's paid total, capped at the grand total
	paid := inv.GrandTotal
	if order.TotalPaid != nil {
		paid = order.TotalPaid.Add(inv.GrandTotal)
	}
	if paid.GreaterThan(order.GrandTotal) {
		paid = order.GrandTotal
	}
	order.TotalPaid = &paid
	if order.State == OrderStateNew || order.State == OrderStatePendingPayment {
		order.SetStateAndStatus(OrderStateProcessing, OrderStateProcessing)
	}
}
