package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order states understood by the connector
const (
	OrderStateNew            = "new"
	OrderStatePendingPayment = "pending_payment"
	OrderStateProcessing     = "processing"
	OrderStateComplete       = "complete"
	OrderStateClosed         = "closed"
	OrderStateCanceled       = "canceled"
	OrderStateHolded         = "holded"
	OrderStatePaymentReview  = "payment_review"
)

// Order is the host platform order as seen by the connector.
// The connector only mutates State, Status, StatusHistory and invoice bookkeeping.
type Order struct {
	ID             int64
	IncrementID    string
	State          string
	Status         string
	CurrencyCode   string
	CustomerEmail  string
	GrandTotal     decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalPaid      *decimal.Decimal // nil when nothing has been paid yet
	TotalInvoiced  decimal.Decimal
	Payment        *Payment
	Items          []*OrderItem
	Tracks         []ShipmentTrack
	StatusHistory  []StatusHistoryEntry
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Payment is the payment attached to an order
type Payment struct {
	Method string
}

// OrderItem is a single order line
type OrderItem struct {
	ID                            int64
	ProductID                     int64
	ProductType                   string
	Name                          string
	SKU                           string
	Price                         decimal.Decimal
	RowTotal                      *decimal.Decimal // nil when the platform has no row total
	TaxAmount                     decimal.Decimal
	DiscountAmount                decimal.Decimal
	DiscountTaxCompensationAmount decimal.Decimal
	QtyOrdered                    decimal.Decimal
	QtyShipped                    decimal.Decimal
	QtyInvoiced                   decimal.Decimal
	QtyRefunded                   decimal.Decimal
	QtyCanceled                   decimal.Decimal
}

// QtyToInvoice returns the quantity that has not been invoiced or canceled yet
func (i *OrderItem) QtyToInvoice() decimal.Decimal {
	qty := i.QtyOrdered.Sub(i.QtyInvoiced).Sub(i.QtyCanceled)
	if qty.IsNegative() {
		return decimal.Zero
	}
	return qty
}

// ShipmentTrack is raw tracking data attached to a shipment
type ShipmentTrack struct {
	TrackNumber string    `json:"track_number"`
	Title       string    `json:"title"`
	CarrierCode string    `json:"carrier_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusHistoryEntry is a comment on the order timeline
type StatusHistoryEntry struct {
	ID                 int64 // zero until persisted
	Comment            string
	Status             string
	IsCustomerNotified bool
	CreatedAt          time.Time
}

// PaymentMethod returns the payment method code, empty if the order has no payment
func (o *Order) PaymentMethod() string {
	if o.Payment == nil {
		return ""
	}
	return o.Payment.Method
}

// CanInvoice reports whether the order is in an invoiceable state
func (o *Order) CanInvoice() bool {
	switch o.State {
	case OrderStateCanceled, OrderStateClosed, OrderStateHolded, OrderStatePaymentReview:
		return false
	}
	for _, item := range o.Items {
		if item.QtyToInvoice().IsPositive() {
			return true
		}
	}
	return false
}

// SetStateAndStatus moves the order to the given state and status
func (o *Order) SetStateAndStatus(state, status string) {
	o.State = state
	o.Status = status
}

// AddStatusHistoryComment appends a comment using the current order status
func (o *Order) AddStatusHistoryComment(comment string, notified bool, at time.Time) {
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Comment:            comment,
		Status:             o.Status,
		IsCustomerNotified: notified,
		CreatedAt:          at,
	})
}
