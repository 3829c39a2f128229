package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CaptureRecord is one acknowledged capture in the local ledger.
// Records are immutable once written.
type CaptureRecord struct {
	ID                string
	OrderID           int64
	ProviderOrderID   string
	ProviderCaptureID string
	TotalAmount       decimal.Decimal
	Currency          string
	CreatedAt         time.Time
}

// ProviderOrderReference links a local order to the provider's order
type ProviderOrderReference struct {
	OrderID            int64
	ProviderOrderID    string
	ProviderCheckoutID string
	PaymentType        string
	CreatedAt          time.Time
}

// CapturePayload is the provider-neutral capture request
type CapturePayload struct {
	OrderID         int64           `json:"order_id"`
	ProviderOrderID string          `json:"provider_order_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Currency        string          `json:"currency"`
	ShippingInfo    []ShipmentTrack `json:"shipping_info"`
	Items           []ItemPayload   `json:"items"`
}

// ItemPayload is a single line of a capture or refund request
type ItemPayload struct {
	OrderItemID    int64           `json:"order_item_id"`
	Type           string          `json:"type"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	Quantity       int64           `json:"quantity"`
	ImageURL       string          `json:"image_url"`
}

// ProviderResult is the provider acknowledgment of a capture or refund
type ProviderResult struct {
	ProviderOrderID   string
	ProviderCaptureID string
	ProviderRefundID  string
	Status            string
	Amount            decimal.Decimal
	Currency          string
	Timestamp         time.Time
}
