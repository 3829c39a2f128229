package tamara

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money is an amount in the provider's wire format
type Money struct {
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

func money(amount decimal.Decimal, currency string) Money {
	return Money{Amount: json.Number(amount.StringFixed(2)), Currency: currency}
}

// Decimal parses the wire amount
func (m Money) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(m.Amount.String())
}

// CaptureRequest is the body of POST /payments/capture
type CaptureRequest struct {
	OrderID        string       `json:"order_id"`
	TotalAmount    Money        `json:"total_amount"`
	ShippingInfo   ShippingInfo `json:"shipping_info"`
	Items          []Item       `json:"items"`
	DiscountAmount Money        `json:"discount_amount"`
	ShippingAmount Money        `json:"shipping_amount"`
	TaxAmount      Money        `json:"tax_amount"`
}

// ShippingInfo identifies the shipment a capture is for
type ShippingInfo struct {
	ShippedAt       string `json:"shipped_at"`
	ShippingCompany string `json:"shipping_company"`
	TrackingNumber  string `json:"tracking_number,omitempty"`
}

// Item is one order line on the wire
type Item struct {
	ReferenceID    string `json:"reference_id"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	Quantity       int64  `json:"quantity"`
	UnitPrice      Money  `json:"unit_price"`
	TaxAmount      Money  `json:"tax_amount"`
	DiscountAmount Money  `json:"discount_amount"`
	TotalAmount    Money  `json:"total_amount"`
	ImageURL       string `json:"image_url,omitempty"`
}

// CaptureResponse is the provider acknowledgment of a capture
type CaptureResponse struct {
	CaptureID string `json:"capture_id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
}

// RefundRequest is the body of POST /payments/simplified-refund/{order_id}
type RefundRequest struct {
	TotalAmount Money  `json:"total_amount"`
	Comment     string `json:"comment"`
}

// RefundResponse is the provider acknowledgment of a refund
type RefundResponse struct {
	OrderID   string `json:"order_id"`
	RefundID  string `json:"refund_id"`
	CaptureID string `json:"capture_id"`
	Status    string `json:"status"`
}

// ErrorResponse is the provider error body
type ErrorResponse struct {
	Message string `json:"message"`
	Errors  []struct {
		ErrorCode string `json:"error_code"`
	} `json:"errors"`
}
