package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreditMemo is a refund document created by the host platform
type CreditMemo struct {
	ID                 int64
	OrderID            int64
	IncrementID        string
	CurrencyCode       string
	GrandTotal         decimal.Decimal
	SubTotal           decimal.Decimal
	TaxAmount          decimal.Decimal
	ShippingAmount     decimal.Decimal
	DiscountAmount     decimal.Decimal
	AdjustmentPositive decimal.Decimal
	AdjustmentNegative decimal.Decimal
	Comment            string
	Items              []CreditMemoItem
	CreatedAt          time.Time
}

// CreditMemoItem is a refunded line of a credit memo
type CreditMemoItem struct {
	OrderItemID    int64
	ProductType    string
	Name           string
	SKU            string
	Price          decimal.Decimal
	Qty            decimal.Decimal
	RowTotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal

	DiscountTaxCompensationAmount decimal.Decimal
}

// Total is the refunded line amount, computed like the captured line amount
func (i CreditMemoItem) Total() decimal.Decimal {
	return i.RowTotal.Sub(i.DiscountAmount).Add(i.TaxAmount).Add(i.DiscountTaxCompensationAmount)
}

// RefundPayload is the provider-neutral refund request
type RefundPayload struct {
	OrderID         int64           `json:"order_id"`
	ProviderOrderID string          `json:"provider_order_id"`
	CreditMemoID    int64           `json:"credit_memo_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Currency        string          `json:"currency"`
	Comment         string          `json:"comment"`
	Items           []ItemPayload   `json:"items"`
}

// RefundRecord is one acknowledged refund in the local refund ledger
type RefundRecord struct {
	ID                string
	OrderID           int64
	CreditMemoID      int64
	ProviderOrderID   string
	ProviderRefundID  string
	ProviderCaptureID string
	TotalAmount       decimal.Decimal
	Currency          string
	CreatedAt         time.Time
}

// RefundIdempotencyKey is the provider idempotency key of a credit memo refund
func RefundIdempotencyKey(creditMemoID int64) string {
	return fmt.Sprintf("creditmemo-%d", creditMemoID)
}
