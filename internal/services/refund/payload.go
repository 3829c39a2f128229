package refund

import (
	"fmt"

	"github.com/kevin07696/bnpl-service/internal/domain"
)

// BuildRefundPayload creates the provider refund request for a credit memo.
// Only memo items with a positive quantity are refunded.
func BuildRefundPayload(memo *domain.CreditMemo, order *domain.Order, providerOrderID string) *domain.RefundPayload {
	currency := memo.CurrencyCode
	if currency == "" {
		currency = order.CurrencyCode
	}

	comment := memo.Comment
	if comment == "" {
		comment = fmt.Sprintf("Refund for credit memo #%d", memo.ID)
	}

	payload := &domain.RefundPayload{
		OrderID:         order.ID,
		ProviderOrderID: providerOrderID,
		CreditMemoID:    memo.ID,
		TotalAmount:     memo.GrandTotal,
		TaxAmount:       memo.TaxAmount,
		ShippingAmount:  memo.ShippingAmount,
		DiscountAmount:  memo.DiscountAmount,
		Currency:        currency,
		Comment:         comment,
		Items:           make([]domain.ItemPayload, 0, len(memo.Items)),
	}

	for _, item := range memo.Items {
		if !item.Qty.IsPositive() {
			continue
		}
		payload.Items = append(payload.Items, domain.ItemPayload{
			OrderItemID:    item.OrderItemID,
			Type:           item.ProductType,
			TotalAmount:    item.Total(),
			TaxAmount:      item.TaxAmount,
			DiscountAmount: item.DiscountAmount,
			UnitPrice:      item.Price,
			Name:           item.Name,
			SKU:            item.SKU,
			Quantity:       item.Qty.IntPart(),
		})
	}

	return payload
}

