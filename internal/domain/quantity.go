package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ResolveQuantity picks the quantity reported to the provider for an item.
// Priority: shipped, then invoiced, then ordered. Fractional quantities are truncated.
func ResolveQuantity(item *OrderItem) (int64, error) {
	for _, qty := range []decimal.Decimal{item.QtyShipped, item.QtyInvoiced, item.QtyOrdered} {
		if n := qty.IntPart(); n != 0 {
			return n, nil
		}
	}
	return 0, WrapError(ErrorCodeQuantityUnresolved, ErrQuantityUnresolved.Message,
		fmt.Errorf("order item %d", item.ID)).WithDetail("order_item_id", item.ID)
}

// ItemTotal returns rowTotal - discount + tax + discountTaxCompensation.
// An absent or zero row total yields zero.
func ItemTotal(item *OrderItem) decimal.Decimal {
	if item.RowTotal == nil || item.RowTotal.IsZero() {
		return decimal.Zero
	}
	return item.RowTotal.
		Sub(item.DiscountAmount).
		Add(item.TaxAmount).
		Add(item.DiscountTaxCompensationAmount)
}
