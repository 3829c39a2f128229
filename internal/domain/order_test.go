package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestOrderItem_QtyToInvoice(t *testing.T) {
	tests := []struct {
		name                      string
		ordered, invoiced, cancel string
		want                      string
	}{
		{"nothing invoiced", "3", "0", "0", "3"},
		{"partially invoiced", "3", "1", "0", "2"},
		{"partially canceled", "3", "1", "1", "1"},
		{"over invoiced clamps to zero", "1", "2", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &OrderItem{QtyOrdered: dec(tt.ordered), QtyInvoiced: dec(tt.invoiced), QtyCanceled: dec(tt.cancel)}
			assert.True(t, dec(tt.want).Equal(item.QtyToInvoice()), "got %s", item.QtyToInvoice())
		})
	}
}

func TestOrder_CanInvoice(t *testing.T) {
	open := []*OrderItem{{ID: 1, QtyOrdered: dec("2")}}
	done := []*OrderItem{{ID: 1, QtyOrdered: dec("2"), QtyInvoiced: dec("2")}}

	tests := []struct {
		state string
		items []*OrderItem
		want  bool
	}{
		{OrderStateProcessing, open, true},
		{OrderStateNew, open, true},
		{OrderStateProcessing, done, false},
		{OrderStateCanceled, open, false},
		{OrderStateClosed, open, false},
		{OrderStateHolded, open, false},
		{OrderStatePaymentReview, open, false},
		{OrderStateProcessing, nil, false},
	}

	for _, tt := range tests {
		order := &Order{State: tt.state, Items: tt.items}
		assert.Equal(t, tt.want, order.CanInvoice(), "state %s", tt.state)
	}
}

func TestOrder_PaymentMethod(t *testing.T) {
	assert.Empty(t, (&Order{}).PaymentMethod())
	assert.Equal(t, "tamara_pay_later", (&Order{Payment: &Payment{Method: "tamara_pay_later"}}).PaymentMethod())
}

func TestOrder_AddStatusHistoryComment(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := &Order{}
	order.SetStateAndStatus(OrderStateProcessing, "processing")
	order.AddStatusHistoryComment("Notified customer about invoice #4.", true, at)

	require.Len(t, order.StatusHistory, 1)
	entry := order.StatusHistory[0]
	assert.Equal(t, "processing", entry.Status)
	assert.True(t, entry.IsCustomerNotified)
	assert.Zero(t, entry.ID)
	assert.Equal(t, at, entry.CreatedAt)
}

func TestResolveQuantity(t *testing.T) {
	tests := []struct {
		name                       string
		shipped, invoiced, ordered string
		want                       int64
	}{
		{"shipped wins", "2", "3", "4", 2},
		{"invoiced when nothing shipped", "0", "3", "4", 3},
		{"ordered as last resort", "0", "0", "4", 4},
		{"fraction truncated", "1.75", "0", "0", 1},
		{"fraction below one falls through", "0.5", "0", "2", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &OrderItem{QtyShipped: dec(tt.shipped), QtyInvoiced: dec(tt.invoiced), QtyOrdered: dec(tt.ordered)}
			qty, err := ResolveQuantity(item)
			require.NoError(t, err)
			assert.Equal(t, tt.want, qty)
		})
	}
}

func TestResolveQuantity_AllZero(t *testing.T) {
	_, err := ResolveQuantity(&OrderItem{ID: 12})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuantityUnresolved)
	assert.Equal(t, ErrorCodeQuantityUnresolved, GetErrorCode(err))
}

func TestItemTotal(t *testing.T) {
	item := &OrderItem{
		RowTotal:                      decPtr("200"),
		DiscountAmount:                dec("20"),
		TaxAmount:                     dec("27"),
		DiscountTaxCompensationAmount: dec("3"),
	}
	assert.True(t, dec("210").Equal(ItemTotal(item)), "got %s", ItemTotal(item))

	assert.True(t, ItemTotal(&OrderItem{TaxAmount: dec("5")}).IsZero(), "missing row total")
	assert.True(t, ItemTotal(&OrderItem{RowTotal: decPtr("0"), TaxAmount: dec("5")}).IsZero(), "zero row total")
}

func TestRefundIdempotencyKey(t *testing.T) {
	assert.Equal(t, "creditmemo-31", RefundIdempotencyKey(31))
}
