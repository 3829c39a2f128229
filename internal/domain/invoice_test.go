package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceableOrder() *Order {
	return &Order{
		ID:            1001,
		State:         OrderStateNew,
		Status:        "pending",
		CurrencyCode:  "SAR",
		GrandTotal:    dec("230"),
		TotalInvoiced: dec("0"),
		Items: []*OrderItem{
			{ID: 1, Price: dec("100"), QtyOrdered: dec("2")},
			{ID: 2, Price: dec("30"), QtyOrdered: dec("1"), QtyInvoiced: dec("1")},
		},
	}
}

func TestPrepareInvoice(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := invoiceableOrder()

	invoice := PrepareInvoice(order, at)

	assert.Equal(t, InvoiceStateOpen, invoice.State)
	assert.Equal(t, "SAR", invoice.Currency)
	assert.Equal(t, at, invoice.CreatedAt)
	require.Len(t, invoice.Items, 1, "fully invoiced items are skipped")
	assert.Equal(t, int64(1), invoice.Items[0].OrderItemID)
	assert.True(t, dec("2").Equal(invoice.Items[0].Qty))
	assert.True(t, dec("200").Equal(invoice.Items[0].RowTotal))
	assert.True(t, dec("230").Equal(invoice.GrandTotal))
}

func TestPrepareInvoice_GrandTotalNeverNegative(t *testing.T) {
	order := invoiceableOrder()
	order.TotalInvoiced = dec("300")

	assert.True(t, PrepareInvoice(order, time.Now()).GrandTotal.IsZero())
}

func TestInvoice_Register(t *testing.T) {
	order := invoiceableOrder()
	invoice := PrepareInvoice(order, time.Now())

	invoice.Register()

	assert.Equal(t, InvoiceStatePaid, invoice.State)
	assert.True(t, dec("2").Equal(order.Items[0].QtyInvoiced))
	assert.True(t, dec("1").Equal(order.Items[1].QtyInvoiced), "untouched item keeps its quantity")
	assert.True(t, dec("230").Equal(order.TotalInvoiced))
	assert.Equal(t, OrderStateProcessing, order.State)
	assert.False(t, order.CanInvoice())
	require.NotNil(t, order.TotalPaid, "a paid invoice sets the paid total")
	assert.True(t, dec("230").Equal(*order.TotalPaid))
}

func TestInvoice_RegisterAddsToPaidTotal(t *testing.T) {
	order := invoiceableOrder()
	order.TotalInvoiced = dec("30")
	paid := dec("30")
	order.TotalPaid = &paid

	invoice := PrepareInvoice(order, time.Now())
	invoice.Register()

	require.NotNil(t, order.TotalPaid)
	assert.True(t, dec("230").Equal(*order.TotalPaid))
}

func TestInvoice_RegisterCapsPaidAtGrandTotal(t *testing.T) {
	order := invoiceableOrder()
	paid := dec("200")
	order.TotalPaid = &paid

	PrepareInvoice(order, time.Now()).Register()

	require.NotNil(t, order.TotalPaid)
	assert.True(t, dec("230").Equal(*order.TotalPaid))
}

func TestInvoice_RegisterKeepsLaterState(t *testing.T) {
	order := invoiceableOrder()
	order.SetStateAndStatus(OrderStateComplete, "complete")

	PrepareInvoice(order, time.Now()).Register()

	assert.Equal(t, OrderStateComplete, order.State)
}

func TestInvoice_RegisterWithoutOrder(t *testing.T) {
	invoice := &Invoice{State: InvoiceStateOpen}
	invoice.Register()
	assert.Equal(t, InvoiceStatePaid, invoice.State)
}
