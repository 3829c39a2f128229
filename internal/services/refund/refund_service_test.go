package refund_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/services/refund"
	"github.com/kevin07696/bnpl-service/test/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type refundDeps struct {
	orders  *mocks.MockOrderRepository
	memos   *mocks.MockCreditMemoRepository
	refs    *mocks.MockProviderOrderStore
	ledger  *mocks.MockRefundLedger
	gateway *mocks.MockProviderGateway
	logger  *mocks.MockLogger
}

func newRefundService(trigger bool) (*refund.Service, *refundDeps) {
	d := &refundDeps{
		orders:  new(mocks.MockOrderRepository),
		memos:   new(mocks.MockCreditMemoRepository),
		refs:    new(mocks.MockProviderOrderStore),
		ledger:  new(mocks.MockRefundLedger),
		gateway: new(mocks.MockProviderGateway),
		logger:  mocks.NewMockLogger(),
	}
	settings := mocks.StaticSettings{
		SuccessStatus: "processing",
		Trigger:       trigger,
		Methods:       []string{"tamara_pay_later"},
	}
	svc := refund.NewService(d.orders, d.memos, d.refs, d.ledger, d.gateway, settings, d.logger)
	return svc, d
}

func newOrder() *domain.Order {
	return &domain.Order{
		ID:           2001,
		State:        domain.OrderStateComplete,
		Status:       "complete",
		CurrencyCode: "SAR",
		GrandTotal:   dec("300"),
		Payment:      &domain.Payment{Method: "tamara_pay_later"},
	}
}

func newMemo() *domain.CreditMemo {
	return &domain.CreditMemo{
		ID:             31,
		OrderID:        2001,
		CurrencyCode:   "SAR",
		GrandTotal:     dec("115"),
		TaxAmount:      dec("15"),
		ShippingAmount: dec("0"),
		Items: []domain.CreditMemoItem{
			{OrderItemID: 1, ProductType: "simple", Name: "Shoes", SKU: "SH-1", Price: dec("100"), Qty: dec("1"), RowTotal: dec("100"), TaxAmount: dec("15")},
			{OrderItemID: 2, ProductType: "simple", Name: "Socks", SKU: "SO-1", Price: dec("10"), Qty: dec("0"), RowTotal: dec("0")},
		},
	}
}

func TestBuildRefundPayload(t *testing.T) {
	payload := refund.BuildRefundPayload(newMemo(), newOrder(), "tmr-9")

	assert.Equal(t, int64(2001), payload.OrderID)
	assert.Equal(t, int64(31), payload.CreditMemoID)
	assert.Equal(t, "tmr-9", payload.ProviderOrderID)
	assert.True(t, dec("115").Equal(payload.TotalAmount))
	assert.Equal(t, "SAR", payload.Currency)
	assert.Equal(t, "Refund for credit memo #31", payload.Comment)
	require.Len(t, payload.Items, 1, "zero quantity lines are not refunded")
	assert.True(t, dec("115").Equal(payload.Items[0].TotalAmount))
	assert.Equal(t, int64(1), payload.Items[0].Quantity)
}

func TestBuildRefundPayload_MemoCommentAndOrderCurrency(t *testing.T) {
	memo := newMemo()
	memo.Comment = "damaged on arrival"
	memo.CurrencyCode = ""

	payload := refund.BuildRefundPayload(memo, newOrder(), "tmr-9")
	assert.Equal(t, "damaged on arrival", payload.Comment)
	assert.Equal(t, "SAR", payload.Currency)
}

func TestBuildRefundPayload_ItemTotalIncludesDiscountTaxCompensation(t *testing.T) {
	memo := newMemo()
	memo.Items[0].DiscountAmount = dec("20")
	memo.Items[0].DiscountTaxCompensationAmount = dec("3")

	payload := refund.BuildRefundPayload(memo, newOrder(), "tmr-9")
	require.Len(t, payload.Items, 1)
	// 100 - 20 + 15 + 3
	assert.True(t, dec("98").Equal(payload.Items[0].TotalAmount))
}

func TestHandleCreditMemoCreated_Success(t *testing.T) {
	ctx := context.Background()
	svc, d := newRefundService(true)
	order := newOrder()
	memo := newMemo()

	d.memos.On("Get", ctx, memo.ID).Return(memo, nil)
	d.orders.On("Get", ctx, order.ID).Return(order, nil)
	d.refs.On("GetProviderOrderID", ctx, order.ID).Return("tmr-9", nil)
	d.gateway.On("Refund", ctx, mock.MatchedBy(func(p *domain.RefundPayload) bool {
		return p.CreditMemoID == memo.ID && p.TotalAmount.Equal(dec("115"))
	}), order).Return(&domain.ProviderResult{ProviderRefundID: "rf-1", ProviderCaptureID: "cap-1"}, nil)
	d.ledger.On("Append", ctx, mock.MatchedBy(func(r *domain.RefundRecord) bool {
		return r.ProviderRefundID == "rf-1" && r.CreditMemoID == memo.ID
	})).Return(nil)
	d.orders.On("Save", ctx, order).Return(nil)

	outcome, err := svc.HandleCreditMemoCreated(ctx, memo.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Refunded)
	require.NotNil(t, outcome.Record)
	assert.Equal(t, "cap-1", outcome.Record.ProviderCaptureID)

	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, "Refunded 115.00 SAR for credit memo #31.", order.StatusHistory[0].Comment)

	require.Len(t, d.logger.DebugCalls, 2)
	assert.Equal(t, "start to refund credit memo", d.logger.DebugCalls[0].Message)
	assert.Equal(t, "end to refund credit memo", d.logger.DebugCalls[1].Message)
	d.ledger.AssertExpectations(t)
	d.gateway.AssertExpectations(t)
}

func TestHandleCreditMemoCreated_TriggerActionsOff(t *testing.T) {
	ctx := context.Background()
	svc, d := newRefundService(false)

	outcome, err := svc.HandleCreditMemoCreated(ctx, 31)
	require.NoError(t, err)
	assert.False(t, outcome.Refunded)
	assert.Equal(t, "trigger actions disabled", outcome.Reason)

	d.memos.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	d.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, d.logger.DebugCalls, 2)
	assert.Equal(t, "trigger actions turned off", d.logger.DebugCalls[1].Message)
}

func TestRefundOrderByCreditMemo_ForeignMethod(t *testing.T) {
	ctx := context.Background()
	svc, d := newRefundService(true)
	order := newOrder()
	order.Payment.Method = "checkmo"

	d.orders.On("Get", ctx, order.ID).Return(order, nil)

	outcome, err := svc.RefundOrderByCreditMemo(ctx, newMemo())
	require.NoError(t, err)
	assert.False(t, outcome.Refunded)
	assert.Equal(t, "foreign payment method", outcome.Reason)
	d.refs.AssertNotCalled(t, "GetProviderOrderID", mock.Anything, mock.Anything)
	d.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefundOrderByCreditMemo_MissingReference(t *testing.T) {
	ctx := context.Background()
	svc, d := newRefundService(true)
	order := newOrder()

	d.orders.On("Get", ctx, order.ID).Return(order, nil)
	d.refs.On("GetProviderOrderID", ctx, order.ID).Return("", domain.ErrMissingProviderReference)

	_, err := svc.RefundOrderByCreditMemo(ctx, newMemo())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingProviderReference)
	d.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefundOrderByCreditMemo_ProviderFailure(t *testing.T) {
	ctx := context.Background()
	svc, d := newRefundService(true)
	order := newOrder()

	d.orders.On("Get", ctx, order.ID).Return(order, nil)
	d.refs.On("GetProviderOrderID", ctx, order.ID).Return("tmr-9", nil)
	d.gateway.On("Refund", ctx, mock.Anything, order).Return(nil, errors.New("provider returned 422"))

	_, err := svc.RefundOrderByCreditMemo(ctx, newMemo())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderCallFailed)
	d.ledger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	d.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRefundOrderByCreditMemo_LedgerFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	svc, d := newRefundService(true)
	order := newOrder()

	d.orders.On("Get", ctx, order.ID).Return(order, nil)
	d.refs.On("GetProviderOrderID", ctx, order.ID).Return("tmr-9", nil)
	d.gateway.On("Refund", ctx, mock.Anything, order).Return(&domain.ProviderResult{ProviderRefundID: "rf-2"}, nil)
	d.ledger.On("Append", ctx, mock.Anything).Return(errors.New("disk full"))
	d.orders.On("Save", ctx, order).Return(nil)

	outcome, err := svc.RefundOrderByCreditMemo(ctx, newMemo())
	require.NoError(t, err)
	assert.True(t, outcome.Refunded)
	require.Len(t, d.logger.ErrorCalls, 1)
	assert.Equal(t, "refund acknowledged but ledger append failed", d.logger.ErrorCalls[0].Message)
}

func TestHandleCreditMemoCreated_MemoNotFound(t *testing.T) {
	ctx := context.Background()
	svc, d := newRefundService(true)

	d.memos.On("Get", ctx, int64(99)).Return(nil, domain.ErrCreditMemoNotFound)

	_, err := svc.HandleCreditMemoCreated(ctx, 99)
	require.Error(t, err)
	assert.True(t, domain.IsNotFoundError(err))
}
