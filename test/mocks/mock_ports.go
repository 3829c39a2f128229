package mocks

import (
	"context"

	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository mocks ports.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockProviderOrderStore mocks ports.ProviderOrderStore
type MockProviderOrderStore struct {
	mock.Mock
}

func (m *MockProviderOrderStore) GetProviderOrderID(ctx context.Context, orderID int64) (string, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Error(1)
}

// MockCaptureLedger mocks ports.CaptureLedger
type MockCaptureLedger struct {
	mock.Mock
}

func (m *MockCaptureLedger) ListByOrder(ctx context.Context, orderID int64) ([]*domain.CaptureRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CaptureRecord), args.Error(1)
}

func (m *MockCaptureLedger) Append(ctx context.Context, record *domain.CaptureRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockRefundLedger mocks ports.RefundLedger
type MockRefundLedger struct {
	mock.Mock
}

func (m *MockRefundLedger) ListByOrder(ctx context.Context, orderID int64) ([]*domain.RefundRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RefundRecord), args.Error(1)
}

func (m *MockRefundLedger) Append(ctx context.Context, record *domain.RefundRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockCreditMemoRepository mocks ports.CreditMemoRepository
type MockCreditMemoRepository struct {
	mock.Mock
}

func (m *MockCreditMemoRepository) Get(ctx context.Context, creditMemoID int64) (*domain.CreditMemo, error) {
	args := m.Called(ctx, creditMemoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditMemo), args.Error(1)
}

// MockProviderGateway mocks ports.ProviderGateway
type MockProviderGateway struct {
	mock.Mock
}

func (m *MockProviderGateway) Capture(ctx context.Context, payload *domain.CapturePayload, order *domain.Order) (*domain.ProviderResult, error) {
	args := m.Called(ctx, payload, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderResult), args.Error(1)
}

func (m *MockProviderGateway) Refund(ctx context.Context, payload *domain.RefundPayload, order *domain.Order) (*domain.ProviderResult, error) {
	args := m.Called(ctx, payload, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderResult), args.Error(1)
}

// MockInvoiceStore mocks ports.InvoiceStore
type MockInvoiceStore struct {
	mock.Mock
}

func (m *MockInvoiceStore) SaveWithOrder(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceStore) MarkEmailSent(ctx context.Context, invoiceID int64) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}

// MockInvoiceNotifier mocks ports.InvoiceNotifier
type MockInvoiceNotifier struct {
	mock.Mock
}

func (m *MockInvoiceNotifier) SendInvoice(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockProductImageLookup mocks ports.ProductImageLookup
type MockProductImageLookup struct {
	mock.Mock
}

func (m *MockProductImageLookup) GetImageURL(ctx context.Context, productID int64) (string, error) {
	args := m.Called(ctx, productID)
	return args.String(0), args.Error(1)
}

// MockCartRemover mocks ports.CartRemover
type MockCartRemover struct {
	mock.Mock
}

func (m *MockCartRemover) RemoveCart(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

// StaticSession is a ports.SessionAccessor with a fixed cart
type StaticSession struct {
	CartID  int64
	HasCart bool
}

func (s StaticSession) ActiveCartID() (int64, bool) {
	return s.CartID, s.HasCart
}

// StaticSettings is a ports.CheckoutSettings with fixed values
type StaticSettings struct {
	SuccessStatus string
	Trigger       bool
	Methods       []string
}

func (s StaticSettings) CheckoutSuccessStatus() string { return s.SuccessStatus }

func (s StaticSettings) TriggerActions() bool { return s.Trigger }

func (s StaticSettings) IsProviderMethod(method string) bool {
	for _, m := range s.Methods {
		if m == method {
			return true
		}
	}
	return false
}

var _ ports.OrderLocker = (*NoopLocker)(nil)

// NoopLocker is a ports.OrderLocker that never blocks
type NoopLocker struct {
	Locks   int
	Unlocks int
}

func (l *NoopLocker) Lock(ctx context.Context, orderID int64) (func(), error) {
	l.Locks++
	return func() { l.Unlocks++ }, nil
}
