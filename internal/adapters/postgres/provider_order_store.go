package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

const selectProviderReference = `
SELECT order_id, provider_order_id, provider_checkout_id, payment_type, created_at
FROM provider_order_references
WHERE order_id = $1`

const upsertProviderReference = `
INSERT INTO provider_order_references (order_id, provider_order_id, provider_checkout_id, payment_type, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (order_id) DO UPDATE
SET provider_order_id = EXCLUDED.provider_order_id,
    provider_checkout_id = EXCLUDED.provider_checkout_id,
    payment_type = EXCLUDED.payment_type`

// ProviderOrderStore implements ports.ProviderOrderStore
type ProviderOrderStore struct {
	db ports.DBPort
}

// NewProviderOrderStore creates a new provider reference store
func NewProviderOrderStore(db ports.DBPort) *ProviderOrderStore {
	return &ProviderOrderStore{db: db}
}

// GetReference loads the full reference row
func (s *ProviderOrderStore) GetReference(ctx context.Context, orderID int64) (*domain.ProviderOrderReference, error) {
	var (
		ref                 domain.ProviderOrderReference
		checkoutID, payType pgtype.Text
	)
	err := s.db.Conn().QueryRow(ctx, selectProviderReference, orderID).
		Scan(&ref.OrderID, &ref.ProviderOrderID, &checkoutID, &payType, &ref.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrorCodeMissingProviderReference, domain.ErrMissingProviderReference.Message, err).
			WithDetail("order_id", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("select provider reference: %w", err)
	}
	ref.ProviderCheckoutID = textValue(checkoutID)
	ref.PaymentType = textValue(payType)
	return &ref, nil
}

// GetProviderOrderID returns the provider order id, an error when it is absent or empty
func (s *ProviderOrderStore) GetProviderOrderID(ctx context.Context, orderID int64) (string, error) {
	ref, err := s.GetReference(ctx, orderID)
	if err != nil {
		return "", err
	}
	if ref.ProviderOrderID == "" {
		return "", domain.NewDomainError(domain.ErrorCodeMissingProviderReference, domain.ErrMissingProviderReference.Message).
			WithDetail("order_id", orderID)
	}
	return ref.ProviderOrderID, nil
}

// Save links an order to its provider order, replacing any previous link
func (s *ProviderOrderStore) Save(ctx context.Context, ref *domain.ProviderOrderReference) error {
	_, err := s.db.Conn().Exec(ctx, upsertProviderReference,
		ref.OrderID, ref.ProviderOrderID, nullText(ref.ProviderCheckoutID), nullText(ref.PaymentType), ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("save provider reference: %w", err)
	}
	return nil
}
