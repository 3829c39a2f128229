package ports

import (
	"context"

	"github.com/kevin07696/bnpl-service/internal/domain"
)

// ProviderGateway is the BNPL provider API.
// A nil error means the provider acknowledged the operation.
type ProviderGateway interface {
	// Capture captures a part or the whole of the authorized order amount
	Capture(ctx context.Context, payload *domain.CapturePayload, order *domain.Order) (*domain.ProviderResult, error)

	// Refund refunds a captured amount
	Refund(ctx context.Context, payload *domain.RefundPayload, order *domain.Order) (*domain.ProviderResult, error)
}
