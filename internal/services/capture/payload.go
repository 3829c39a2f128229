package capture

import (
	"context"
	"fmt"

	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

// PayloadBuilder turns an order into a provider capture request
type PayloadBuilder struct {
	images      ports.ProductImageLookup
	placeholder string
	logger      ports.Logger
}

// NewPayloadBuilder creates a payload builder.
// placeholder is used as image URL when the image lookup fails.
func NewPayloadBuilder(images ports.ProductImageLookup, placeholder string, logger ports.Logger) *PayloadBuilder {
	return &PayloadBuilder{
		images:      images,
		placeholder: placeholder,
		logger:      logger,
	}
}

// Build creates the capture payload for order.
// Items whose computed total is zero or less are left out.
func (b *PayloadBuilder) Build(ctx context.Context, order *domain.Order, providerOrderID string) (*domain.CapturePayload, error) {
	if providerOrderID == "" {
		return nil, domain.WrapError(domain.ErrorCodeMissingProviderReference,
			domain.ErrMissingProviderReference.Message,
			fmt.Errorf("order %d", order.ID)).WithDetail("order_id", order.ID)
	}

	payload := &domain.CapturePayload{
		OrderID:         order.ID,
		ProviderOrderID: providerOrderID,
		TotalAmount:     order.GrandTotal,
		TaxAmount:       order.TaxAmount,
		ShippingAmount:  order.ShippingAmount,
		DiscountAmount:  order.DiscountAmount,
		Currency:        order.CurrencyCode,
		ShippingInfo:    make([]domain.ShipmentTrack, 0, len(order.Tracks)),
		Items:           make([]domain.ItemPayload, 0, len(order.Items)),
	}
	payload.ShippingInfo = append(payload.ShippingInfo, order.Tracks...)

	for _, item := range order.Items {
		total := domain.ItemTotal(item)
		if !total.IsPositive() {
			continue
		}

		qty, err := domain.ResolveQuantity(item)
		if err != nil {
			return nil, fmt.Errorf("resolve quantity for order %d: %w", order.ID, err)
		}

		payload.Items = append(payload.Items, domain.ItemPayload{
			OrderItemID:    item.ID,
			Type:           item.ProductType,
			TotalAmount:    total,
			TaxAmount:      item.TaxAmount,
			DiscountAmount: item.DiscountAmount,
			UnitPrice:      item.Price,
			Name:           item.Name,
			SKU:            item.SKU,
			Quantity:       qty,
			ImageURL:       b.imageURL(ctx, item),
		})
	}

	return payload, nil
}

// imageURL looks up the product image, falling back to the placeholder
func (b *PayloadBuilder) imageURL(ctx context.Context, item *domain.OrderItem) string {
	if b.images == nil {
		return b.placeholder
	}
	url, err := b.images.GetImageURL(ctx, item.ProductID)
	if err != nil {
		b.logger.Warn("product image lookup failed",
			ports.Int64("product_id", item.ProductID),
			ports.Int64("order_item_id", item.ID),
			ports.Err(err))
		return b.placeholder
	}
	if url == "" {
		return b.placeholder
	}
	return url
}
