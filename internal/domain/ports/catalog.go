package ports

import "context"

// ProductImageLookup resolves a display image URL for a product
type ProductImageLookup interface {
	GetImageURL(ctx context.Context, productID int64) (string, error)
}
