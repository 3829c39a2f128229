package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

const selectProductImage = `
SELECT file
FROM catalog_product_image
WHERE product_id = $1
ORDER BY position, file
LIMIT 1`

// ProductImageRepository resolves product image URLs from the catalog media gallery
type ProductImageRepository struct {
	db           ports.DBPort
	mediaBaseURL string
}

// NewProductImageRepository creates an image lookup rooted at mediaBaseURL
func NewProductImageRepository(db ports.DBPort, mediaBaseURL string) *ProductImageRepository {
	return &ProductImageRepository{
		db:           db,
		mediaBaseURL: strings.TrimRight(mediaBaseURL, "/"),
	}
}

// GetImageURL returns the first gallery image, empty when the product has none
func (r *ProductImageRepository) GetImageURL(ctx context.Context, productID int64) (string, error) {
	var file string
	err := r.db.Conn().QueryRow(ctx, selectProductImage, productID).Scan(&file)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select product image %d: %w", productID, err)
	}
	return r.mediaBaseURL + "/catalog/product/" + strings.TrimLeft(file, "/"), nil
}
