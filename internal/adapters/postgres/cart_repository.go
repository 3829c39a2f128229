package postgres

import (
	"context"
	"fmt"

	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

const deleteCart = `DELETE FROM quote WHERE id = $1`

// CartRepository implements ports.CartRemover
type CartRepository struct {
	db ports.DBPort
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db ports.DBPort) *CartRepository {
	return &CartRepository{db: db}
}

// RemoveCart deletes the cart. Removing a cart that no longer exists is not an error.
func (r *CartRepository) RemoveCart(ctx context.Context, cartID int64) error {
	if _, err := r.db.Conn().Exec(ctx, deleteCart, cartID); err != nil {
		return fmt.Errorf("delete cart %d: %w", cartID, err)
	}
	return nil
}
