package ports

import "context"

// SessionAccessor exposes the active checkout session
type SessionAccessor interface {
	// ActiveCartID returns the in-progress cart id, false when the session has none
	ActiveCartID() (int64, bool)
}

// CartRemover removes a cart once its order has been placed
type CartRemover interface {
	RemoveCart(ctx context.Context, cartID int64) error
}
