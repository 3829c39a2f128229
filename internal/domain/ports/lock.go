package ports

import "context"

// OrderLocker serializes work on a single order.
// The returned unlock func must be called exactly once.
type OrderLocker interface {
	Lock(ctx context.Context, orderID int64) (unlock func(), err error)
}
