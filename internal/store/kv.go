// Package store persists per-visitor collections (cart, wishlist, toasts) in a
// key-value backend. Reads fail soft: anything missing or unreadable is an
// empty collection.
package store

import (
	"context"
	"errors"
	"time"
)

const keyPrefix = "storefront:"

var ErrUnavailable = errors.New("store unavailable")

// KV is the durable key-value space. Implementations must be safe for
// concurrent use; a single Set is atomic from the caller's point of view.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Key names one visitor's collection.
func Key(visitor, collection string) string {
	return keyPrefix + visitor + ":" + collection
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(parent)
	}
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
