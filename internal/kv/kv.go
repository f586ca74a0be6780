// Package kv provides the opaque key-value persistence boundary used by
// profile, address, favorites, ratings, and rewards data. Writes are
// last-write-wins; there are no transactional guarantees.
package kv

import "context"

// Store is a minimal get/set-by-key interface over JSON-encoded values.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
