package docstore

import "context"

// Backend persists raw document bytes per key. Save must replace prior content
// atomically: readers see either the old bytes or the new bytes, never a mix.
type Backend interface {
	// Resolve returns the canonical identity of key; the store serializes on it.
	Resolve(key string) string
	// Load returns the stored bytes and whether the key exists.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
}
