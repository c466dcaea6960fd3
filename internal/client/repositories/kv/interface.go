// Package kv is the persistent key-value byte store underneath the vault
// store. Values are opaque; the vault store keeps JSON text in them.
package kv

import (
	"context"
)

// Repository is a flat key-value byte store.
//
// Contract:
//   - Get returns (nil, nil) when the key does not exist.
//   - Set inserts or overwrites.
//   - Delete of a missing key is not an error.
//   - List returns every pair; Clear removes every pair.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// Transactional is implemented by repositories that can run several writes
// atomically. fn receives a Repository bound to the transaction; returning
// an error discards every write made through it.
type Transactional interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
