// Package repository provides keyed JSON document persistence and the
// per-user reading statistics store built on top of it.
package repository

import "context"

// DocStore is a key-addressed JSON document store. Values round-trip
// through encoding/json, so callers pass plain structs or maps.
type DocStore interface {
	// Get decodes the document at key into into. The boolean reports
	// whether the key existed; a missing key is not an error.
	Get(ctx context.Context, key string, into any) (bool, error)

	// Set encodes v and stores it at key, replacing any prior value.
	Set(ctx context.Context, key string, v any) error

	// Delete removes the document at key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}
