// Package docstore provides a pluggable key→document store used as the
// system of record behind the server-side AI response cache, chat history,
// and usage counters. Backends: Redis and in-memory.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a document does not exist in the store.
var ErrNotFound = errors.New("document not found")

// DocumentStore defines the interface for durable JSON document storage.
// Implementations must be thread-safe. Writes are last-write-wins at
// document granularity; there are no cross-document transactions.
type DocumentStore interface {
	// Get retrieves the document stored under (collection, key).
	// Returns ErrNotFound when no document exists.
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)

	// Set stores a document under (collection, key), replacing any prior value.
	Set(ctx context.Context, collection, key string, doc json.RawMessage) error

	// Delete removes the document under (collection, key).
	// Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, key string) error

	// SetOwned stores a document and tags it with an owner id so it can be
	// removed later in one batch via DeleteByOwner.
	SetOwned(ctx context.Context, collection, key, ownerID string, doc json.RawMessage) error

	// DeleteByOwner removes every document in the collection tagged with ownerID.
	DeleteByOwner(ctx context.Context, collection, ownerID string) error

	// CheckConnection verifies the backing store is reachable.
	CheckConnection(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
