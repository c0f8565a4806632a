package docstore

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-process DocumentStore for development and tests.
// All data is lost on process exit.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]json.RawMessage // "<collection>/<key>" -> doc
	owners map[string][]string        // "<collection>/<ownerID>" -> keys
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string]json.RawMessage),
		owners: make(map[string][]string),
	}
}

func docKey(collection, key string) string {
	return collection + "/" + key
}

// Get retrieves a document, returning ErrNotFound when absent.
func (s *MemoryStore) Get(_ context.Context, collection, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[docKey(collection, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Set stores a document, replacing any existing value.
func (s *MemoryStore) Set(_ context.Context, collection, key string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[docKey(collection, key)] = append(json.RawMessage(nil), doc...)
	return nil
}

// Delete removes a document. Missing documents are ignored.
func (s *MemoryStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, docKey(collection, key))
	return nil
}

// SetOwned stores a document and records its owner tag.
func (s *MemoryStore) SetOwned(_ context.Context, collection, key, ownerID string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[docKey(collection, key)] = append(json.RawMessage(nil), doc...)

	ownerKey := docKey(collection, ownerID)
	for _, existing := range s.owners[ownerKey] {
		if existing == key {
			return nil
		}
	}
	s.owners[ownerKey] = append(s.owners[ownerKey], key)
	return nil
}

// DeleteByOwner removes every document tagged with ownerID in the collection.
func (s *MemoryStore) DeleteByOwner(_ context.Context, collection, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ownerKey := docKey(collection, ownerID)
	for _, key := range s.owners[ownerKey] {
		delete(s.docs, docKey(collection, key))
	}
	delete(s.owners, ownerKey)
	return nil
}

// CheckConnection always succeeds for the in-memory store.
func (s *MemoryStore) CheckConnection(_ context.Context) error {
	return nil
}

// Close clears all stored documents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = make(map[string]json.RawMessage)
	s.owners = make(map[string][]string)
	return nil
}
