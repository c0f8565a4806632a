package vectordb

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemorySearcher is an in-process Searcher for development and tests.
// Searches are brute-force cosine scans over the stored vectors.
type MemorySearcher struct {
	mu      sync.RWMutex
	vectors map[string][]float32
	byID    map[string]Message
}

// NewMemorySearcher creates an empty in-memory searcher.
func NewMemorySearcher() *MemorySearcher {
	return &MemorySearcher{
		vectors: make(map[string][]float32),
		byID:    make(map[string]Message),
	}
}

// Upsert stores or replaces the vector for a message.
func (s *MemorySearcher) Upsert(_ context.Context, msg Message, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors[msg.ID] = append([]float32(nil), embedding...)
	s.byID[msg.ID] = msg
	return nil
}

// SearchByUser scans all vectors belonging to the user.
func (s *MemorySearcher) SearchByUser(_ context.Context, embedding []float32, userID string, limit int) ([]SearchResult, error) {
	return s.scan(embedding, limit, func(m Message) bool {
		return m.UserID == userID
	}), nil
}

// SearchByConversation scans all vectors within the conversation.
func (s *MemorySearcher) SearchByConversation(_ context.Context, embedding []float32, conversationID string, limit int, excludeID string) ([]SearchResult, error) {
	return s.scan(embedding, limit, func(m Message) bool {
		return m.ConversationID == conversationID && m.ID != excludeID
	}), nil
}

func (s *MemorySearcher) scan(embedding []float32, limit int, match func(Message) bool) []SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []SearchResult
	for id, vec := range s.vectors {
		msg := s.byID[id]
		if !match(msg) {
			continue
		}
		results = append(results, SearchResult{
			MessageID:      msg.ID,
			ConversationID: msg.ConversationID,
			UserID:         msg.UserID,
			Content:        msg.Content,
			Score:          CosineSimilarity(embedding, vec),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// GetMessageVector returns the stored vector for a message id.
func (s *MemorySearcher) GetMessageVector(_ context.Context, messageID string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vec, ok := s.vectors[messageID]
	if !ok {
		return nil, fmt.Errorf("no vector found for message %s", messageID)
	}
	return vec, nil
}

// CheckConnection always succeeds for the in-memory searcher.
func (s *MemorySearcher) CheckConnection(_ context.Context) error {
	return nil
}

// Close clears all stored vectors.
func (s *MemorySearcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors = make(map[string][]float32)
	s.byID = make(map[string]Message)
	return nil
}
