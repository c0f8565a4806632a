package vectordb

import "context"

// Message is an indexable chat message.
type Message struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	UserID         string            `json:"user_id"`
	Content        string            `json:"content"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// SearchResult is one ranked match from a similarity search.
type SearchResult struct {
	MessageID      string  `json:"message_id"`
	ConversationID string  `json:"conversation_id"`
	UserID         string  `json:"user_id"`
	Content        string  `json:"content"`
	Score          float32 `json:"score"`
}

// Embedder turns text into a fixed-length vector. Implemented by the
// OpenAI provider; tests inject fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the vector search provider: it stores message vectors and
// answers nearest-neighbor queries scoped to a user or a conversation.
type Searcher interface {
	// Upsert stores or replaces the vector for a message.
	Upsert(ctx context.Context, msg Message, embedding []float32) error

	// SearchByUser returns the nearest messages accessible to the user.
	SearchByUser(ctx context.Context, embedding []float32, userID string, limit int) ([]SearchResult, error)

	// SearchByConversation returns the nearest messages within one
	// conversation, excluding excludeID when non-empty.
	SearchByConversation(ctx context.Context, embedding []float32, conversationID string, limit int, excludeID string) ([]SearchResult, error)

	// GetMessageVector returns the stored vector for a message id.
	GetMessageVector(ctx context.Context, messageID string) ([]float32, error)

	// CheckConnection verifies the provider is reachable.
	CheckConnection(ctx context.Context) error

	// Close releases provider resources.
	Close() error
}
