package apiserver

import "github.com/wirefu/messageai/pkg/chat"

// SummarizeRequest asks for a structured summary of a conversation.
type SummarizeRequest struct {
	ConversationID string `json:"conversation_id"`
	MessageCount   int    `json:"message_count,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// ClarityRequest asks whether a draft message is clear.
type ClarityRequest struct {
	Message string   `json:"message"`
	Context []string `json:"context,omitempty"`
	UserID  string   `json:"user_id,omitempty"`
}

// ActionItemsRequest asks for action items from messages or a conversation.
type ActionItemsRequest struct {
	Messages       []string `json:"messages,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
	UserID         string   `json:"user_id,omitempty"`
}

// ToneRequest asks for a tone analysis of a message.
type ToneRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// ChatRequest is one turn of the conversational assistant.
type ChatRequest struct {
	UserID         string `json:"user_id"`
	Message        string `json:"message"`
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatActionRequest executes an AI action against a stored message.
type ChatActionRequest struct {
	ActionID   string            `json:"action_id"`
	MessageID  string            `json:"message_id"`
	Parameters map[string]string `json:"parameters,omitempty"`
	UserID     string            `json:"user_id"`
}

// ChatSuggestionsRequest asks for proactive suggestions for a conversation.
type ChatSuggestionsRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// SearchRequest runs a semantic search over the user's messages.
type SearchRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
}

// IngestMessageRequest persists and indexes one message.
type IngestMessageRequest struct {
	Message chat.StoredMessage `json:"message"`
}

// BatchIngestRequest persists and indexes a batch of messages.
type BatchIngestRequest struct {
	Messages []chat.StoredMessage `json:"messages"`
}
