package chat

import (
	"errors"
	"time"

	"github.com/wirefu/messageai/pkg/llm"
)

// Primary-path errors surfaced to API callers. Best-effort failures
// (context assembly, suggestions, caching, usage logging) never produce
// these; they degrade to empty results.
var (
	// ErrProcessingFailed is the generic chat-turn failure
	ErrProcessingFailed = errors.New("failed to process chat message")

	// ErrMessageNotFound is returned when an action references an unknown message
	ErrMessageNotFound = errors.New("message not found")

	// ErrUnknownAction is returned for unrecognized action ids
	ErrUnknownAction = errors.New("unknown action")
)

// Action is one AI action the client can invoke on a message.
type Action struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Response is the structured result of one chat turn.
type Response struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions"`
	Actions     []Action `json:"actions"`
	Context     []string `json:"context"`
}

// ActionResult is the outcome of executing an AI action.
type ActionResult struct {
	Success   bool        `json:"success"`
	ActionID  string      `json:"action_id"`
	Result    interface{} `json:"result"`
	Timestamp time.Time   `json:"timestamp"`
}

// StoredMessage is a team-messaging message persisted in the document store.
type StoredMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// History is a chat session's persisted turn sequence.
type History struct {
	Messages    []llm.ChatMessage `json:"messages"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// UsageStats holds per-user AI feature usage counters.
type UsageStats struct {
	UserID      string           `json:"user_id"`
	Counters    map[string]int64 `json:"counters"`
	LastUsedAt  time.Time        `json:"last_used_at"`
	TotalEvents int64            `json:"total_events"`
}
