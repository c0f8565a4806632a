package cache

import (
	"encoding/base64"
	"fmt"
)

// Feature key prefixes. These formats are shared with existing deployments
// and must not change.
const (
	embeddingKeyPrefix   = "embedding:"
	searchKeyPrefix      = "search:"
	chatSessionKeyPrefix = "chat:"
	turnKeyPrefix        = "ai_response:"
)

// Default TTLs per artifact type, in seconds.
const (
	DefaultTTLSeconds     = 3600
	EmbeddingTTLSeconds   = 86400
	SearchTTLSeconds      = 1800
	ChatSessionTTLSeconds = 3600
)

// SearchScope narrows a search-result cache key to a requesting user and
// result limit. A zero scope reproduces the legacy query-text-only key,
// under which all users share one cached result set per query.
type SearchScope struct {
	UserID string
	Limit  int
}

// EmbeddingKey builds the cache key for a message embedding.
func EmbeddingKey(messageID string) string {
	return embeddingKeyPrefix + messageID
}

// SearchKey builds the cache key for a search-result set. The query text is
// base64-encoded so arbitrary strings, including non-ASCII, round-trip
// symmetrically between write and read.
func SearchKey(query string, scope SearchScope) string {
	key := searchKeyPrefix + base64.StdEncoding.EncodeToString([]byte(query))
	if scope.UserID != "" {
		key += fmt.Sprintf(":%s:%d", scope.UserID, scope.Limit)
	}
	return key
}

// ChatSessionKey builds the cache key for a chat session's mirrored history.
func ChatSessionKey(sessionID string) string {
	return chatSessionKeyPrefix + sessionID
}

// TurnKey builds the timestamped cache key for one chat turn's output.
func TurnKey(sessionID string, epochMillis int64) string {
	return fmt.Sprintf("%s%s:%d", turnKeyPrefix, sessionID, epochMillis)
}
