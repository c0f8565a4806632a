package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wirefu/messageai/pkg/cache"
	"github.com/wirefu/messageai/pkg/docstore"
	"github.com/wirefu/messageai/pkg/llm"
	"github.com/wirefu/messageai/pkg/observability/logging"
)

const historyCollection = "chatHistories"

// HistoryStore persists chat session history in the document store and
// mirrors every update into the server-side cache. Reads prefer the cache
// and fall back to the store, then to empty history.
//
// Appends are read-modify-write on the whole message array; a per-session
// mutex serializes concurrent turns within this process. Across processes
// the document store's last-write-wins semantics still apply, so a
// multi-node deployment can lose a concurrent turn's contribution.
type HistoryStore struct {
	store docstore.DocumentStore
	cache *cache.Cache

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// NewHistoryStore creates a history store over the given backends.
func NewHistoryStore(store docstore.DocumentStore, c *cache.Cache) *HistoryStore {
	return &HistoryStore{
		store:    store,
		cache:    c,
		sessions: make(map[string]*sync.Mutex),
	}
}

func (h *HistoryStore) sessionLock(sessionID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()

	lock, ok := h.sessions[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		h.sessions[sessionID] = lock
	}
	return lock
}

// Load returns the session's history: cache first, then document store,
// then empty. Store errors degrade to empty history (best-effort read).
func (h *HistoryStore) Load(ctx context.Context, sessionID string) []llm.ChatMessage {
	var hist History
	if h.cache.GetCachedChatSession(ctx, sessionID, &hist) {
		return hist.Messages
	}

	raw, err := h.store.Get(ctx, historyCollection, sessionID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		logging.Warnf("HistoryStore: load failed for session %s, starting empty: %v", sessionID, err)
		return nil
	}

	if err := json.Unmarshal(raw, &hist); err != nil {
		logging.Warnf("HistoryStore: corrupt history for session %s, starting empty: %v", sessionID, err)
		return nil
	}
	return hist.Messages
}

// Append adds turns to the session history and persists the result to the
// document store, mirroring it into the cache. The store write is the
// durable one; the cache write is best-effort.
func (h *HistoryStore) Append(ctx context.Context, sessionID string, turns ...llm.ChatMessage) error {
	lock := h.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	messages := append(h.Load(ctx, sessionID), turns...)
	hist := History{
		Messages:    messages,
		LastUpdated: time.Now(),
	}

	doc, err := json.Marshal(hist)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := h.store.Set(ctx, historyCollection, sessionID, doc); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}

	h.cache.CacheChatSession(ctx, sessionID, hist)
	return nil
}
