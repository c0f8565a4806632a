package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/wirefu/messageai/pkg/docstore"
	"github.com/wirefu/messageai/pkg/observability/logging"
)

const (
	messagesCollection      = "messages"
	conversationsCollection = "conversationMessages"
)

// MessageStore persists team-messaging messages and a per-conversation
// ordered index of message ids so recent messages can be fetched for
// context assembly and summarization.
type MessageStore struct {
	store docstore.DocumentStore

	mu            sync.Mutex
	conversations map[string]*sync.Mutex
}

// NewMessageStore creates a message store over the document store.
func NewMessageStore(store docstore.DocumentStore) *MessageStore {
	return &MessageStore{
		store:         store,
		conversations: make(map[string]*sync.Mutex),
	}
}

func (m *MessageStore) conversationLock(conversationID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.conversations[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		m.conversations[conversationID] = lock
	}
	return lock
}

// Save persists a message and appends its id to the conversation index.
func (m *MessageStore) Save(ctx context.Context, msg StoredMessage) error {
	doc, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := m.store.Set(ctx, messagesCollection, msg.ID, doc); err != nil {
		return fmt.Errorf("failed to persist message: %w", err)
	}

	if msg.ConversationID == "" {
		return nil
	}

	lock := m.conversationLock(msg.ConversationID)
	lock.Lock()
	defer lock.Unlock()

	ids := m.conversationIndex(ctx, msg.ConversationID)
	for _, id := range ids {
		if id == msg.ID {
			return nil
		}
	}
	ids = append(ids, msg.ID)

	indexDoc, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation index: %w", err)
	}
	if err := m.store.Set(ctx, conversationsCollection, msg.ConversationID, indexDoc); err != nil {
		return fmt.Errorf("failed to persist conversation index: %w", err)
	}
	return nil
}

// Get retrieves a message by id, returning ErrMessageNotFound when absent.
func (m *MessageStore) Get(ctx context.Context, messageID string) (StoredMessage, error) {
	raw, err := m.store.Get(ctx, messagesCollection, messageID)
	if errors.Is(err, docstore.ErrNotFound) {
		return StoredMessage{}, ErrMessageNotFound
	}
	if err != nil {
		return StoredMessage{}, fmt.Errorf("failed to load message %s: %w", messageID, err)
	}

	var msg StoredMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return StoredMessage{}, fmt.Errorf("corrupt message %s: %w", messageID, err)
	}
	return msg, nil
}

// Recent returns the last n messages of a conversation in order. Missing
// or unreadable messages are skipped.
func (m *MessageStore) Recent(ctx context.Context, conversationID string, n int) []StoredMessage {
	ids := m.conversationIndex(ctx, conversationID)
	if len(ids) == 0 {
		return nil
	}
	if n > 0 && len(ids) > n {
		ids = ids[len(ids)-n:]
	}

	messages := make([]StoredMessage, 0, len(ids))
	for _, id := range ids {
		msg, err := m.Get(ctx, id)
		if err != nil {
			logging.Debugf("MessageStore: skipping unreadable message %s: %v", id, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

func (m *MessageStore) conversationIndex(ctx context.Context, conversationID string) []string {
	raw, err := m.store.Get(ctx, conversationsCollection, conversationID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		logging.Debugf("MessageStore: conversation index read failed for %s: %v", conversationID, err)
		return nil
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		logging.Debugf("MessageStore: corrupt conversation index for %s: %v", conversationID, err)
		return nil
	}
	return ids
}
