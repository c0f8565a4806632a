package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wirefu/messageai/pkg/docstore"
	"github.com/wirefu/messageai/pkg/observability/logging"
)

const usageCollection = "aiUsage"

// UsageRecorder keeps per-user AI feature usage counters in the document
// store. Recording is best-effort: failures are logged and absorbed so
// usage accounting can never break a feature.
type UsageRecorder struct {
	store docstore.DocumentStore

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// NewUsageRecorder creates a usage recorder over the document store.
func NewUsageRecorder(store docstore.DocumentStore) *UsageRecorder {
	return &UsageRecorder{
		store: store,
		users: make(map[string]*sync.Mutex),
	}
}

func (u *UsageRecorder) userLock(userID string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()

	lock, ok := u.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		u.users[userID] = lock
	}
	return lock
}

// Record increments the named feature counter for a user. Calls without a
// user id are dropped so anonymous requests do not accrete a junk document.
func (u *UsageRecorder) Record(ctx context.Context, userID, feature string) {
	if userID == "" {
		return
	}

	lock := u.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	stats := u.load(ctx, userID)
	stats.Counters[feature]++
	stats.TotalEvents++
	stats.LastUsedAt = time.Now()

	doc, err := json.Marshal(stats)
	if err != nil {
		logging.Warnf("UsageRecorder: failed to marshal stats for %s: %v", userID, err)
		return
	}
	if err := u.store.Set(ctx, usageCollection, userID, doc); err != nil {
		logging.Warnf("UsageRecorder: failed to persist stats for %s: %v", userID, err)
	}
}

// Stats returns the user's usage counters, zeroed when absent or on error.
func (u *UsageRecorder) Stats(ctx context.Context, userID string) UsageStats {
	return u.load(ctx, userID)
}

func (u *UsageRecorder) load(ctx context.Context, userID string) UsageStats {
	zero := UsageStats{
		UserID:   userID,
		Counters: make(map[string]int64),
	}

	raw, err := u.store.Get(ctx, usageCollection, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return zero
	}
	if err != nil {
		logging.Warnf("UsageRecorder: load failed for %s, returning zeroed stats: %v", userID, err)
		return zero
	}

	var stats UsageStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		logging.Warnf("UsageRecorder: corrupt stats for %s, returning zeroed stats: %v", userID, err)
		return zero
	}
	if stats.Counters == nil {
		stats.Counters = make(map[string]int64)
	}
	stats.UserID = userID
	return stats
}
