// Package cache implements the server-side AI response cache: a TTL-bounded
// key→JSON-value store layered over the document store. Expiry is lazy
// (expired entries are deleted on read, never swept) and every exported
// operation is fail-open: a store error degrades to a miss or a no-op and
// never propagates to the caller's primary flow.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wirefu/messageai/pkg/config"
	"github.com/wirefu/messageai/pkg/docstore"
	"github.com/wirefu/messageai/pkg/observability/logging"
	"github.com/wirefu/messageai/pkg/observability/metrics"
)

// cacheCollection is the document-store namespace for cache entries.
const cacheCollection = "aiCache"

// envelope is the stored form of a cache entry. The field names are part
// of the stored schema shared with existing deployments and must not change.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Cache is the server-side TTL cache over a document store.
type Cache struct {
	store     docstore.DocumentStore
	cfg       config.CacheConfig
	enabled   bool
	hitCount  int64
	missCount int64
}

// Stats holds cache performance counters.
type Stats struct {
	HitCount  int64   `json:"hit_count"`
	MissCount int64   `json:"miss_count"`
	HitRatio  float64 `json:"hit_ratio"`
}

// New creates a server-side cache over the given document store.
func New(store docstore.DocumentStore, cfg config.CacheConfig) *Cache {
	logging.Debugf("Cache: initializing (backend=%s, enabled=%t, default_ttl=%ds)",
		cfg.BackendType, cfg.Enabled, cfg.DefaultTTLSeconds)
	return &Cache{
		store:   store,
		cfg:     cfg,
		enabled: cfg.Enabled,
	}
}

// IsEnabled returns whether caching is active. A disabled cache misses on
// every read and drops every write.
func (c *Cache) IsEnabled() bool {
	return c.enabled
}

// put writes an entry with the given TTL. Internal and error-returning so
// the swallow-and-degrade policy stays auditable at the exported boundary.
func (c *Cache) put(ctx context.Context, key string, value interface{}, ttlSeconds int, ownerID string) error {
	if ttlSeconds <= 0 {
		ttlSeconds = c.defaultTTL()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	now := time.Now()
	doc, err := json.Marshal(envelope{
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(ttlSeconds) * time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache envelope: %w", err)
	}

	if ownerID != "" {
		return c.store.SetOwned(ctx, cacheCollection, key, ownerID, doc)
	}
	return c.store.Set(ctx, cacheCollection, key, doc)
}

// get reads an entry, applying lazy expiry: an entry whose expires_at has
// passed is deleted and reported absent.
func (c *Cache) get(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, err := c.store.Get(ctx, cacheCollection, key)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache envelope: %w", err)
	}

	if time.Now().After(env.ExpiresAt) {
		// Lazy expiry: remove the stale entry so subsequent reads miss too
		if delErr := c.store.Delete(ctx, cacheCollection, key); delErr != nil {
			logging.Debugf("Cache: failed to delete expired entry %q: %v", key, delErr)
		}
		logging.LogEvent("cache_entry_expired", map[string]interface{}{
			"key":        key,
			"expires_at": env.ExpiresAt,
		})
		return false, nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

// Put stores a value under key with the given TTL in seconds. Zero or
// negative TTL selects the configured default. Errors are logged and
// swallowed: caching is best-effort, not a correctness dependency.
func (c *Cache) Put(ctx context.Context, key string, value interface{}, ttlSeconds int) {
	c.PutOwned(ctx, key, "", value, ttlSeconds)
}

// PutOwned stores a value and tags it with an owner id so InvalidateByOwner
// can remove it later. An empty ownerID stores an untagged entry.
func (c *Cache) PutOwned(ctx context.Context, key, ownerID string, value interface{}, ttlSeconds int) {
	if !c.enabled {
		return
	}
	start := time.Now()

	if err := c.put(ctx, key, value, ttlSeconds, ownerID); err != nil {
		logging.Warnf("Cache: put failed for key %q: %v", key, err)
		metrics.RecordCacheOperation("docstore", "put", "error", time.Since(start).Seconds())
		return
	}
	metrics.RecordCacheOperation("docstore", "put", "success", time.Since(start).Seconds())
}

// Get reads the value under key into out, returning true on a hit. Expired
// entries are eagerly deleted and reported absent. Store errors are logged
// and treated as a miss (fail open).
func (c *Cache) Get(ctx context.Context, key string, out interface{}) bool {
	if !c.enabled {
		return false
	}
	start := time.Now()

	found, err := c.get(ctx, key, out)
	if err != nil {
		logging.Warnf("Cache: get failed for key %q, treating as miss: %v", key, err)
		metrics.RecordCacheOperation("docstore", "get", "error", time.Since(start).Seconds())
		atomic.AddInt64(&c.missCount, 1)
		metrics.RecordCacheMiss()
		return false
	}
	if !found {
		metrics.RecordCacheOperation("docstore", "get", "miss", time.Since(start).Seconds())
		atomic.AddInt64(&c.missCount, 1)
		metrics.RecordCacheMiss()
		return false
	}

	metrics.RecordCacheOperation("docstore", "get", "hit", time.Since(start).Seconds())
	atomic.AddInt64(&c.hitCount, 1)
	metrics.RecordCacheHit()
	return true
}

// Invalidate deletes the entry under key unconditionally. Errors are
// logged and swallowed.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if !c.enabled {
		return
	}
	start := time.Now()

	if err := c.store.Delete(ctx, cacheCollection, key); err != nil {
		logging.Warnf("Cache: invalidate failed for key %q: %v", key, err)
		metrics.RecordCacheOperation("docstore", "invalidate", "error", time.Since(start).Seconds())
		return
	}
	metrics.RecordCacheOperation("docstore", "invalidate", "success", time.Since(start).Seconds())
}

// InvalidateByOwner deletes every entry tagged with ownerID in one batch.
// Errors are logged and swallowed.
func (c *Cache) InvalidateByOwner(ctx context.Context, ownerID string) {
	if !c.enabled {
		return
	}
	start := time.Now()

	if err := c.store.DeleteByOwner(ctx, cacheCollection, ownerID); err != nil {
		logging.Warnf("Cache: invalidate by owner failed for %q: %v", ownerID, err)
		metrics.RecordCacheOperation("docstore", "invalidate_owner", "error", time.Since(start).Seconds())
		return
	}
	logging.LogEvent("cache_invalidated_by_owner", map[string]interface{}{
		"owner_id": ownerID,
	})
	metrics.RecordCacheOperation("docstore", "invalidate_owner", "success", time.Since(start).Seconds())
}

// GetStats provides current cache hit/miss counters.
func (c *Cache) GetStats() Stats {
	hits := atomic.LoadInt64(&c.hitCount)
	misses := atomic.LoadInt64(&c.missCount)
	total := hits + misses

	var hitRatio float64
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return Stats{
		HitCount:  hits,
		MissCount: misses,
		HitRatio:  hitRatio,
	}
}

func (c *Cache) defaultTTL() int {
	if c.cfg.DefaultTTLSeconds > 0 {
		return c.cfg.DefaultTTLSeconds
	}
	return DefaultTTLSeconds
}

func (c *Cache) embeddingTTL() int {
	if c.cfg.EmbeddingTTLSeconds > 0 {
		return c.cfg.EmbeddingTTLSeconds
	}
	return EmbeddingTTLSeconds
}

func (c *Cache) searchTTL() int {
	if c.cfg.SearchTTLSeconds > 0 {
		return c.cfg.SearchTTLSeconds
	}
	return SearchTTLSeconds
}

func (c *Cache) chatSessionTTL() int {
	if c.cfg.ChatSessionTTLSeconds > 0 {
		return c.cfg.ChatSessionTTLSeconds
	}
	return ChatSessionTTLSeconds
}

// CacheEmbedding stores an embedding artifact for a message id (24h default TTL).
func (c *Cache) CacheEmbedding(ctx context.Context, messageID string, value interface{}) {
	c.Put(ctx, EmbeddingKey(messageID), value, c.embeddingTTL())
}

// GetCachedEmbedding reads a cached embedding artifact for a message id.
func (c *Cache) GetCachedEmbedding(ctx context.Context, messageID string, out interface{}) bool {
	return c.Get(ctx, EmbeddingKey(messageID), out)
}

// CacheSearchResults stores a search-result set keyed by query text
// (30m default TTL). The key derivation is symmetric with
// GetCachedSearchResults for any query string.
func (c *Cache) CacheSearchResults(ctx context.Context, query string, scope SearchScope, results interface{}) {
	c.PutOwned(ctx, SearchKey(query, scope), scope.UserID, results, c.searchTTL())
}

// GetCachedSearchResults reads a cached search-result set for a query.
func (c *Cache) GetCachedSearchResults(ctx context.Context, query string, scope SearchScope, out interface{}) bool {
	return c.Get(ctx, SearchKey(query, scope), out)
}

// CacheChatSession mirrors a chat session's history (1h default TTL).
func (c *Cache) CacheChatSession(ctx context.Context, sessionID string, history interface{}) {
	c.Put(ctx, ChatSessionKey(sessionID), history, c.chatSessionTTL())
}

// GetCachedChatSession reads a mirrored chat session history.
func (c *Cache) GetCachedChatSession(ctx context.Context, sessionID string, out interface{}) bool {
	return c.Get(ctx, ChatSessionKey(sessionID), out)
}

// CacheTurnResponse stores one chat turn's full output under a timestamped
// key tagged with the owning user, and returns the key.
func (c *Cache) CacheTurnResponse(ctx context.Context, sessionID, userID string, value interface{}) string {
	key := TurnKey(sessionID, time.Now().UnixMilli())
	c.PutOwned(ctx, key, userID, value, c.defaultTTL())
	return key
}
