// Package vectordb provides semantic-search primitives over an embedding
// provider and a vector search provider, with the server-side cache in
// front of the expensive calls.
package vectordb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/wirefu/messageai/pkg/cache"
	"github.com/wirefu/messageai/pkg/config"
	"github.com/wirefu/messageai/pkg/observability/logging"
)

// cachedEmbedding is the payload stored under the embedding cache key.
// ContentHash lets IndexMessage detect content changes for an already
// indexed id instead of silently serving a stale vector.
type cachedEmbedding struct {
	Vector      []float32 `json:"vector"`
	ContentHash string    `json:"content_hash"`
}

// VectorDB composes the embedding provider, the vector search provider and
// the server-side cache into the facade consumed by the chat orchestrator.
type VectorDB struct {
	embedder Embedder
	searcher Searcher
	cache    *cache.Cache
	cfg      config.CacheConfig
}

// New creates the vector database facade.
func New(embedder Embedder, searcher Searcher, c *cache.Cache, cfg config.CacheConfig) *VectorDB {
	return &VectorDB{
		embedder: embedder,
		searcher: searcher,
		cache:    c,
		cfg:      cfg,
	}
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// IndexMessage embeds a message and stores its vector with the search
// provider, caching the embedding for 24h. Indexing is idempotent per
// (id, content): when the cached embedding's content hash matches, the
// call is a no-op and the embedding provider is not invoked.
func (v *VectorDB) IndexMessage(ctx context.Context, msg Message) error {
	hash := contentHash(msg.Content)

	var cached cachedEmbedding
	if v.cache.GetCachedEmbedding(ctx, msg.ID, &cached) && cached.ContentHash == hash {
		logging.Debugf("VectorDB.IndexMessage: embedding already cached for %s, skipping", msg.ID)
		return nil
	}

	embedding, err := v.embedder.Embed(ctx, msg.Content)
	if err != nil {
		return fmt.Errorf("failed to embed message %s: %w", msg.ID, err)
	}

	if err := v.searcher.Upsert(ctx, msg, embedding); err != nil {
		return fmt.Errorf("failed to index message %s: %w", msg.ID, err)
	}

	v.cache.CacheEmbedding(ctx, msg.ID, cachedEmbedding{
		Vector:      embedding,
		ContentHash: hash,
	})

	logging.LogEvent("message_indexed", map[string]interface{}{
		"message_id":      msg.ID,
		"conversation_id": msg.ConversationID,
		"embedding_dim":   len(embedding),
	})
	return nil
}

// BatchIndexMessages indexes every message concurrently and waits for all
// of them. The first error fails the batch; already-started provider calls
// run to completion.
func (v *VectorDB) BatchIndexMessages(ctx context.Context, messages []Message) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, msg := range messages {
		g.Go(func() error {
			return v.IndexMessage(gctx, msg)
		})
	}
	return g.Wait()
}

// searchScope builds the cache scope for a search. With ScopeSearchByUser
// set the key carries the user id and limit; otherwise the legacy
// query-text-only key is used and results are shared across users.
func (v *VectorDB) searchScope(userID string, limit int) cache.SearchScope {
	if v.cfg.ScopeSearchByUser {
		return cache.SearchScope{UserID: userID, Limit: limit}
	}
	return cache.SearchScope{}
}

// SearchSimilarMessages returns the messages most similar to the query
// among those accessible to the user, consulting the search-result cache
// first and caching misses for 30 minutes.
func (v *VectorDB) SearchSimilarMessages(ctx context.Context, query, userID string, limit int) ([]SearchResult, error) {
	scope := v.searchScope(userID, limit)

	var cached []SearchResult
	if v.cache.GetCachedSearchResults(ctx, query, scope, &cached) {
		logging.Debugf("VectorDB.SearchSimilarMessages: cache hit for query (%d results)", len(cached))
		return cached, nil
	}

	embedding, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := v.searcher.SearchByUser(ctx, embedding, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	v.cache.CacheSearchResults(ctx, query, scope, results)
	return results, nil
}

// SearchConversationMessages searches within one conversation. Uncached.
func (v *VectorDB) SearchConversationMessages(ctx context.Context, query, conversationID string, limit int) ([]SearchResult, error) {
	embedding, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := v.searcher.SearchByConversation(ctx, embedding, conversationID, limit, "")
	if err != nil {
		return nil, fmt.Errorf("conversation search failed: %w", err)
	}
	return results, nil
}

// FindSimilarMessages returns the neighborhood of a reference message
// within its conversation. Uncached.
func (v *VectorDB) FindSimilarMessages(ctx context.Context, messageID, conversationID string, limit int) ([]SearchResult, error) {
	vector, err := v.referenceVector(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reference message %s: %w", messageID, err)
	}

	results, err := v.searcher.SearchByConversation(ctx, vector, conversationID, limit, messageID)
	if err != nil {
		return nil, fmt.Errorf("similar-message search failed: %w", err)
	}
	return results, nil
}

// referenceVector resolves a message's vector from the embedding cache,
// falling back to the search provider.
func (v *VectorDB) referenceVector(ctx context.Context, messageID string) ([]float32, error) {
	var cached cachedEmbedding
	if v.cache.GetCachedEmbedding(ctx, messageID, &cached) && len(cached.Vector) > 0 {
		return cached.Vector, nil
	}
	return v.searcher.GetMessageVector(ctx, messageID)
}

// GetEmbedding computes the embedding for arbitrary text. Uncached: the
// embedding cache is keyed by message id, not by raw text.
func (v *VectorDB) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return v.embedder.Embed(ctx, text)
}

// CalculateSimilarity embeds both texts and returns their cosine similarity.
func (v *VectorDB) CalculateSimilarity(ctx context.Context, textA, textB string) (float32, error) {
	embeddingA, err := v.embedder.Embed(ctx, textA)
	if err != nil {
		return 0, fmt.Errorf("failed to embed first text: %w", err)
	}
	embeddingB, err := v.embedder.Embed(ctx, textB)
	if err != nil {
		return 0, fmt.Errorf("failed to embed second text: %w", err)
	}
	return CosineSimilarity(embeddingA, embeddingB), nil
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|), returning 0 when either
// vector has zero magnitude.
func CosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
