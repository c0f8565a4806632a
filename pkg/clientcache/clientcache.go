// Package clientcache is the in-process artifact cache for consuming
// clients: already-fetched summaries, clarity suggestions, action items,
// and tone results are kept per artifact type so identical requests within
// one session skip the network entirely. Contents are lost on process
// restart and are never synchronized with the server-side cache.
package clientcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wirefu/messageai/pkg/observability/metrics"
)

// ArtifactType identifies one independently bounded artifact cache.
type ArtifactType string

const (
	// ArtifactSummary caches conversation summaries
	ArtifactSummary ArtifactType = "summary"

	// ArtifactClarity caches clarity-check suggestions
	ArtifactClarity ArtifactType = "clarity"

	// ArtifactActionItems caches extracted action-item lists
	ArtifactActionItems ArtifactType = "action_items"

	// ArtifactTone caches tone-analysis results
	ArtifactTone ArtifactType = "tone"
)

// DefaultCapacity is the per-artifact-type entry cap.
const DefaultCapacity = 100

var artifactTypes = []ArtifactType{
	ArtifactSummary,
	ArtifactClarity,
	ArtifactActionItems,
	ArtifactTone,
}

// Store holds one bounded cache per artifact type. Each cache evicts its
// oldest entries once the cap is exceeded; eviction order follows
// insertion/access order via an explicit linked structure rather than map
// enumeration order, so eviction is deterministic. No TTL is applied at
// read time; staleness is bounded only by capacity and process lifetime.
type Store struct {
	mu     sync.RWMutex
	caches map[ArtifactType]*lru.Cache[string, interface{}]
}

// New creates a Store with the given per-type capacity.
// A capacity of 0 or less selects DefaultCapacity.
func New(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	caches := make(map[ArtifactType]*lru.Cache[string, interface{}], len(artifactTypes))
	for _, t := range artifactTypes {
		c, err := lru.New[string, interface{}](capacity)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s cache: %w", t, err)
		}
		caches[t] = c
	}

	return &Store{caches: caches}, nil
}

// Get performs a direct lookup in the artifact type's cache.
func (s *Store) Get(t ArtifactType, key string) (interface{}, bool) {
	s.mu.RLock()
	c, ok := s.caches[t]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return c.Get(key)
}

// Set inserts or overwrites an entry, evicting the oldest entry of the same
// artifact type when the cap is exceeded. Other artifact types are untouched.
func (s *Store) Set(t ArtifactType, key string, value interface{}) {
	s.mu.RLock()
	c, ok := s.caches[t]
	s.mu.RUnlock()
	if !ok {
		return
	}
	c.Add(key, value)
	s.updateEntriesGauge()
}

// Len reports the resident entry count for one artifact type.
func (s *Store) Len(t ArtifactType) int {
	s.mu.RLock()
	c, ok := s.caches[t]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return c.Len()
}

// Keys returns the resident keys for one artifact type, oldest first.
func (s *Store) Keys(t ArtifactType) []string {
	s.mu.RLock()
	c, ok := s.caches[t]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return c.Keys()
}

// ClearAll empties every artifact-type cache.
func (s *Store) ClearAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.caches {
		c.Purge()
	}
	metrics.UpdateCacheEntries(entriesBackendLabel, 0)
}

// entriesBackendLabel identifies this store in the cache-entries gauge.
const entriesBackendLabel = "client"

func (s *Store) updateEntriesGauge() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, c := range s.caches {
		total += c.Len()
	}
	metrics.UpdateCacheEntries(entriesBackendLabel, total)
}

// SummaryKey builds the lookup key for a conversation summary.
func SummaryKey(conversationID string, messageCount int) string {
	return fmt.Sprintf("summary_%s_%d", conversationID, messageCount)
}

// ClarityKey builds the lookup key for a clarity check, derived from the
// message content so repeated checks of identical text hit the cache.
func ClarityKey(message string) string {
	sum := sha256.Sum256([]byte(message))
	return "clarity_" + hex.EncodeToString(sum[:])
}

// ActionItemsKey builds the lookup key for a conversation's action items.
func ActionItemsKey(conversationID string, messageCount int) string {
	return fmt.Sprintf("actions_%s_%d", conversationID, messageCount)
}

// ToneKey builds the lookup key for a tone analysis, derived from content.
func ToneKey(message string) string {
	sum := sha256.Sum256([]byte(message))
	return "tone_" + hex.EncodeToString(sum[:])
}
