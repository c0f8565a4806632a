package docstore

import (
	"fmt"

	"github.com/wirefu/messageai/pkg/config"
)

// BackendType identifies a DocumentStore implementation.
type BackendType string

const (
	// MemoryBackendType selects the in-process store
	MemoryBackendType BackendType = "memory"

	// RedisBackendType selects the Redis-backed store
	RedisBackendType BackendType = "redis"
)

// NewStore creates a DocumentStore based on the configured backend type.
func NewStore(backend BackendType, redisCfg config.RedisConfig) (DocumentStore, error) {
	switch backend {
	case MemoryBackendType, "":
		return NewMemoryStore(), nil
	case RedisBackendType:
		return NewRedisStore(redisCfg)
	default:
		return nil, fmt.Errorf("unknown document store backend type: %s", backend)
	}
}
