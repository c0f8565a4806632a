package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wirefu/messageai/pkg/config"
	"github.com/wirefu/messageai/pkg/observability/logging"
)

// RedisStore implements DocumentStore on top of Redis. Documents live under
// "<prefix><collection>:<key>"; owner tags are kept in a per-owner set under
// "<prefix><collection>:owner:<ownerID>" so DeleteByOwner can batch-delete.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	logging.Debugf("RedisStore: connecting to Redis at %s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	keyPrefix := cfg.KeyPrefix
	if keyPrefix != "" && !strings.HasSuffix(keyPrefix, ":") {
		keyPrefix += ":"
	}

	store := &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.CheckConnection(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Infof("RedisStore: initialized (addr=%s:%d, key_prefix=%s)", cfg.Host, cfg.Port, keyPrefix)
	return store, nil
}

func (s *RedisStore) redisKey(collection, key string) string {
	return s.keyPrefix + collection + ":" + key
}

func (s *RedisStore) ownerKey(collection, ownerID string) string {
	return s.keyPrefix + collection + ":owner:" + ownerID
}

// Get retrieves a document, returning ErrNotFound when absent.
func (s *RedisStore) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	data, err := s.client.Get(ctx, s.redisKey(collection, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return json.RawMessage(data), nil
}

// Set stores a document, replacing any existing value.
func (s *RedisStore) Set(ctx context.Context, collection, key string, doc json.RawMessage) error {
	if err := s.client.Set(ctx, s.redisKey(collection, key), []byte(doc), 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes a document. Missing documents are ignored.
func (s *RedisStore) Delete(ctx context.Context, collection, key string) error {
	if err := s.client.Del(ctx, s.redisKey(collection, key)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// SetOwned stores a document and records its owner tag in one pipeline.
func (s *RedisStore) SetOwned(ctx context.Context, collection, key, ownerID string, doc json.RawMessage) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.redisKey(collection, key), []byte(doc), 0)
	pipe.SAdd(ctx, s.ownerKey(collection, ownerID), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis owned set failed: %w", err)
	}
	return nil
}

// DeleteByOwner removes every document tagged with ownerID in the collection.
func (s *RedisStore) DeleteByOwner(ctx context.Context, collection, ownerID string) error {
	keys, err := s.client.SMembers(ctx, s.ownerKey(collection, ownerID)).Result()
	if err != nil {
		return fmt.Errorf("redis owner lookup failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, key := range keys {
		pipe.Del(ctx, s.redisKey(collection, key))
	}
	pipe.Del(ctx, s.ownerKey(collection, ownerID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis owner delete failed: %w", err)
	}

	logging.Debugf("RedisStore: deleted %d documents for owner %s in %s", len(keys), ownerID, collection)
	return nil
}

// CheckConnection pings the Redis server.
func (s *RedisStore) CheckConnection(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
