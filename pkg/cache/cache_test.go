package cache_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wirefu/messageai/pkg/cache"
	"github.com/wirefu/messageai/pkg/config"
	"github.com/wirefu/messageai/pkg/docstore"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cache Suite")
}

// brokenStore fails every operation, for exercising the fail-open path.
type brokenStore struct{}

var errStoreDown = errors.New("store unavailable")

func (brokenStore) Get(context.Context, string, string) (json.RawMessage, error) {
	return nil, errStoreDown
}
func (brokenStore) Set(context.Context, string, string, json.RawMessage) error { return errStoreDown }

func (brokenStore) Delete(context.Context, string, string) error { return errStoreDown }

func (brokenStore) SetOwned(context.Context, string, string, string, json.RawMessage) error {
	return errStoreDown
}

func (brokenStore) DeleteByOwner(context.Context, string, string) error { return errStoreDown }

func (brokenStore) CheckConnection(context.Context) error { return errStoreDown }

func (brokenStore) Close() error { return nil }

var _ = Describe("Cache", func() {
	var (
		ctx   context.Context
		store *docstore.MemoryStore
		c     *cache.Cache
	)

	enabledConfig := config.CacheConfig{
		BackendType:       "memory",
		Enabled:           true,
		DefaultTTLSeconds: 3600,
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = docstore.NewMemoryStore()
		c = cache.New(store, enabledConfig)
	})

	Describe("Put and Get", func() {
		It("should round-trip a stored value", func() {
			type payload struct {
				Answer string `json:"answer"`
				Score  int    `json:"score"`
			}

			c.Put(ctx, "key1", payload{Answer: "hello", Score: 7}, 60)

			var got payload
			Expect(c.Get(ctx, "key1", &got)).To(BeTrue())
			Expect(got.Answer).To(Equal("hello"))
			Expect(got.Score).To(Equal(7))
		})

		It("should miss on an absent key", func() {
			var got string
			Expect(c.Get(ctx, "missing", &got)).To(BeFalse())
		})

		It("should overwrite with last-write-wins semantics", func() {
			c.Put(ctx, "key1", "first", 60)
			c.Put(ctx, "key1", "second", 60)

			var got string
			Expect(c.Get(ctx, "key1", &got)).To(BeTrue())
			Expect(got).To(Equal("second"))
		})

		It("should persist entries under the shared envelope schema", func() {
			c.Put(ctx, "key1", "value", 60)

			raw, err := store.Get(ctx, "aiCache", "key1")
			Expect(err).NotTo(HaveOccurred())

			var doc map[string]json.RawMessage
			Expect(json.Unmarshal(raw, &doc)).To(Succeed())
			Expect(doc).To(HaveKey("data"))
			Expect(doc).To(HaveKey("createdAt"))
			Expect(doc).To(HaveKey("expiresAt"))
		})

		It("should read entries written by other deployments", func() {
			data, err := json.Marshal("shared value")
			Expect(err).NotTo(HaveOccurred())
			doc, err := json.Marshal(map[string]interface{}{
				"data":      json.RawMessage(data),
				"createdAt": time.Now(),
				"expiresAt": time.Now().Add(time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Set(ctx, "aiCache", "peer", doc)).To(Succeed())

			var got string
			Expect(c.Get(ctx, "peer", &got)).To(BeTrue())
			Expect(got).To(Equal("shared value"))
		})

		It("should fall back to the default TTL for non-positive TTLs", func() {
			c.Put(ctx, "key1", "value", 0)

			var got string
			Expect(c.Get(ctx, "key1", &got)).To(BeTrue())
			Expect(got).To(Equal("value"))
		})
	})

	Describe("lazy expiry", func() {
		// Inject an already-expired envelope directly into the backing
		// store so the test does not sleep out a real TTL.
		writeExpired := func(key string) {
			data, err := json.Marshal("stale")
			Expect(err).NotTo(HaveOccurred())
			doc, err := json.Marshal(map[string]interface{}{
				"data":      data,
				"createdAt": time.Now().Add(-2 * time.Hour),
				"expiresAt": time.Now().Add(-time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Set(ctx, "aiCache", key, doc)).To(Succeed())
		}

		It("should report an expired entry as a miss", func() {
			writeExpired("old")

			var got string
			Expect(c.Get(ctx, "old", &got)).To(BeFalse())
		})

		It("should eagerly delete the expired entry on read", func() {
			writeExpired("old")

			var got string
			c.Get(ctx, "old", &got)

			_, err := store.Get(ctx, "aiCache", "old")
			Expect(err).To(MatchError(docstore.ErrNotFound))
		})
	})

	Describe("disabled cache", func() {
		BeforeEach(func() {
			c = cache.New(store, config.CacheConfig{Enabled: false})
		})

		It("should report itself disabled", func() {
			Expect(c.IsEnabled()).To(BeFalse())
		})

		It("should drop writes and miss on reads", func() {
			c.Put(ctx, "key1", "value", 60)

			var got string
			Expect(c.Get(ctx, "key1", &got)).To(BeFalse())
		})
	})

	Describe("fail-open behavior", func() {
		BeforeEach(func() {
			c = cache.New(brokenStore{}, enabledConfig)
		})

		It("should treat store read errors as a miss", func() {
			var got string
			Expect(c.Get(ctx, "key1", &got)).To(BeFalse())
		})

		It("should swallow store write errors", func() {
			Expect(func() {
				c.Put(ctx, "key1", "value", 60)
				c.Invalidate(ctx, "key1")
				c.InvalidateByOwner(ctx, "user-1")
			}).NotTo(Panic())
		})

		It("should count errored reads as misses in stats", func() {
			var got string
			c.Get(ctx, "a", &got)
			c.Get(ctx, "b", &got)

			stats := c.GetStats()
			Expect(stats.HitCount).To(Equal(int64(0)))
			Expect(stats.MissCount).To(Equal(int64(2)))
		})
	})

	Describe("GetStats", func() {
		It("should track hits, misses, and the hit ratio", func() {
			c.Put(ctx, "key1", "value", 60)

			var got string
			c.Get(ctx, "key1", &got)
			c.Get(ctx, "key1", &got)
			c.Get(ctx, "missing", &got)

			stats := c.GetStats()
			Expect(stats.HitCount).To(Equal(int64(2)))
			Expect(stats.MissCount).To(Equal(int64(1)))
			Expect(stats.HitRatio).To(BeNumerically("~", 2.0/3.0, 1e-9))
		})
	})

	Describe("owner invalidation", func() {
		It("should remove every entry tagged with the owner", func() {
			c.PutOwned(ctx, "a", "user-1", "va", 60)
			c.PutOwned(ctx, "b", "user-1", "vb", 60)
			c.PutOwned(ctx, "c", "user-2", "vc", 60)

			c.InvalidateByOwner(ctx, "user-1")

			var got string
			Expect(c.Get(ctx, "a", &got)).To(BeFalse())
			Expect(c.Get(ctx, "b", &got)).To(BeFalse())
			Expect(c.Get(ctx, "c", &got)).To(BeTrue())
		})
	})

	Describe("feature helpers", func() {
		It("should round-trip embedding artifacts", func() {
			vec := []float32{0.1, 0.2, 0.3}
			c.CacheEmbedding(ctx, "msg-1", vec)

			var got []float32
			Expect(c.GetCachedEmbedding(ctx, "msg-1", &got)).To(BeTrue())
			Expect(got).To(Equal(vec))
		})

		It("should round-trip search results for any query string", func() {
			scope := cache.SearchScope{UserID: "user-1", Limit: 10}
			queries := []string{
				"deployment schedule",
				"caché de búsqueda",
				"日本語のクエリ",
				"spaces / slashes : colons",
			}

			for i, query := range queries {
				results := []string{fmt.Sprintf("result-%d", i)}
				c.CacheSearchResults(ctx, query, scope, results)

				var got []string
				Expect(c.GetCachedSearchResults(ctx, query, scope, &got)).To(BeTrue())
				Expect(got).To(Equal(results))
			}
		})

		It("should isolate cached search results per user scope", func() {
			c.CacheSearchResults(ctx, "query", cache.SearchScope{UserID: "user-1", Limit: 10}, []string{"for user-1"})

			var got []string
			Expect(c.GetCachedSearchResults(ctx, "query", cache.SearchScope{UserID: "user-2", Limit: 10}, &got)).To(BeFalse())
		})

		It("should round-trip chat session history", func() {
			history := map[string]string{"last": "hello"}
			c.CacheChatSession(ctx, "session-1", history)

			var got map[string]string
			Expect(c.GetCachedChatSession(ctx, "session-1", &got)).To(BeTrue())
			Expect(got).To(Equal(history))
		})

		It("should store turn responses under a timestamped session key", func() {
			key := c.CacheTurnResponse(ctx, "session-1", "user-1", "a reply")
			Expect(key).To(HavePrefix("ai_response:session-1:"))

			var got string
			Expect(c.Get(ctx, key, &got)).To(BeTrue())
			Expect(got).To(Equal("a reply"))
		})
	})
})

var _ = Describe("cache keys", func() {
	It("should build embedding keys from the message id", func() {
		Expect(cache.EmbeddingKey("msg-42")).To(Equal("embedding:msg-42"))
	})

	It("should base64-encode the query in search keys", func() {
		encoded := base64.StdEncoding.EncodeToString([]byte("hello world"))
		Expect(cache.SearchKey("hello world", cache.SearchScope{})).To(Equal("search:" + encoded))
	})

	It("should append the user scope to search keys", func() {
		encoded := base64.StdEncoding.EncodeToString([]byte("q"))
		key := cache.SearchKey("q", cache.SearchScope{UserID: "user-1", Limit: 5})
		Expect(key).To(Equal("search:" + encoded + ":user-1:5"))
	})

	It("should build chat session keys from the session id", func() {
		Expect(cache.ChatSessionKey("session-7")).To(Equal("chat:session-7"))
	})

	It("should build turn keys from the session id and timestamp", func() {
		Expect(cache.TurnKey("session-7", 1700000000000)).To(Equal("ai_response:session-7:1700000000000"))
	})
})
