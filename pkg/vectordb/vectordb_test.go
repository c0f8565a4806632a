package vectordb_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wirefu/messageai/pkg/cache"
	"github.com/wirefu/messageai/pkg/config"
	"github.com/wirefu/messageai/pkg/docstore"
	"github.com/wirefu/messageai/pkg/vectordb"
)

func TestVectorDB(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "VectorDB Suite")
}

// countingEmbedder hands out deterministic vectors and counts provider calls.
type countingEmbedder struct {
	mu      sync.Mutex
	calls   int
	vectors map[string][]float32
	err     error
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{vectors: make(map[string][]float32)}
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	// Derive a stable vector from the text length so distinct inputs
	// produce distinct directions.
	n := float32(len(text))
	return []float32{n, 1, 1 / (n + 1)}, nil
}

func (e *countingEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

var _ = Describe("CosineSimilarity", func() {
	It("should return 1 for a vector against itself", func() {
		v := []float32{0.3, -0.5, 0.8}
		Expect(vectordb.CosineSimilarity(v, v)).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("should return 0 for orthogonal vectors", func() {
		Expect(vectordb.CosineSimilarity([]float32{1, 0}, []float32{0, 1})).To(BeNumerically("~", 0.0, 1e-6))
	})

	It("should return -1 for opposite vectors", func() {
		Expect(vectordb.CosineSimilarity([]float32{1, 2}, []float32{-1, -2})).To(BeNumerically("~", -1.0, 1e-6))
	})

	It("should return 0 when either vector has zero magnitude", func() {
		Expect(vectordb.CosineSimilarity([]float32{0, 0}, []float32{1, 2})).To(Equal(float32(0)))
		Expect(vectordb.CosineSimilarity([]float32{1, 2}, []float32{0, 0})).To(Equal(float32(0)))
		Expect(vectordb.CosineSimilarity(nil, nil)).To(Equal(float32(0)))
	})

	It("should stay within [-1, 1]", func() {
		a := []float32{3.7, -2.2, 9.1, 0.4}
		b := []float32{-1.3, 5.5, 2.8, -7.6}
		sim := vectordb.CosineSimilarity(a, b)
		Expect(sim).To(BeNumerically(">=", -1.0))
		Expect(sim).To(BeNumerically("<=", 1.0))
	})
})

var _ = Describe("VectorDB", func() {
	var (
		ctx      context.Context
		embedder *countingEmbedder
		searcher *vectordb.MemorySearcher
		db       *vectordb.VectorDB
	)

	cacheConfig := config.CacheConfig{
		Enabled:           true,
		DefaultTTLSeconds: 3600,
		ScopeSearchByUser: true,
	}

	newDB := func(cfg config.CacheConfig) *vectordb.VectorDB {
		c := cache.New(docstore.NewMemoryStore(), cfg)
		return vectordb.New(embedder, searcher, c, cfg)
	}

	BeforeEach(func() {
		ctx = context.Background()
		embedder = newCountingEmbedder()
		searcher = vectordb.NewMemorySearcher()
		db = newDB(cacheConfig)
	})

	Describe("IndexMessage", func() {
		msg := vectordb.Message{
			ID:             "msg-1",
			ConversationID: "conv-1",
			UserID:         "user-1",
			Content:        "ship the release on Friday",
		}

		It("should embed and store the message vector", func() {
			Expect(db.IndexMessage(ctx, msg)).To(Succeed())

			vec, err := searcher.GetMessageVector(ctx, "msg-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).NotTo(BeEmpty())
			Expect(embedder.callCount()).To(Equal(1))
		})

		It("should skip the provider when re-indexing unchanged content", func() {
			Expect(db.IndexMessage(ctx, msg)).To(Succeed())
			Expect(db.IndexMessage(ctx, msg)).To(Succeed())

			Expect(embedder.callCount()).To(Equal(1))
		})

		It("should re-embed when the content changes under the same id", func() {
			Expect(db.IndexMessage(ctx, msg)).To(Succeed())

			changed := msg
			changed.Content = "release slipped to Monday"
			Expect(db.IndexMessage(ctx, changed)).To(Succeed())

			Expect(embedder.callCount()).To(Equal(2))
		})

		It("should propagate embedding provider errors", func() {
			embedder.err = fmt.Errorf("provider down")
			Expect(db.IndexMessage(ctx, msg)).To(MatchError(ContainSubstring("provider down")))
		})
	})

	Describe("BatchIndexMessages", func() {
		It("should index every message in the batch", func() {
			var messages []vectordb.Message
			for i := 0; i < 8; i++ {
				messages = append(messages, vectordb.Message{
					ID:             fmt.Sprintf("msg-%d", i),
					ConversationID: "conv-1",
					UserID:         "user-1",
					Content:        fmt.Sprintf("message number %d", i),
				})
			}

			Expect(db.BatchIndexMessages(ctx, messages)).To(Succeed())

			for _, msg := range messages {
				_, err := searcher.GetMessageVector(ctx, msg.ID)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("should fail the batch on the first provider error", func() {
			embedder.err = fmt.Errorf("provider down")
			messages := []vectordb.Message{
				{ID: "a", Content: "one"},
				{ID: "b", Content: "two"},
			}
			Expect(db.BatchIndexMessages(ctx, messages)).To(MatchError(ContainSubstring("provider down")))
		})

		It("should succeed on an empty batch", func() {
			Expect(db.BatchIndexMessages(ctx, nil)).To(Succeed())
		})
	})

	Describe("SearchSimilarMessages", func() {
		BeforeEach(func() {
			for i, content := range []string{"standup notes", "deploy checklist", "lunch plans"} {
				Expect(db.IndexMessage(ctx, vectordb.Message{
					ID:             fmt.Sprintf("msg-%d", i),
					ConversationID: "conv-1",
					UserID:         "user-1",
					Content:        content,
				})).To(Succeed())
			}
		})

		It("should return results scoped to the user", func() {
			results, err := db.SearchSimilarMessages(ctx, "deploy", "user-1", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))

			results, err = db.SearchSimilarMessages(ctx, "deploy", "someone-else", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("should serve repeated queries from the cache", func() {
			_, err := db.SearchSimilarMessages(ctx, "deploy", "user-1", 10)
			Expect(err).NotTo(HaveOccurred())
			callsAfterFirst := embedder.callCount()

			_, err = db.SearchSimilarMessages(ctx, "deploy", "user-1", 10)
			Expect(err).NotTo(HaveOccurred())

			Expect(embedder.callCount()).To(Equal(callsAfterFirst))
		})

		It("should respect the result limit", func() {
			results, err := db.SearchSimilarMessages(ctx, "notes", "user-1", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(len(results)).To(BeNumerically("<=", 2))
		})
	})

	Describe("FindSimilarMessages", func() {
		BeforeEach(func() {
			for i := 0; i < 3; i++ {
				Expect(db.IndexMessage(ctx, vectordb.Message{
					ID:             fmt.Sprintf("msg-%d", i),
					ConversationID: "conv-1",
					UserID:         "user-1",
					Content:        fmt.Sprintf("note %d", i),
				})).To(Succeed())
			}
		})

		It("should exclude the reference message from its own neighborhood", func() {
			results, err := db.FindSimilarMessages(ctx, "msg-0", "conv-1", 10)
			Expect(err).NotTo(HaveOccurred())
			for _, r := range results {
				Expect(r.MessageID).NotTo(Equal("msg-0"))
			}
			Expect(results).To(HaveLen(2))
		})

		It("should fail for an unknown reference message", func() {
			_, err := db.FindSimilarMessages(ctx, "nope", "conv-1", 10)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("CalculateSimilarity", func() {
		It("should return 1 for identical texts", func() {
			sim, err := db.CalculateSimilarity(ctx, "same text", "same text")
			Expect(err).NotTo(HaveOccurred())
			Expect(sim).To(BeNumerically("~", 1.0, 1e-6))
		})
	})
})
