package clientcache_test

import (
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wirefu/messageai/pkg/clientcache"
	"github.com/wirefu/messageai/pkg/observability/metrics"
)

func TestClientCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ClientCache Suite")
}

var _ = Describe("Store", func() {
	var store *clientcache.Store

	BeforeEach(func() {
		var err error
		store, err = clientcache.New(3)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should miss on an absent key", func() {
		_, ok := store.Get(clientcache.ArtifactSummary, "missing")
		Expect(ok).To(BeFalse())
	})

	It("should round-trip a stored artifact", func() {
		store.Set(clientcache.ArtifactSummary, "k1", "a summary")

		got, ok := store.Get(clientcache.ArtifactSummary, "k1")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal("a summary"))
	})

	It("should overwrite an existing key without growing the cache", func() {
		store.Set(clientcache.ArtifactTone, "k1", "positive")
		store.Set(clientcache.ArtifactTone, "k1", "neutral")

		Expect(store.Len(clientcache.ArtifactTone)).To(Equal(1))
		got, _ := store.Get(clientcache.ArtifactTone, "k1")
		Expect(got).To(Equal("neutral"))
	})

	It("should keep artifact types independent", func() {
		store.Set(clientcache.ArtifactSummary, "shared", "summary value")
		store.Set(clientcache.ArtifactClarity, "shared", "clarity value")

		got, ok := store.Get(clientcache.ArtifactSummary, "shared")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal("summary value"))

		got, ok = store.Get(clientcache.ArtifactClarity, "shared")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal("clarity value"))
	})

	Describe("eviction", func() {
		It("should evict the earliest-inserted entry once the cap is exceeded", func() {
			for i := 0; i < 4; i++ {
				store.Set(clientcache.ArtifactSummary, fmt.Sprintf("k%d", i), i)
			}

			Expect(store.Len(clientcache.ArtifactSummary)).To(Equal(3))

			_, ok := store.Get(clientcache.ArtifactSummary, "k0")
			Expect(ok).To(BeFalse())
			_, ok = store.Get(clientcache.ArtifactSummary, "k3")
			Expect(ok).To(BeTrue())
		})

		It("should not evict entries of other artifact types", func() {
			store.Set(clientcache.ArtifactTone, "tone-key", "calm")
			for i := 0; i < 10; i++ {
				store.Set(clientcache.ArtifactSummary, fmt.Sprintf("k%d", i), i)
			}

			_, ok := store.Get(clientcache.ArtifactTone, "tone-key")
			Expect(ok).To(BeTrue())
		})

		It("should list resident keys oldest first", func() {
			store.Set(clientcache.ArtifactSummary, "a", 1)
			store.Set(clientcache.ArtifactSummary, "b", 2)
			store.Set(clientcache.ArtifactSummary, "c", 3)

			Expect(store.Keys(clientcache.ArtifactSummary)).To(Equal([]string{"a", "b", "c"}))
		})
	})

	Describe("ClearAll", func() {
		It("should empty every artifact-type cache", func() {
			store.Set(clientcache.ArtifactSummary, "k1", 1)
			store.Set(clientcache.ArtifactClarity, "k2", 2)
			store.Set(clientcache.ArtifactActionItems, "k3", 3)
			store.Set(clientcache.ArtifactTone, "k4", 4)

			store.ClearAll()

			Expect(store.Len(clientcache.ArtifactSummary)).To(Equal(0))
			Expect(store.Len(clientcache.ArtifactClarity)).To(Equal(0))
			Expect(store.Len(clientcache.ArtifactActionItems)).To(Equal(0))
			Expect(store.Len(clientcache.ArtifactTone)).To(Equal(0))
		})
	})

	Describe("entries gauge", func() {
		gaugeValue := func() float64 {
			return testutil.ToFloat64(metrics.CacheEntriesTotal.WithLabelValues("client"))
		}

		It("should track the resident entry count across artifact types", func() {
			store.Set(clientcache.ArtifactSummary, "k1", 1)
			store.Set(clientcache.ArtifactTone, "k2", 2)
			Expect(gaugeValue()).To(Equal(2.0))

			store.ClearAll()
			Expect(gaugeValue()).To(Equal(0.0))
		})
	})

	Describe("default capacity", func() {
		It("should apply DefaultCapacity for non-positive capacities", func() {
			s, err := clientcache.New(0)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < clientcache.DefaultCapacity+5; i++ {
				s.Set(clientcache.ArtifactSummary, fmt.Sprintf("k%d", i), i)
			}
			Expect(s.Len(clientcache.ArtifactSummary)).To(Equal(clientcache.DefaultCapacity))
		})
	})
})

var _ = Describe("key builders", func() {
	It("should build summary keys from conversation id and message count", func() {
		Expect(clientcache.SummaryKey("conv-1", 50)).To(Equal("summary_conv-1_50"))
	})

	It("should build action-item keys from conversation id and message count", func() {
		Expect(clientcache.ActionItemsKey("conv-1", 25)).To(Equal("actions_conv-1_25"))
	})

	It("should derive identical clarity keys for identical content", func() {
		Expect(clientcache.ClarityKey("same text")).To(Equal(clientcache.ClarityKey("same text")))
		Expect(clientcache.ClarityKey("same text")).NotTo(Equal(clientcache.ClarityKey("other text")))
	})

	It("should derive identical tone keys for identical content", func() {
		Expect(clientcache.ToneKey("hello")).To(Equal(clientcache.ToneKey("hello")))
		Expect(clientcache.ToneKey("hello")).NotTo(Equal(clientcache.ClarityKey("hello")))
	})
})
