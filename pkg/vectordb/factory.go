package vectordb

import (
	"fmt"

	"github.com/wirefu/messageai/pkg/config"
)

// SearcherType identifies a Searcher implementation.
type SearcherType string

const (
	// MemorySearcherType selects the in-process brute-force searcher
	MemorySearcherType SearcherType = "memory"

	// MilvusSearcherType selects the Milvus vector database
	MilvusSearcherType SearcherType = "milvus"
)

// NewSearcher creates a Searcher based on the requested type.
func NewSearcher(searcherType SearcherType, cfg config.MilvusConfig) (Searcher, error) {
	switch searcherType {
	case MemorySearcherType, "":
		return NewMemorySearcher(), nil
	case MilvusSearcherType:
		return NewMilvusSearcher(cfg)
	default:
		return nil, fmt.Errorf("unknown searcher type: %s", searcherType)
	}
}
