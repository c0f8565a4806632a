package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/wirefu/messageai/pkg/config"
	"github.com/wirefu/messageai/pkg/observability/logging"
)

// MilvusSearcher implements Searcher using a Milvus collection of message
// vectors. One row per message id; re-upserting an id replaces the row.
type MilvusSearcher struct {
	client         client.Client
	cfg            config.MilvusConfig
	collectionName string
}

// NewMilvusSearcher connects to Milvus and ensures the message collection
// and its HNSW index exist and are loaded.
func NewMilvusSearcher(cfg config.MilvusConfig) (*MilvusSearcher, error) {
	connectionString := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logging.Debugf("MilvusSearcher: connecting to %s", connectionString)

	dialCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	milvusClient, err := client.NewGrpcClient(dialCtx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}

	s := &MilvusSearcher{
		client:         milvusClient,
		cfg:            cfg,
		collectionName: cfg.CollectionName,
	}

	if err := s.initializeCollection(); err != nil {
		milvusClient.Close()
		return nil, fmt.Errorf("failed to initialize collection: %w", err)
	}

	logging.Infof("MilvusSearcher: initialized (collection=%s, dim=%d, metric=%s)",
		cfg.CollectionName, cfg.Dimension, cfg.MetricType)
	return s, nil
}

func (s *MilvusSearcher) initializeCollection() error {
	ctx := context.Background()

	hasCollection, err := s.client.HasCollection(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !hasCollection {
		schema := &entity.Schema{
			CollectionName: s.collectionName,
			Description:    "Message embeddings for semantic search",
			Fields: []*entity.Field{
				{
					Name:       "id",
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					TypeParams: map[string]string{"max_length": "128"},
				},
				{
					Name:       "conversation_id",
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "128"},
				},
				{
					Name:       "user_id",
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "128"},
				},
				{
					Name:       "content",
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "65535"},
				},
				{
					Name:       "metadata",
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "65535"},
				},
				{
					Name:     s.cfg.VectorField,
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", s.cfg.Dimension),
					},
				},
				{
					Name:     "created_at",
					DataType: entity.FieldTypeInt64,
				},
			},
		}

		if createErr := s.client.CreateCollection(ctx, schema, 1); createErr != nil {
			return fmt.Errorf("failed to create collection: %w", createErr)
		}

		index, err := entity.NewIndexHNSW(entity.MetricType(s.cfg.MetricType), 16, 200)
		if err != nil {
			return fmt.Errorf("failed to create index definition: %w", err)
		}
		if err := s.client.CreateIndex(ctx, s.collectionName, s.cfg.VectorField, index, false); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := s.client.LoadCollection(ctx, s.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return nil
}

// Upsert stores or replaces the vector row for a message.
func (s *MilvusSearcher) Upsert(ctx context.Context, msg Message, embedding []float32) error {
	metadata := "{}"
	if len(msg.Metadata) > 0 {
		if data, err := json.Marshal(msg.Metadata); err == nil {
			metadata = string(data)
		}
	}

	idColumn := entity.NewColumnVarChar("id", []string{msg.ID})
	conversationColumn := entity.NewColumnVarChar("conversation_id", []string{msg.ConversationID})
	userColumn := entity.NewColumnVarChar("user_id", []string{msg.UserID})
	contentColumn := entity.NewColumnVarChar("content", []string{msg.Content})
	metadataColumn := entity.NewColumnVarChar("metadata", []string{metadata})
	embeddingColumn := entity.NewColumnFloatVector(s.cfg.VectorField, len(embedding), [][]float32{embedding})
	createdAtColumn := entity.NewColumnInt64("created_at", []int64{time.Now().Unix()})

	_, err := s.client.Upsert(ctx, s.collectionName, "",
		idColumn, conversationColumn, userColumn, contentColumn, metadataColumn, embeddingColumn, createdAtColumn)
	if err != nil {
		return fmt.Errorf("milvus upsert failed: %w", err)
	}
	return nil
}

// SearchByUser returns the nearest messages belonging to the user.
func (s *MilvusSearcher) SearchByUser(ctx context.Context, embedding []float32, userID string, limit int) ([]SearchResult, error) {
	expr := fmt.Sprintf("user_id == %q", userID)
	return s.search(ctx, embedding, expr, limit)
}

// SearchByConversation returns the nearest messages within a conversation,
// excluding excludeID when non-empty.
func (s *MilvusSearcher) SearchByConversation(ctx context.Context, embedding []float32, conversationID string, limit int, excludeID string) ([]SearchResult, error) {
	expr := fmt.Sprintf("conversation_id == %q", conversationID)
	if excludeID != "" {
		expr += fmt.Sprintf(" && id != %q", excludeID)
	}
	return s.search(ctx, embedding, expr, limit)
}

func (s *MilvusSearcher) search(ctx context.Context, embedding []float32, expr string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = s.cfg.TopK
	}

	searchParam, err := entity.NewIndexHNSWSearchParam(s.cfg.EfSearch)
	if err != nil {
		return nil, fmt.Errorf("failed to create search parameters: %w", err)
	}

	searchResult, err := s.client.Search(
		ctx,
		s.collectionName,
		[]string{},
		expr,
		[]string{"id", "conversation_id", "user_id", "content"},
		[]entity.Vector{entity.FloatVector(embedding)},
		s.cfg.VectorField,
		entity.MetricType(s.cfg.MetricType),
		limit,
		searchParam,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	var results []SearchResult
	for _, rs := range searchResult {
		columns := map[string][]string{}
		for _, field := range rs.Fields {
			if col, ok := field.(*entity.ColumnVarChar); ok {
				columns[col.Name()] = col.Data()
			}
		}
		for i := 0; i < rs.ResultCount; i++ {
			result := SearchResult{Score: rs.Scores[i]}
			if vals := columns["id"]; i < len(vals) {
				result.MessageID = vals[i]
			}
			if vals := columns["conversation_id"]; i < len(vals) {
				result.ConversationID = vals[i]
			}
			if vals := columns["user_id"]; i < len(vals) {
				result.UserID = vals[i]
			}
			if vals := columns["content"]; i < len(vals) {
				result.Content = vals[i]
			}
			results = append(results, result)
		}
	}
	return results, nil
}

// GetMessageVector returns the stored vector for a message id.
func (s *MilvusSearcher) GetMessageVector(ctx context.Context, messageID string) ([]float32, error) {
	expr := fmt.Sprintf("id == %q", messageID)
	resultSet, err := s.client.Query(ctx, s.collectionName, []string{}, expr, []string{s.cfg.VectorField})
	if err != nil {
		return nil, fmt.Errorf("milvus query failed: %w", err)
	}

	for _, col := range resultSet {
		if vec, ok := col.(*entity.ColumnFloatVector); ok && vec.Len() > 0 {
			return vec.Data()[0], nil
		}
	}
	return nil, fmt.Errorf("no vector found for message %s", messageID)
}

// CheckConnection verifies Milvus is reachable.
func (s *MilvusSearcher) CheckConnection(ctx context.Context) error {
	if _, err := s.client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus connection check failed: %w", err)
	}
	return nil
}

// Close closes the Milvus client.
func (s *MilvusSearcher) Close() error {
	return s.client.Close()
}
