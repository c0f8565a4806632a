package vectordb

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/wirefu/messageai/pkg/config"
	"github.com/wirefu/messageai/pkg/observability/logging"
	"github.com/wirefu/messageai/pkg/observability/metrics"
)

// OpenAIEmbedder implements Embedder using the OpenAI embeddings API.
// Every call is bounded by the configured timeout and retried with
// exponential backoff on transient errors.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	timeout    time.Duration
	maxRetries uint64
}

// NewOpenAIEmbedder builds an embedder from the provider configuration.
// The API key is read from the configured environment variable.
func NewOpenAIEmbedder(cfg config.OpenAIConfig) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("embedding provider API key not set (env %s)", cfg.APIKeyEnv)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logging.Debugf("OpenAIEmbedder: initialized (model=%s, timeout=%s, max_retries=%d)",
		cfg.EmbeddingModel, cfg.Timeout(), cfg.MaxRetries)

	return &OpenAIEmbedder{
		client:     openai.NewClient(opts...),
		model:      cfg.EmbeddingModel,
		timeout:    cfg.Timeout(),
		maxRetries: uint64(cfg.MaxRetries),
	}, nil
}

// Embed computes the embedding vector for the given text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()

	var embedding []float32
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		resp, err := e.client.Embeddings.New(callCtx, openai.EmbeddingNewParams{
			Model: openai.EmbeddingModel(e.model),
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: []string{text},
			},
		})
		if err != nil {
			return fmt.Errorf("embedding request failed: %w", err)
		}
		if len(resp.Data) == 0 {
			return backoff.Permanent(fmt.Errorf("embedding response contained no data"))
		}

		raw := resp.Data[0].Embedding
		embedding = make([]float32, len(raw))
		for i, v := range raw {
			embedding[i] = float32(v)
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.maxRetries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		metrics.RecordProviderRequest("openai", "embed", "error")
		return nil, err
	}

	metrics.RecordProviderRequest("openai", "embed", "success")
	metrics.RecordProviderLatency("openai", "embed", time.Since(start).Seconds())
	return embedding, nil
}
