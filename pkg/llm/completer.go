package llm

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

// Completer is the LLM provider boundary: given a system prompt and a
// message list, produce a completion. Tests inject fakes.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error)
}

// OpenAICompleter implements Completer over the OpenAI chat completions
// API. Calls are bounded by the configured timeout and retried with
// exponential backoff on transient errors.
type OpenAICompleter struct {
	client     openai.Client
	model      string
	timeout    time.Duration
	maxRetries uint64
}

// NewOpenAICompleter builds a completer from the provider configuration.
func NewOpenAICompleter(cfg config.OpenAIConfig) (*OpenAICompleter, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("LLM provider API key not set (env %s)", cfg.APIKeyEnv)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logging.Debugf("OpenAICompleter: initialized (model=%s, timeout=%s, max_retries=%d)",
		cfg.ChatModel, cfg.Timeout(), cfg.MaxRetries)

	return &OpenAICompleter{
		client:     openai.NewClient(opts...),
		model:      cfg.ChatModel,
		timeout:    cfg.Timeout(),
		maxRetries: uint64(cfg.MaxRetries),
	}, nil
}

// Complete sends the prompt and messages to the chat completions API and
// returns the first choice's content.
func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error) {
	start := time.Now()

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1),
	}
	if systemPrompt != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(systemPrompt))
	}
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}

	var content string
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.Chat.Completions.New(callCtx, params)
		if err != nil {
			return fmt.Errorf("chat completion request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("chat completion returned no choices"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		metrics.RecordProviderRequest("openai", "chat_completion", "error")
		return "", err
	}

	metrics.RecordProviderRequest("openai", "chat_completion", "success")
	metrics.RecordProviderLatency("openai", "chat_completion", time.Since(start).Seconds())
	return content, nil
}
