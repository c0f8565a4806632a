// Package llm is the LLM orchestration service: feature-specific operations
// over a chat-completion provider, each pairing a fixed prompt template
// with JSON-response parsing.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wirefu/messageai/pkg/observability/logging"
)

// Service provides the feature operations consumed by the chat orchestrator
// and the API layer.
type Service struct {
	completer Completer
}

// NewService creates the orchestration service over a completion provider.
func NewService(completer Completer) *Service {
	return &Service{completer: completer}
}

// ChatReply generates the assistant reply for one chat turn, conditioned on
// prior history, the new user message, and assembled workspace context.
func (s *Service) ChatReply(ctx context.Context, history []ChatMessage, userMessage string, contextSnippets []string) (string, error) {
	messages := make([]ChatMessage, 0, len(history)+2)
	if len(contextSnippets) > 0 {
		messages = append(messages, ChatMessage{
			Role:    RoleSystem,
			Content: "Workspace context:\n" + strings.Join(contextSnippets, "\n"),
		})
	}
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: RoleUser, Content: userMessage})

	reply, err := s.completer.Complete(ctx, chatReplySystemPrompt, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate chat reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// GenerateSuggestions produces up to max proactive suggestions from context
// and the user's recent messages.
func (s *Service) GenerateSuggestions(ctx context.Context, contextSnippets, recentUserMessages []string, max int) ([]string, error) {
	if max <= 0 {
		max = 3
	}

	var b strings.Builder
	if len(contextSnippets) > 0 {
		b.WriteString("Context:\n")
		b.WriteString(strings.Join(contextSnippets, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("Recent messages from the user:\n")
	b.WriteString(strings.Join(recentUserMessages, "\n"))

	raw, err := s.completer.Complete(ctx,
		fmt.Sprintf(suggestionsSystemPrompt, max),
		[]ChatMessage{{Role: RoleUser, Content: b.String()}})
	if err != nil {
		return nil, fmt.Errorf("failed to generate suggestions: %w", err)
	}

	var suggestions []string
	if err := parseJSONResponse(raw, &suggestions); err != nil {
		logging.Debugf("Service.GenerateSuggestions: unparseable response, returning none: %v", err)
		return nil, nil
	}
	if len(suggestions) > max {
		suggestions = suggestions[:max]
	}
	return suggestions, nil
}

// AnalyzeTone classifies the tone of a message.
func (s *Service) AnalyzeTone(ctx context.Context, message string) (ToneResult, error) {
	raw, err := s.completer.Complete(ctx, toneSystemPrompt,
		[]ChatMessage{{Role: RoleUser, Content: message}})
	if err != nil {
		return ToneResult{}, fmt.Errorf("failed to analyze tone: %w", err)
	}

	var result ToneResult
	if err := parseJSONResponse(raw, &result); err != nil {
		// Fall back to the raw text as the tone label
		return ToneResult{Tone: strings.TrimSpace(raw)}, nil
	}
	return result, nil
}

// ExtractActionItems pulls action items out of a message sequence.
func (s *Service) ExtractActionItems(ctx context.Context, messages []string) ([]ActionItem, error) {
	raw, err := s.completer.Complete(ctx, actionItemsSystemPrompt,
		[]ChatMessage{{Role: RoleUser, Content: strings.Join(messages, "\n")}})
	if err != nil {
		return nil, fmt.Errorf("failed to extract action items: %w", err)
	}

	var items []ActionItem
	if err := parseJSONResponse(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to parse action items: %w", err)
	}
	return items, nil
}

// SummarizeConversation produces a structured summary of a message sequence.
func (s *Service) SummarizeConversation(ctx context.Context, messages []string) (Summary, error) {
	raw, err := s.completer.Complete(ctx, summarySystemPrompt,
		[]ChatMessage{{Role: RoleUser, Content: strings.Join(messages, "\n")}})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize conversation: %w", err)
	}

	var summary Summary
	if err := parseJSONResponse(raw, &summary); err != nil {
		// Fall back to the raw text as the summary body
		return Summary{Summary: strings.TrimSpace(raw)}, nil
	}
	return summary, nil
}

// Translate renders a message in the target language.
func (s *Service) Translate(ctx context.Context, message, targetLanguage string) (string, error) {
	raw, err := s.completer.Complete(ctx,
		fmt.Sprintf(translateSystemPrompt, targetLanguage),
		[]ChatMessage{{Role: RoleUser, Content: message}})
	if err != nil {
		return "", fmt.Errorf("failed to translate message: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// Rewrite rephrases a message in the requested style.
func (s *Service) Rewrite(ctx context.Context, message, style string) (string, error) {
	if style == "" {
		style = "professional"
	}
	raw, err := s.completer.Complete(ctx,
		fmt.Sprintf(rewriteSystemPrompt, style),
		[]ChatMessage{{Role: RoleUser, Content: message}})
	if err != nil {
		return "", fmt.Errorf("failed to rewrite message: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// CheckClarity evaluates whether a draft message will be understood,
// optionally in light of surrounding conversation context.
func (s *Service) CheckClarity(ctx context.Context, message string, contextSnippets []string) (ClarityResult, error) {
	var b strings.Builder
	if len(contextSnippets) > 0 {
		b.WriteString("Conversation context:\n")
		b.WriteString(strings.Join(contextSnippets, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("Message to check:\n")
	b.WriteString(message)

	raw, err := s.completer.Complete(ctx, claritySystemPrompt,
		[]ChatMessage{{Role: RoleUser, Content: b.String()}})
	if err != nil {
		return ClarityResult{}, fmt.Errorf("failed to check clarity: %w", err)
	}

	var result ClarityResult
	if err := parseJSONResponse(raw, &result); err != nil {
		return ClarityResult{}, fmt.Errorf("failed to parse clarity result: %w", err)
	}
	return result, nil
}

// parseJSONResponse unmarshals a model response into out, tolerating
// markdown code fences and leading prose around the JSON payload.
func parseJSONResponse(raw string, out interface{}) error {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}

	// Salvage the first JSON object or array embedded in prose
	start := strings.IndexAny(trimmed, "{[")
	if start < 0 {
		return fmt.Errorf("no JSON payload in response")
	}
	end := strings.LastIndexAny(trimmed, "}]")
	if end <= start {
		return fmt.Errorf("unterminated JSON payload in response")
	}
	return json.Unmarshal([]byte(trimmed[start:end+1]), out)
}
