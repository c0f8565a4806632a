// Package chat implements the top-level chat orchestrator: it assembles
// context, drives the LLM orchestration service and the vector database
// facade, persists conversation history, and shapes the structured
// response returned to clients.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/wirefu/messageai/pkg/cache"
	"github.com/wirefu/messageai/pkg/config"
	"github.com/wirefu/messageai/pkg/llm"
	"github.com/wirefu/messageai/pkg/observability/logging"
	"github.com/wirefu/messageai/pkg/observability/metrics"
	"github.com/wirefu/messageai/pkg/vectordb"
)

// AIService is the subset of the LLM orchestration service the
// orchestrator consumes. *llm.Service satisfies it; tests inject fakes.
type AIService interface {
	ChatReply(ctx context.Context, history []llm.ChatMessage, userMessage string, contextSnippets []string) (string, error)
	GenerateSuggestions(ctx context.Context, contextSnippets, recentUserMessages []string, max int) ([]string, error)
	AnalyzeTone(ctx context.Context, message string) (llm.ToneResult, error)
	ExtractActionItems(ctx context.Context, messages []string) ([]llm.ActionItem, error)
	SummarizeConversation(ctx context.Context, messages []string) (llm.Summary, error)
	Translate(ctx context.Context, message, targetLanguage string) (string, error)
	Rewrite(ctx context.Context, message, style string) (string, error)
	CheckClarity(ctx context.Context, message string, contextSnippets []string) (llm.ClarityResult, error)
}

// SemanticIndex is the subset of the vector database facade the
// orchestrator consumes. *vectordb.VectorDB satisfies it.
type SemanticIndex interface {
	IndexMessage(ctx context.Context, msg vectordb.Message) error
	BatchIndexMessages(ctx context.Context, messages []vectordb.Message) error
	SearchSimilarMessages(ctx context.Context, query, userID string, limit int) ([]vectordb.SearchResult, error)
}

// Orchestrator handles end-to-end AI requests for the messaging client.
type Orchestrator struct {
	ai       AIService
	index    SemanticIndex
	history  *HistoryStore
	messages *MessageStore
	usage    *UsageRecorder
	cache    *cache.Cache
	cfg      config.ChatConfig
}

// NewOrchestrator wires the orchestrator from its collaborators.
func NewOrchestrator(ai AIService, index SemanticIndex, history *HistoryStore, messages *MessageStore, usage *UsageRecorder, c *cache.Cache, cfg config.ChatConfig) *Orchestrator {
	return &Orchestrator{
		ai:       ai,
		index:    index,
		history:  history,
		messages: messages,
		usage:    usage,
		cache:    c,
		cfg:      cfg,
	}
}

// ProcessChatMessage handles one chat turn. Reply generation and history
// persistence are primary-path: their failure aborts the turn. Context
// assembly and suggestion generation are best-effort and degrade to empty
// results.
func (o *Orchestrator) ProcessChatMessage(ctx context.Context, userID, message, sessionID, conversationID string) (*Response, error) {
	start := time.Now()

	contextSnippets := o.assembleContext(ctx, userID, message, conversationID)

	history := o.history.Load(ctx, sessionID)

	reply, err := o.ai.ChatReply(ctx, history, message, contextSnippets)
	if err != nil {
		logging.Errorf("Orchestrator: reply generation failed for session %s: %v", sessionID, err)
		metrics.RecordChatTurn("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	suggestions := o.generateSuggestions(ctx, userID, conversationID, contextSnippets)

	actions := availableActions(message)

	if err := o.history.Append(ctx, sessionID,
		llm.ChatMessage{Role: llm.RoleUser, Content: message},
		llm.ChatMessage{Role: llm.RoleAssistant, Content: reply},
	); err != nil {
		logging.Errorf("Orchestrator: history persistence failed for session %s: %v", sessionID, err)
		metrics.RecordChatTurn("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	resp := &Response{
		Response:    reply,
		Suggestions: suggestions,
		Actions:     actions,
		Context:     contextSnippets,
	}

	o.cache.CacheTurnResponse(ctx, sessionID, userID, resp)
	o.usage.Record(ctx, userID, "chat")

	metrics.RecordChatTurn("success", time.Since(start).Seconds())
	return resp, nil
}

// assembleContext gathers the last few conversation messages plus
// semantically related messages from the user's other conversations.
// Best-effort: any failure degrades to whatever was gathered so far.
func (o *Orchestrator) assembleContext(ctx context.Context, userID, message, conversationID string) []string {
	var snippets []string

	if conversationID != "" {
		for _, msg := range o.messages.Recent(ctx, conversationID, o.cfg.RecentMessageCount) {
			snippets = append(snippets, fmt.Sprintf("%s: %s", msg.UserID, msg.Content))
		}
	}

	related, err := o.index.SearchSimilarMessages(ctx, message, userID, o.cfg.RelatedMessageCount)
	if err != nil {
		logging.Warnf("Orchestrator: related-message search failed, continuing without: %v", err)
		return snippets
	}
	for _, r := range related {
		if r.ConversationID == conversationID {
			continue
		}
		snippets = append(snippets, fmt.Sprintf("[related] %s", r.Content))
	}
	return snippets
}

// generateSuggestions produces proactive suggestions from the user's
// recent authored messages. Best-effort: failures yield no suggestions.
func (o *Orchestrator) generateSuggestions(ctx context.Context, userID, conversationID string, contextSnippets []string) []string {
	var recentUserMessages []string
	if conversationID != "" {
		for _, msg := range o.messages.Recent(ctx, conversationID, o.cfg.RecentMessageCount*4) {
			if msg.UserID == userID {
				recentUserMessages = append(recentUserMessages, msg.Content)
			}
		}
		if len(recentUserMessages) > o.cfg.RecentMessageCount {
			recentUserMessages = recentUserMessages[len(recentUserMessages)-o.cfg.RecentMessageCount:]
		}
	}

	suggestions, err := o.ai.GenerateSuggestions(ctx, contextSnippets, recentUserMessages, o.cfg.MaxSuggestions)
	if err != nil {
		logging.Warnf("Orchestrator: suggestion generation failed, continuing without: %v", err)
		return nil
	}
	return suggestions
}

// ExecuteAction runs an AI action against a stored message. An unknown
// message or action id is a primary-path error.
func (o *Orchestrator) ExecuteAction(ctx context.Context, actionID, messageID string, params map[string]string, userID string) (ActionResult, error) {
	msg, err := o.messages.Get(ctx, messageID)
	if err != nil {
		return ActionResult{}, err
	}

	var result interface{}
	switch actionID {
	case ActionTranslate:
		target := params["target_language"]
		if target == "" {
			target = "English"
		}
		result, err = o.ai.Translate(ctx, msg.Content, target)
	case ActionRewrite:
		result, err = o.ai.Rewrite(ctx, msg.Content, params["style"])
	case ActionSummarize:
		result, err = o.summarizeConversation(ctx, msg.ConversationID, 0)
	case ActionExtractTasks:
		result, err = o.extractFromConversation(ctx, msg)
	default:
		return ActionResult{}, fmt.Errorf("%w: %s", ErrUnknownAction, actionID)
	}
	if err != nil {
		return ActionResult{}, fmt.Errorf("failed to execute action %s: %w", actionID, err)
	}

	o.usage.Record(ctx, userID, "action_"+actionID)
	return ActionResult{
		Success:   true,
		ActionID:  actionID,
		Result:    result,
		Timestamp: time.Now(),
	}, nil
}

func (o *Orchestrator) extractFromConversation(ctx context.Context, msg StoredMessage) ([]llm.ActionItem, error) {
	contents := []string{msg.Content}
	if msg.ConversationID != "" {
		contents = contents[:0]
		for _, m := range o.messages.Recent(ctx, msg.ConversationID, 50) {
			contents = append(contents, m.Content)
		}
		if len(contents) == 0 {
			contents = []string{msg.Content}
		}
	}
	return o.ai.ExtractActionItems(ctx, contents)
}

// GetSuggestions returns proactive suggestions for a conversation.
// Best-effort: an empty list on failure.
func (o *Orchestrator) GetSuggestions(ctx context.Context, conversationID, userID string) []string {
	var contextSnippets []string
	for _, msg := range o.messages.Recent(ctx, conversationID, o.cfg.RecentMessageCount) {
		contextSnippets = append(contextSnippets, fmt.Sprintf("%s: %s", msg.UserID, msg.Content))
	}
	return o.generateSuggestions(ctx, userID, conversationID, contextSnippets)
}

// GetHistory returns the persisted history for a chat session.
func (o *Orchestrator) GetHistory(ctx context.Context, sessionID string) []llm.ChatMessage {
	return o.history.Load(ctx, sessionID)
}

// Summarize produces a structured summary of a conversation's recent
// messages. messageCount of 0 or less summarizes the last 50.
func (o *Orchestrator) Summarize(ctx context.Context, userID, conversationID string, messageCount int) (llm.Summary, error) {
	summary, err := o.summarizeConversation(ctx, conversationID, messageCount)
	if err != nil {
		return llm.Summary{}, err
	}
	o.usage.Record(ctx, userID, "summarize")
	return summary, nil
}

func (o *Orchestrator) summarizeConversation(ctx context.Context, conversationID string, messageCount int) (llm.Summary, error) {
	if messageCount <= 0 {
		messageCount = 50
	}
	stored := o.messages.Recent(ctx, conversationID, messageCount)
	if len(stored) == 0 {
		return llm.Summary{}, fmt.Errorf("no messages found for conversation %s", conversationID)
	}

	contents := make([]string, 0, len(stored))
	for _, m := range stored {
		contents = append(contents, fmt.Sprintf("%s: %s", m.UserID, m.Content))
	}
	return o.ai.SummarizeConversation(ctx, contents)
}

// CheckClarity evaluates a draft message for clarity.
func (o *Orchestrator) CheckClarity(ctx context.Context, userID, message string, contextSnippets []string) (llm.ClarityResult, error) {
	result, err := o.ai.CheckClarity(ctx, message, contextSnippets)
	if err != nil {
		return llm.ClarityResult{}, err
	}
	o.usage.Record(ctx, userID, "clarity")
	return result, nil
}

// ExtractActionItems extracts tasks from the provided messages, loading
// the conversation's recent messages when none are given.
func (o *Orchestrator) ExtractActionItems(ctx context.Context, userID string, messages []string, conversationID string) ([]llm.ActionItem, error) {
	if len(messages) == 0 && conversationID != "" {
		for _, m := range o.messages.Recent(ctx, conversationID, 50) {
			messages = append(messages, m.Content)
		}
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages to extract action items from")
	}

	items, err := o.ai.ExtractActionItems(ctx, messages)
	if err != nil {
		return nil, err
	}
	o.usage.Record(ctx, userID, "action_items")
	return items, nil
}

// AnalyzeTone classifies the tone of a message.
func (o *Orchestrator) AnalyzeTone(ctx context.Context, userID, message string) (llm.ToneResult, error) {
	result, err := o.ai.AnalyzeTone(ctx, message)
	if err != nil {
		return llm.ToneResult{}, err
	}
	o.usage.Record(ctx, userID, "tone")
	return result, nil
}

// SearchConversations runs a semantic search over the user's messages.
func (o *Orchestrator) SearchConversations(ctx context.Context, userID, query string, limit int) ([]vectordb.SearchResult, error) {
	results, err := o.index.SearchSimilarMessages(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation search failed: %w", err)
	}
	o.usage.Record(ctx, userID, "search")
	return results, nil
}

// UsageStats returns the user's AI usage counters, zeroed on error.
func (o *Orchestrator) UsageStats(ctx context.Context, userID string) UsageStats {
	return o.usage.Stats(ctx, userID)
}

// IngestMessage persists a message and indexes it for semantic search.
// Indexing is best-effort; persistence failure is primary-path.
func (o *Orchestrator) IngestMessage(ctx context.Context, msg StoredMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if err := o.messages.Save(ctx, msg); err != nil {
		return err
	}

	if err := o.index.IndexMessage(ctx, vectordb.Message{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		Content:        msg.Content,
	}); err != nil {
		logging.Warnf("Orchestrator: indexing failed for message %s, continuing: %v", msg.ID, err)
	}
	return nil
}

// BatchIngestMessages persists and indexes a batch of messages. The batch
// fails as a whole if any single persistence or indexing call fails.
func (o *Orchestrator) BatchIngestMessages(ctx context.Context, msgs []StoredMessage) error {
	indexable := make([]vectordb.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now()
		}
		if err := o.messages.Save(ctx, msg); err != nil {
			return err
		}
		indexable = append(indexable, vectordb.Message{
			ID:             msg.ID,
			ConversationID: msg.ConversationID,
			UserID:         msg.UserID,
			Content:        msg.Content,
		})
	}
	return o.index.BatchIndexMessages(ctx, indexable)
}
