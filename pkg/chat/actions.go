package chat

import "strings"

// Action ids exposed to clients.
const (
	ActionTranslate    = "translate"
	ActionRewrite      = "rewrite"
	ActionSummarize    = "summarize"
	ActionExtractTasks = "extract_tasks"
)

// longMessageThreshold triggers the task-extraction action for messages
// likely to contain enough substance to hold tasks.
const longMessageThreshold = 100

// availableActions computes the action list for a message: the three
// always-available actions, plus task extraction when the message is long
// or mentions task keywords.
func availableActions(message string) []Action {
	actions := []Action{
		{ID: ActionTranslate, Label: "Translate message"},
		{ID: ActionRewrite, Label: "Rewrite message"},
		{ID: ActionSummarize, Label: "Summarize conversation"},
	}

	lower := strings.ToLower(message)
	if len(message) > longMessageThreshold ||
		strings.Contains(lower, "action") ||
		strings.Contains(lower, "todo") {
		actions = append(actions, Action{ID: ActionExtractTasks, Label: "Extract action items"})
	}
	return actions
}
