package llm

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser marks end-user messages
	RoleUser Role = "user"

	// RoleAssistant marks model-generated messages
	RoleAssistant Role = "assistant"

	// RoleSystem marks system instructions
	RoleSystem Role = "system"
)

// ChatMessage is one turn of a chat history.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToneResult is the outcome of a tone analysis.
type ToneResult struct {
	Tone        string  `json:"tone"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation,omitempty"`
}

// ActionItem is one extracted task.
type ActionItem struct {
	Description string `json:"description"`
	Assignee    string `json:"assignee,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// Summary is a structured conversation summary.
type Summary struct {
	Title     string   `json:"title,omitempty"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// ClarityResult is the outcome of a clarity check.
type ClarityResult struct {
	IsClear    bool     `json:"is_clear"`
	Issues     []string `json:"issues,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}
