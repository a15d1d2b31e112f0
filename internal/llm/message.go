package llm

// Role identifies the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation sent to the backend
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System builds a system-role message
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user-role message
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant-role message
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Options tune a single completion call. Zero values fall back to the
// client's configured defaults.
type Options struct {
	MaxTokens   int
	Temperature float64
}
