package chat

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. The history document persists
// messages in exactly this shape, so no transport-only fields belong here.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewConversation seeds a fresh conversation: the standing system
// instruction is always the first message.
func NewConversation(systemPrompt string) []Message {
	return []Message{{Role: RoleSystem, Content: systemPrompt}}
}
