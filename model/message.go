package model

// Conversation roles understood by every provider adapter.
//
// RoleDeveloper is the OpenAI Responses API's replacement for "system";
// adapters that don't know it treat it the same way. RoleTool only ever
// appears on the wire (Chat Completions tool results), never in caller
// input.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleDeveloper = "developer"
	RoleTool      = "tool"
)

// Message is a single entry in a conversation. Order is significant:
// a []Message is the turn-by-turn history as the model should see it.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage wraps text as a single-element user conversation.
func UserMessage(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}

// HasSystemMessage reports whether the conversation already carries a
// system- or developer-role entry. Adapters use this to decide whether
// separate instructions still need to be supplied.
func HasSystemMessage(messages []Message) bool {
	for _, m := range messages {
		if m.Role == RoleSystem || m.Role == RoleDeveloper {
			return true
		}
	}
	return false
}
