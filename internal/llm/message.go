// Package llm provides the language-model collaborator boundary: an
// ordered message history plus generation parameters in, a single
// completion string out.
//
// The production implementation (ChatClient) speaks the OpenAI-style
// chat-completions protocol over HTTP. Consumers depend on their own
// small interfaces (see chat.Generator), not on this package's concrete
// types, so tests can substitute fakes freely.
package llm

// Role identifies the author of a chat message.
type Role string

// Message roles. Histories start with one system message followed by
// alternating user/assistant turns.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a chat history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
