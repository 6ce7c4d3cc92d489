package sage

import "context"

// Role tags a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage returns a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Completer is a language-completion service.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Searcher is a web-search service returning at most k items.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Evidence, error)
}

// Encyclopedia looks up the best matching encyclopedic document.
type Encyclopedia interface {
	Lookup(ctx context.Context, query string) ([]Document, error)
}

// Document is an encyclopedic article body.
type Document struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, messages []Message) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}
