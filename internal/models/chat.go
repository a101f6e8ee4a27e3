package models

import "strings"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is an append-only message history. It is used to build the
// retrieval query and is not persisted beyond the request.
type Conversation []Message

// RetrievalQuery concatenates all message contents into the text used for
// similarity search.
func (c Conversation) RetrievalQuery() string {
	parts := make([]string, 0, len(c))
	for _, m := range c {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}

// LastUserMessage returns the content of the most recent user turn, or the
// empty string when the conversation has none.
func (c Conversation) LastUserMessage() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleUser {
			return c[i].Content
		}
	}
	return ""
}

// QueryResponse is what the pipeline hands back to the HTTP layer.
type QueryResponse struct {
	Answer  string
	Sources []Result
}
