package conversation

import (
	"maps"
	"slices"

	"github.com/go-openapi/strfmt"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// Message is a single entry in a conversation. It is never modified after
// the store appends it.
type Message struct {
	ID        string          `json:"id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// Conversation is a snapshot of a chat session.
type Conversation struct {
	ID         string          `json:"id"`
	Messages   []Message       `json:"messages"`
	TokenCount int             `json:"token_count"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	CreatedAt  strfmt.DateTime `json:"created_at"`
	UpdatedAt  strfmt.DateTime `json:"updated_at"`
}

// Len returns the number of messages in the conversation.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Contents returns the message contents in order.
func (c *Conversation) Contents() []string {
	out := make([]string, len(c.Messages))
	for i, m := range c.Messages {
		out[i] = m.Content
	}
	return out
}

// clone copies the message slice and the metadata map. Metadata values are
// copied shallowly.
func (c *Conversation) clone() Conversation {
	cp := *c
	cp.Messages = slices.Clone(c.Messages)
	if c.Metadata != nil {
		cp.Metadata = maps.Clone(c.Metadata)
	}
	return cp
}
