package parley

import (
	"fmt"

	"github.com/casualjim/parley/conversation"
	"github.com/goccy/go-json"
)

const conversationKeyPrefix = "conversation:"

// SaveSession stores blob under sessionID in the side-store. It is a no-op
// when the side-store is disabled.
func (t *Toolkit) SaveSession(sessionID, blob string) {
	t.sessions.Set(sessionID, blob)
}

// LoadSession returns the blob stored under sessionID. Absent, disabled and
// failing stores all report false.
func (t *Toolkit) LoadSession(sessionID string) (string, bool) {
	return t.sessions.Get(sessionID)
}

func (t *Toolkit) ClearSession(sessionID string) {
	t.sessions.Remove(sessionID)
}

// PersistConversation writes a JSON snapshot of conversation id to the
// side-store.
func (t *Toolkit) PersistConversation(id string) error {
	conv, err := t.store.Get(id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("parley: encoding conversation %s: %w", id, err)
	}
	t.sessions.Set(conversationKeyPrefix+id, string(data))
	return nil
}

// RestoreConversation reads a snapshot written by PersistConversation and
// registers it, replacing any conversation with the same id.
func (t *Toolkit) RestoreConversation(id string) (conversation.Conversation, error) {
	data, ok := t.sessions.Get(conversationKeyPrefix + id)
	if !ok {
		return conversation.Conversation{}, fmt.Errorf("%w: no persisted snapshot for %s", conversation.ErrNotFound, id)
	}
	var conv conversation.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return conversation.Conversation{}, fmt.Errorf("parley: decoding conversation %s: %w", id, err)
	}
	if conv.ID == "" {
		conv.ID = id
	}
	if err := t.store.Restore(conv); err != nil {
		return conversation.Conversation{}, err
	}
	return t.store.Get(conv.ID)
}
