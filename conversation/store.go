package conversation

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/casualjim/parley/pkg/slogx"
	"github.com/casualjim/parley/pkg/tokens"
	"github.com/casualjim/parley/pkg/uuidx"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultSystemPrompt seeds conversations created without a prompt when the
// store was not given one.
const DefaultSystemPrompt = "You are a helpful assistant."

var (
	// ErrNotFound is returned for operations on an unregistered conversation id.
	ErrNotFound = errors.New("conversation not found")
	// ErrInvalidRole is returned when appending a message with an unknown role.
	ErrInvalidRole = errors.New("invalid message role")
	// ErrMissingID is returned when restoring a snapshot without an id.
	ErrMissingID = errors.New("conversation id is required")
)

// TokenWarning is the advisory raised when an append takes a conversation to
// 80% or more of the token limit.
type TokenWarning struct {
	ConversationID string
	TokenCount     int
	Limit          int
}

// Ratio returns TokenCount / Limit.
func (w TokenWarning) Ratio() float64 {
	if w.Limit <= 0 {
		return 0
	}
	return float64(w.TokenCount) / float64(w.Limit)
}

var (
	// WithSystemPrompt sets the prompt used by Create when none is given.
	WithSystemPrompt = opts.ForName[Store, string]("systemPrompt")
	// WithTokenLimit sets the limit the 80% warning threshold derives from.
	// Zero or less disables the warning.
	WithTokenLimit = opts.ForName[Store, int]("tokenLimit")
)

// WithTokenWarning registers fn to receive token warnings. It is called
// synchronously from Append, once per qualifying append.
func WithTokenWarning(fn func(TokenWarning)) opts.Option[Store] {
	return opts.Type[Store](func(s *Store) error {
		s.onWarning = fn
		return nil
	})
}

// WithLogger sets the logger used for token warnings.
func WithLogger(logger *slog.Logger) opts.Option[Store] {
	return opts.Type[Store](func(s *Store) error {
		if logger == nil {
			return errors.New("conversation: nil logger")
		}
		s.logger = logger
		return nil
	})
}

// Store is an in-memory registry of conversations keyed by id.
type Store struct {
	mu            sync.RWMutex
	conversations *orderedmap.OrderedMap[string, *Conversation]

	systemPrompt string
	tokenLimit   int
	onWarning    func(TokenWarning)
	logger       *slog.Logger
	now          func() time.Time
}

// NewStore creates an empty store. It panics on an invalid option.
func NewStore(options ...opts.Option[Store]) *Store {
	s := &Store{
		conversations: orderedmap.New[string, *Conversation](),
		systemPrompt:  DefaultSystemPrompt,
		logger:        slog.Default(),
		now:           time.Now,
	}
	if err := opts.Apply(s, options); err != nil {
		panic(err)
	}
	if s.systemPrompt == "" {
		s.systemPrompt = DefaultSystemPrompt
	}
	return s
}

// Create registers a new conversation seeded with a single system message
// and returns its id. An empty prompt selects the store default.
func (s *Store) Create(systemPrompt string) string {
	if systemPrompt == "" {
		systemPrompt = s.systemPrompt
	}

	now := strfmt.DateTime(s.now())
	conv := &Conversation{
		ID: uuidx.NewString(),
		Messages: []Message{{
			ID:        uuidx.Timestamped("sys"),
			Role:      RoleSystem,
			Content:   systemPrompt,
			Timestamp: now,
		}},
		Metadata:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	conv.TokenCount = tokens.EstimateAll(conv.Contents()...)

	s.mu.Lock()
	s.conversations.Set(conv.ID, conv)
	s.mu.Unlock()
	return conv.ID
}

// Append adds a message to the conversation identified by id, merges
// metadata into the conversation metadata and recomputes the token estimate.
func (s *Store) Append(id string, role Role, content string, metadata map[string]any) (Message, error) {
	if !role.Valid() {
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	s.mu.Lock()
	conv, ok := s.conversations.Get(id)
	if !ok {
		s.mu.Unlock()
		return Message{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	now := strfmt.DateTime(s.now())
	msg := Message{
		ID:        uuidx.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	conv.Messages = append(conv.Messages, msg)
	if len(metadata) > 0 {
		if conv.Metadata == nil {
			conv.Metadata = make(map[string]any, len(metadata))
		}
		maps.Copy(conv.Metadata, metadata)
	}
	conv.TokenCount = tokens.EstimateAll(conv.Contents()...)
	conv.UpdatedAt = now

	warning, warn := s.checkLimit(conv)
	s.mu.Unlock()

	if warn {
		s.warn(warning)
	}
	return msg, nil
}

// Get returns a snapshot of the conversation identified by id.
func (s *Store) Get(id string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations.Get(id)
	if !ok {
		return Conversation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return conv.clone(), nil
}

// List returns snapshots of all conversations in creation order.
func (s *Store) List() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, 0, s.conversations.Len())
	for pair := s.conversations.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.clone())
	}
	return out
}

// Len returns the number of registered conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversations.Len()
}

// Delete removes the conversation and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, present := s.conversations.Delete(id)
	return present
}

// Restore registers a copy of snapshot under its own id, replacing any
// conversation with the same id. The token estimate is recomputed from the
// restored messages.
func (s *Store) Restore(snapshot Conversation) error {
	if snapshot.ID == "" {
		return ErrMissingID
	}
	for _, m := range snapshot.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: %q in message %s", ErrInvalidRole, m.Role, m.ID)
		}
	}

	conv := snapshot.clone()
	if conv.Metadata == nil {
		conv.Metadata = map[string]any{}
	}
	conv.TokenCount = tokens.EstimateAll(conv.Contents()...)

	s.mu.Lock()
	s.conversations.Set(conv.ID, &conv)
	s.mu.Unlock()
	return nil
}

// checkLimit reports whether conv is at or above 80% of the token limit.
// Must be called with s.mu held.
func (s *Store) checkLimit(conv *Conversation) (TokenWarning, bool) {
	if s.tokenLimit <= 0 {
		return TokenWarning{}, false
	}
	// count >= 0.8 * limit, kept in integers
	if conv.TokenCount*5 < s.tokenLimit*4 {
		return TokenWarning{}, false
	}
	return TokenWarning{
		ConversationID: conv.ID,
		TokenCount:     conv.TokenCount,
		Limit:          s.tokenLimit,
	}, true
}

func (s *Store) warn(w TokenWarning) {
	s.logger.Warn("conversation approaching token limit",
		slogx.Conversation(w.ConversationID),
		slog.Int("tokens", w.TokenCount),
		slog.Int("limit", w.Limit),
	)
	if s.onWarning != nil {
		s.onWarning(w)
	}
}
