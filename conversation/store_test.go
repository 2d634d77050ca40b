package conversation

import (
	"strings"
	"sync"
	"testing"

	"github.com/casualjim/parley/pkg/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Run("create with default prompt", func(t *testing.T) {
		s := NewStore()
		id := s.Create("")
		require.NotEmpty(t, id)

		conv, err := s.Get(id)
		require.NoError(t, err)
		require.Len(t, conv.Messages, 1)
		assert.Equal(t, RoleSystem, conv.Messages[0].Role)
		assert.Equal(t, DefaultSystemPrompt, conv.Messages[0].Content)
		assert.NotEmpty(t, conv.Messages[0].ID)
		assert.Equal(t, tokens.Estimate(DefaultSystemPrompt), conv.TokenCount)
	})

	t.Run("create with configured prompt", func(t *testing.T) {
		s := NewStore(WithSystemPrompt("Be brief."))
		conv, err := s.Get(s.Create(""))
		require.NoError(t, err)
		require.Len(t, conv.Messages, 1)
		assert.Equal(t, "Be brief.", conv.Messages[0].Content)
	})

	t.Run("create with explicit prompt", func(t *testing.T) {
		s := NewStore(WithSystemPrompt("Be brief."))
		conv, err := s.Get(s.Create("Speak like a pirate."))
		require.NoError(t, err)
		assert.Equal(t, "Speak like a pirate.", conv.Messages[0].Content)
	})

	t.Run("ids are unique", func(t *testing.T) {
		s := NewStore()
		assert.NotEqual(t, s.Create(""), s.Create(""))
	})

	t.Run("append grows history by one and recomputes tokens", func(t *testing.T) {
		s := NewStore()
		id := s.Create("sys")

		for _, content := range []string{"hello there", "general kenobi", strings.Repeat("x", 37)} {
			before, err := s.Get(id)
			require.NoError(t, err)

			msg, err := s.Append(id, RoleUser, content, nil)
			require.NoError(t, err)
			assert.NotEmpty(t, msg.ID)
			assert.Equal(t, content, msg.Content)
			assert.False(t, msg.Timestamp.IsZero())

			after, err := s.Get(id)
			require.NoError(t, err)
			assert.Equal(t, before.Len()+1, after.Len())
			assert.Equal(t, tokens.Estimate(strings.Join(after.Contents(), "")), after.TokenCount)
		}
	})

	t.Run("append assigns distinct message ids", func(t *testing.T) {
		s := NewStore()
		id := s.Create("")
		a, err := s.Append(id, RoleUser, "a", nil)
		require.NoError(t, err)
		b, err := s.Append(id, RoleAssistant, "b", nil)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("append to unknown id", func(t *testing.T) {
		s := NewStore()
		_, err := s.Append("nope", RoleUser, "hi", nil)
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 0, s.Len(), "append must not create a conversation")

		_, err = s.Get("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("append rejects unknown roles", func(t *testing.T) {
		s := NewStore()
		id := s.Create("")
		_, err := s.Append(id, Role("tool"), "x", nil)
		require.ErrorIs(t, err, ErrInvalidRole)

		conv, err := s.Get(id)
		require.NoError(t, err)
		assert.Equal(t, 1, conv.Len())
	})

	t.Run("metadata is shallow merged", func(t *testing.T) {
		s := NewStore()
		id := s.Create("")
		_, err := s.Append(id, RoleUser, "a", map[string]any{"topic": "go", "n": 1})
		require.NoError(t, err)
		_, err = s.Append(id, RoleUser, "b", map[string]any{"n": 2, "lang": "en"})
		require.NoError(t, err)

		conv, err := s.Get(id)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"topic": "go", "n": 2, "lang": "en"}, conv.Metadata)
	})

	t.Run("snapshots do not alias store state", func(t *testing.T) {
		s := NewStore()
		id := s.Create("")
		_, err := s.Append(id, RoleUser, "a", map[string]any{"k": "v"})
		require.NoError(t, err)

		conv, err := s.Get(id)
		require.NoError(t, err)
		conv.Messages[0].Content = "tampered"
		conv.Messages = append(conv.Messages, Message{Content: "extra"})
		conv.Metadata["k"] = "changed"

		again, err := s.Get(id)
		require.NoError(t, err)
		assert.Equal(t, DefaultSystemPrompt, again.Messages[0].Content)
		assert.Equal(t, 2, again.Len())
		assert.Equal(t, "v", again.Metadata["k"])
	})

	t.Run("list preserves creation order", func(t *testing.T) {
		s := NewStore()
		ids := []string{s.Create("1"), s.Create("2"), s.Create("3")}

		list := s.List()
		require.Len(t, list, 3)
		for i, conv := range list {
			assert.Equal(t, ids[i], conv.ID)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := NewStore()
		id := s.Create("")
		assert.True(t, s.Delete(id))
		assert.False(t, s.Delete(id))
		assert.False(t, s.Delete("never-existed"))

		_, err := s.Get(id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, s.List())
	})

	t.Run("restore", func(t *testing.T) {
		s := NewStore()
		snapshot := Conversation{
			ID: "restored",
			Messages: []Message{
				{ID: "m1", Role: RoleSystem, Content: "sys"},
				{ID: "m2", Role: RoleUser, Content: "hello"},
			},
			TokenCount: 999,
		}
		require.NoError(t, s.Restore(snapshot))

		conv, err := s.Get("restored")
		require.NoError(t, err)
		assert.Equal(t, 2, conv.Len())
		assert.Equal(t, tokens.Estimate("syshello"), conv.TokenCount)
		assert.NotNil(t, conv.Metadata)

		assert.ErrorIs(t, s.Restore(Conversation{}), ErrMissingID)
		assert.ErrorIs(t, s.Restore(Conversation{ID: "x", Messages: []Message{{Role: "bogus"}}}), ErrInvalidRole)
	})
}

func TestStore_TokenWarning(t *testing.T) {
	t.Run("fires once per qualifying append", func(t *testing.T) {
		var warnings []TokenWarning
		s := NewStore(
			WithTokenLimit(100),
			WithTokenWarning(func(w TokenWarning) { warnings = append(warnings, w) }),
		)
		// system prompt of 40 chars is 10 tokens
		id := s.Create(strings.Repeat("s", 40))

		// 10 + 69 tokens = 79, below threshold
		_, err := s.Append(id, RoleUser, strings.Repeat("u", 276), nil)
		require.NoError(t, err)
		assert.Empty(t, warnings)

		// push the total to exactly 80 tokens
		_, err = s.Append(id, RoleUser, strings.Repeat("u", 4), nil)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, id, warnings[0].ConversationID)
		assert.Equal(t, 80, warnings[0].TokenCount)
		assert.Equal(t, 100, warnings[0].Limit)
		assert.InDelta(t, 0.8, warnings[0].Ratio(), 1e-9)

		// still above threshold, warns again for this append only
		_, err = s.Append(id, RoleAssistant, "ok", nil)
		require.NoError(t, err)
		assert.Len(t, warnings, 2)
	})

	t.Run("disabled without a limit", func(t *testing.T) {
		var called bool
		s := NewStore(WithTokenWarning(func(TokenWarning) { called = true }))
		id := s.Create("")
		_, err := s.Append(id, RoleUser, strings.Repeat("x", 10_000), nil)
		require.NoError(t, err)
		assert.False(t, called)
	})
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := NewStore()
	id := s.Create("")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Append(id, RoleUser, "msg", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	conv, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 51, conv.Len())
}

func TestRole(t *testing.T) {
	assert.True(t, RoleSystem.Valid())
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("model").Valid())
	assert.Equal(t, "user", RoleUser.String())
}
