package uuidx

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewString(t *testing.T) {
	idStr := NewString()
	id, err := uuid.Parse(idStr)
	require.NoError(t, err, "NewString should return a valid UUID string")
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, uuid.RFC4122, id.Variant())

	assert.Regexp(t, "^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$", idStr)
	assert.NotEqual(t, idStr, NewString(), "Generated UUID strings should be unique")
}

func TestFallback(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := Fallback()
		parts := strings.SplitN(id, "-", 2)
		require.Len(t, parts, 2, "fallback id should be <time>-<suffix>: %s", id)
		assert.NotEmpty(t, parts[0])
		assert.NotEmpty(t, parts[1])
		_, dup := seen[id]
		require.False(t, dup, "fallback produced a duplicate id %s", id)
		seen[id] = struct{}{}
	}

	_, err := uuid.Parse(Fallback())
	assert.Error(t, err, "fallback ids are not UUIDs")
}

func TestTimestamped(t *testing.T) {
	id := Timestamped("sys")
	assert.True(t, strings.HasPrefix(id, "sys-"))
	assert.Greater(t, len(id), len("sys-"))
}
