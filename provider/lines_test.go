package provider

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(fragment string) []string {
	var out []string
	for line := range Lines([]byte(fragment)) {
		out = append(out, string(line))
	}
	return out
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, collect("a\n\n  b  \r\n"))
	assert.Empty(t, collect("\n\n"))

	// stopping early must not panic
	for range Lines([]byte("a\nb\nc")) {
		break
	}
	assert.True(t, slices.Equal([]string{"x"}, collect("x")))
}

func TestSSEHelpers(t *testing.T) {
	payload, ok := DataPayload([]byte("data: {\"a\":1}"))
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(payload))

	payload, ok = DataPayload([]byte("data:{}"))
	assert.True(t, ok)
	assert.Equal(t, `{}`, string(payload))

	_, ok = DataPayload([]byte(`{"a":1}`))
	assert.False(t, ok)

	assert.Equal(t, `{"a":1}`, string(StripData([]byte(`{"a":1}`))))
	assert.True(t, IsEventLine([]byte("event: ping")))
	assert.True(t, IsComment([]byte(": ping")))
	assert.False(t, IsComment([]byte("data: x")))
}
