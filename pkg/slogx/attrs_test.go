package slogx

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type tag string

func TestAttrs(t *testing.T) {
	assert.Equal(t, slog.String("error", "boom"), Error(errors.New("boom")))
	assert.Equal(t, slog.String("error", "<nil>"), Error(nil))
	assert.Equal(t, slog.String(KeyLoggerName, "parley"), LoggerName("parley"))
	assert.Equal(t, slog.String(KeyConversation, "c1"), Conversation("c1"))
	assert.Equal(t, slog.String(KeyProvider, "openai"), Provider(tag("openai")))
}

func TestTruncated(t *testing.T) {
	assert.Equal(t, "abc", Truncated("k", "abc", 10).Value.String())
	assert.Equal(t, "ab…", Truncated("k", "abc", 2).Value.String())
	assert.Equal(t, "abc", Truncated("k", "abc", 0).Value.String())
}
