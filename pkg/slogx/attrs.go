package slogx

import (
	"log/slog"
)

const (
	// KeyLoggerName is the attribute key naming the component that logged.
	KeyLoggerName = "logger"
	// KeyConversation is the attribute key for a conversation id.
	KeyConversation = "conversation_id"
	// KeyProvider is the attribute key for a provider tag.
	KeyProvider = "provider"
)

// Error returns an "error" attribute holding err's message.
// A nil error is rendered as "<nil>" rather than panicking.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// LoggerName returns the attribute that names a logger.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Conversation tags a record with the conversation it concerns.
func Conversation(id string) slog.Attr {
	return slog.String(KeyConversation, id)
}

// Provider tags a record with the provider a request was sent to.
func Provider[T ~string](tag T) slog.Attr {
	return slog.String(KeyProvider, string(tag))
}

// Truncated renders at most max bytes of value, marking the cut.
func Truncated(key, value string, max int) slog.Attr {
	if max <= 0 || len(value) <= max {
		return slog.String(key, value)
	}
	return slog.String(key, value[:max]+"…")
}
