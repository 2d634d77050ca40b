// Package custom implements the provider.Adapter used for self-hosted or
// otherwise unknown APIs, and as the fallback for unrecognised provider tags.
//
// The request body mirrors the OpenAI shape with the raw message list.
// Responses are decoded leniently: several conventional fields are tried in
// turn, and streamed fragments that do not carry one of them are passed
// through as text so nothing the server sends is dropped. Stream fragments
// are delivered per read, not per line.
package custom

import (
	"bytes"
	"net/http"

	"github.com/casualjim/parley/conversation"
	"github.com/casualjim/parley/provider"
	"github.com/tidwall/gjson"
)

// DefaultEndpoint is a local OpenAI compatible server.
const DefaultEndpoint = "http://localhost:8000/v1/chat/completions"

var (
	fullPaths   = []string{"content", "text", "message.content", "choices.0.message.content", "completion"}
	streamPaths = []string{"text", "content", "completion"}
)

var _ provider.Adapter = Adapter{}

// Adapter speaks the generic custom format.
type Adapter struct{}

// New returns the custom adapter.
func New() Adapter {
	return Adapter{}
}

func (Adapter) Tag() provider.Tag { return provider.Custom }

// RequiresCredential is false: local servers commonly accept anonymous
// requests, so a missing key only drops the Authorization header.
func (Adapter) RequiresCredential() bool { return false }

func (Adapter) DefaultEndpoint(string, bool) string { return DefaultEndpoint }

// FormatHistory passes the message list through as [{role, content}].
func (Adapter) FormatHistory(msgs []conversation.Message) ([]byte, error) {
	return provider.RoleContentHistory(msgs)
}

func (a Adapter) BuildBody(msgs []conversation.Message, options *provider.Options) ([]byte, error) {
	history, err := a.FormatHistory(msgs)
	if err != nil {
		return nil, err
	}
	return provider.NewBody().
		Set("model", options.Model).
		SetRaw("messages", history).
		Set("temperature", options.Temperature).
		Set("max_tokens", options.MaxTokens).
		Set("stream", options.Stream).
		Merge(options.Extra).
		Bytes()
}

// BuildHeaders sets Authorization only when a key was provided.
func (Adapter) BuildHeaders(options *provider.Options) http.Header {
	return provider.BearerHeaders(options.APIKey)
}

// DecodeFull returns the first present of content, text, message.content,
// choices[0].message.content and completion.
func (Adapter) DecodeFull(body []byte) string {
	text, _ := firstOf(gjson.ParseBytes(body), fullPaths)
	return text
}

// DecodeStreamChunk reads chunk as a single JSON object and returns the first
// present of text, content and completion. Anything else, including SSE
// framing and JSON without those fields, is returned unchanged.
func (Adapter) DecodeStreamChunk(chunk []byte) string {
	trimmed := bytes.TrimSpace(chunk)
	if !gjson.ValidBytes(trimmed) {
		return string(chunk)
	}
	if text, ok := firstOf(gjson.ParseBytes(trimmed), streamPaths); ok {
		return text
	}
	return string(chunk)
}

func firstOf(doc gjson.Result, paths []string) (string, bool) {
	for _, p := range paths {
		if v := doc.Get(p); v.Exists() {
			return v.String(), true
		}
	}
	return "", false
}
