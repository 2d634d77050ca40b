// Package anthropic implements the provider.Adapter for the Anthropic
// Messages API.
package anthropic

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/casualjim/parley/conversation"
	"github.com/casualjim/parley/provider"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

const (
	// DefaultEndpoint is the public Messages API URL.
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	// APIVersion is sent in the anthropic-version header.
	APIVersion = "2023-06-01"

	contentBlockDelta = "content_block_delta"
)

var (
	_ provider.Adapter    = Adapter{}
	_ provider.LineFramer = Adapter{}
)

// Adapter speaks the Anthropic Messages format.
type Adapter struct{}

// New returns the Anthropic adapter.
func New() Adapter {
	return Adapter{}
}

// History is the Anthropic history shape: the system prompt travels beside
// the message list rather than inside it.
type History struct {
	System   string                 `json:"system,omitempty"`
	Messages []provider.RoleContent `json:"messages"`
}

func (Adapter) Tag() provider.Tag { return provider.Anthropic }

func (Adapter) RequiresCredential() bool { return true }

// LineFramed is true: the stream is SSE.
func (Adapter) LineFramed() bool { return true }

func (Adapter) DefaultEndpoint(string, bool) string { return DefaultEndpoint }

// Split separates system messages from the rest. Several system messages
// are joined with a blank line.
func Split(msgs []conversation.Message) History {
	var system []string
	h := History{Messages: make([]provider.RoleContent, 0, len(msgs))}
	for _, m := range msgs {
		if m.Role == conversation.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		h.Messages = append(h.Messages, provider.RoleContent{Role: string(m.Role), Content: m.Content})
	}
	h.System = strings.Join(system, "\n\n")
	return h
}

// FormatHistory renders {system, messages} with system messages removed from
// the list.
func (Adapter) FormatHistory(msgs []conversation.Message) ([]byte, error) {
	return json.Marshal(Split(msgs))
}

func (Adapter) BuildBody(msgs []conversation.Message, options *provider.Options) ([]byte, error) {
	h := Split(msgs)
	messages, err := json.Marshal(h.Messages)
	if err != nil {
		return nil, err
	}

	body := provider.NewBody().Set("model", options.Model)
	if h.System != "" {
		body.Set("system", h.System)
	}
	return body.
		SetRaw("messages", messages).
		Set("max_tokens", options.MaxTokens).
		Set("temperature", options.Temperature).
		Set("stream", options.Stream).
		Merge(options.Extra).
		Bytes()
}

func (Adapter) BuildHeaders(options *provider.Options) http.Header {
	h := provider.JSONHeaders()
	h.Set("x-api-key", options.APIKey)
	h.Set("anthropic-version", APIVersion)
	return h
}

// DecodeFull returns content[0].text.
func (Adapter) DecodeFull(body []byte) string {
	return gjson.GetBytes(body, "content.0.text").String()
}

// DecodeStreamChunk concatenates delta.text of every content_block_delta
// event in chunk. Each line is one JSON event, optionally behind an SSE
// "data:" prefix; "event:" lines and other event types are ignored. A line
// that is not valid JSON makes the whole fragment yield "".
func (Adapter) DecodeStreamChunk(chunk []byte) string {
	var out bytes.Buffer
	for line := range provider.Lines(chunk) {
		if provider.IsEventLine(line) || provider.IsComment(line) {
			continue
		}
		payload := provider.StripData(line)
		if !gjson.ValidBytes(payload) {
			return ""
		}
		event := gjson.ParseBytes(payload)
		if event.Get("type").String() != contentBlockDelta {
			continue
		}
		out.WriteString(event.Get("delta.text").String())
	}
	return out.String()
}
