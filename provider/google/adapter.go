// Package google implements the provider.Adapter for the Gemini
// generateContent API.
//
// Gemini has no assistant role: assistant turns are sent as "model" and every
// other turn, system included, as "user".
package google

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/casualjim/parley/conversation"
	"github.com/casualjim/parley/provider"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

const (
	// BaseURL is the root of the public Gemini API.
	BaseURL = "https://generativelanguage.googleapis.com/v1beta"

	roleModel = "model"
	roleUser  = "user"

	textPath = "candidates.0.content.parts.0.text"
)

var (
	_ provider.Adapter    = Adapter{}
	_ provider.LineFramer = Adapter{}
)

// Adapter speaks the Gemini generateContent format.
type Adapter struct{}

// New returns the Google adapter.
func New() Adapter {
	return Adapter{}
}

// Part is a single text part of a Content entry.
type Part struct {
	Text string `json:"text"`
}

// Content is one turn in the Gemini history shape.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

func (Adapter) Tag() provider.Tag { return provider.Google }

func (Adapter) RequiresCredential() bool { return true }

// LineFramed is true: the stream is SSE.
func (Adapter) LineFramed() bool { return true }

// DefaultEndpoint builds the model specific URL. Streaming requests use
// streamGenerateContent with SSE framing.
func (Adapter) DefaultEndpoint(model string, stream bool) string {
	if stream {
		return fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", BaseURL, url.PathEscape(model))
	}
	return fmt.Sprintf("%s/models/%s:generateContent", BaseURL, url.PathEscape(model))
}

// Contents maps msgs onto Gemini turns.
func Contents(msgs []conversation.Message) []Content {
	out := make([]Content, len(msgs))
	for i, m := range msgs {
		role := roleUser
		if m.Role == conversation.RoleAssistant {
			role = roleModel
		}
		out[i] = Content{Role: role, Parts: []Part{{Text: m.Content}}}
	}
	return out
}

// FormatHistory renders msgs as [{role, parts:[{text}]}].
func (Adapter) FormatHistory(msgs []conversation.Message) ([]byte, error) {
	return json.Marshal(Contents(msgs))
}

func (a Adapter) BuildBody(msgs []conversation.Message, options *provider.Options) ([]byte, error) {
	contents, err := a.FormatHistory(msgs)
	if err != nil {
		return nil, err
	}
	return provider.NewBody().
		Set("model", options.Model).
		SetRaw("contents", contents).
		Set("generationConfig.temperature", options.Temperature).
		Set("generationConfig.maxOutputTokens", options.MaxTokens).
		Merge(options.Extra).
		Bytes()
}

func (Adapter) BuildHeaders(options *provider.Options) http.Header {
	return provider.BearerHeaders(options.APIKey)
}

// DecodeFull returns candidates[0].content.parts[0].text.
func (Adapter) DecodeFull(body []byte) string {
	return gjson.GetBytes(body, textPath).String()
}

// DecodeStreamChunk reads chunk as a single JSON object and returns
// candidates[0].content.parts[0].text. SSE framed fragments are accepted too:
// each data line is decoded and the texts are concatenated. Anything that
// does not parse yields "".
func (Adapter) DecodeStreamChunk(chunk []byte) string {
	trimmed := bytes.TrimSpace(chunk)
	if gjson.ValidBytes(trimmed) {
		return gjson.GetBytes(trimmed, textPath).String()
	}

	var out bytes.Buffer
	for line := range provider.Lines(chunk) {
		if provider.IsEventLine(line) || provider.IsComment(line) {
			continue
		}
		payload := provider.StripData(line)
		if !gjson.ValidBytes(payload) {
			return ""
		}
		out.WriteString(gjson.GetBytes(payload, textPath).String())
	}
	return out.String()
}
