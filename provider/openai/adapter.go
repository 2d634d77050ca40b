package openai

import (
	"bytes"
	"net/http"

	"github.com/casualjim/parley/conversation"
	"github.com/casualjim/parley/provider"
	"github.com/tidwall/gjson"
)

// DefaultEndpoint is the public chat completions URL.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// doneSentinel is the whole payload of the data line that ends a stream.
var doneSentinel = []byte("[DONE]")

var (
	_ provider.Adapter    = Adapter{}
	_ provider.LineFramer = Adapter{}
)

// Adapter speaks the OpenAI chat completions format.
type Adapter struct{}

// New returns the OpenAI adapter.
func New() Adapter {
	return Adapter{}
}

func (Adapter) Tag() provider.Tag { return provider.OpenAI }

func (Adapter) RequiresCredential() bool { return true }

// LineFramed is true: the stream is SSE.
func (Adapter) LineFramed() bool { return true }

func (Adapter) DefaultEndpoint(string, bool) string { return DefaultEndpoint }

// FormatHistory renders msgs as [{role, content}], system message included.
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

func (Adapter) BuildHeaders(options *provider.Options) http.Header {
	return provider.BearerHeaders(options.APIKey)
}

// DecodeFull returns choices[0].message.content.
func (Adapter) DecodeFull(body []byte) string {
	return gjson.GetBytes(body, "choices.0.message.content").String()
}

// DecodeStreamChunk concatenates choices[0].delta.content over every data
// line in chunk. Non-data SSE lines and the data line whose payload is
// exactly [DONE] are skipped; [DONE] appearing inside a delta is content. If any data line is not valid JSON the whole fragment yields
// "".
func (Adapter) DecodeStreamChunk(chunk []byte) string {
	var out bytes.Buffer
	for line := range provider.Lines(chunk) {
		payload, ok := provider.DataPayload(line)
		if !ok || bytes.Equal(payload, doneSentinel) {
			continue
		}
		if !gjson.ValidBytes(payload) {
			return ""
		}
		out.WriteString(gjson.GetBytes(payload, "choices.0.delta.content").String())
	}
	return out.String()
}
