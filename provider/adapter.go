package provider

import (
	"net/http"
	"strings"

	"github.com/casualjim/parley/conversation"
)

// Tag names a provider wire format.
type Tag string

const (
	OpenAI    Tag = "openai"
	Anthropic Tag = "anthropic"
	Google    Tag = "google"
	Custom    Tag = "custom"
)

// ParseTag normalizes s into a Tag. Unknown names are returned as-is so the
// registry can route them to the Custom fallback.
func ParseTag(s string) Tag {
	return Tag(strings.ToLower(strings.TrimSpace(s)))
}

func (t Tag) String() string {
	return string(t)
}

// Adapter translates conversation history into one provider's HTTP payload
// and decodes that provider's responses back into text.
//
// Adapters are stateless and safe for concurrent use. They never perform I/O;
// see Post and Stream for the transport.
type Adapter interface {
	// Tag identifies the wire format this adapter speaks.
	Tag() Tag

	// RequiresCredential reports whether a request must carry an API key.
	RequiresCredential() bool

	// DefaultEndpoint is the URL used when neither the caller nor the
	// configuration names one.
	DefaultEndpoint(model string, stream bool) string

	// FormatHistory renders messages in the provider's history shape as JSON.
	FormatHistory(msgs []conversation.Message) ([]byte, error)

	// BuildBody renders the complete request body.
	BuildBody(msgs []conversation.Message, options *Options) ([]byte, error)

	// BuildHeaders returns the auth and content headers for a request.
	BuildHeaders(options *Options) http.Header

	// DecodeFull extracts the assistant text from a complete response body.
	// A missing field yields "".
	DecodeFull(body []byte) string

	// DecodeStreamChunk extracts the text carried by one streamed fragment.
	// It never fails; malformed fragments yield "" unless the adapter
	// documents a passthrough.
	DecodeStreamChunk(chunk []byte) string
}

// LineFramer is implemented by adapters whose stream is a sequence of lines,
// such as SSE. Their fragments are cut on line boundaries.
type LineFramer interface {
	LineFramed() bool
}

// LineFramed reports whether a decodes its stream line by line.
func LineFramed(a Adapter) bool {
	lf, ok := a.(LineFramer)
	return ok && lf.LineFramed()
}

// Options are the per-call completion settings handed to an Adapter.
// They are built fresh for every call and never persisted.
type Options struct {
	Provider    Tag
	Model       string
	Temperature float64
	MaxTokens   int
	Stream      bool

	// APIKey is the resolved credential. Empty for providers that accept
	// anonymous requests.
	APIKey string

	// Endpoint is the resolved URL the request is sent to.
	Endpoint string

	// Extra holds provider specific body fields. They are written last and
	// overwrite anything the adapter set under the same key.
	Extra map[string]any
}

// JSONHeaders returns a header set with the JSON content type.
func JSONHeaders() http.Header {
	h := make(http.Header, 3)
	h.Set("Content-Type", "application/json")
	return h
}

// BearerHeaders returns JSON headers with an Authorization bearer token.
// The Authorization header is omitted when key is empty.
func BearerHeaders(key string) http.Header {
	h := JSONHeaders()
	if key != "" {
		h.Set("Authorization", "Bearer "+key)
	}
	return h
}
