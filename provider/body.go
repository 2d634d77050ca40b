package provider

import (
	"slices"
	"strings"

	"github.com/casualjim/parley/conversation"
	json "github.com/goccy/go-json"
	"github.com/tidwall/sjson"
)

// RoleContent is the {role, content} history entry shared by the OpenAI
// style formats.
type RoleContent struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RoleContentHistory renders msgs as a JSON array of RoleContent.
func RoleContentHistory(msgs []conversation.Message) ([]byte, error) {
	out := make([]RoleContent, len(msgs))
	for i, m := range msgs {
		out[i] = RoleContent{Role: string(m.Role), Content: m.Content}
	}
	return json.Marshal(out)
}

// Body assembles a JSON request body field by field. The first error sticks
// and is reported by Bytes.
type Body struct {
	raw []byte
	err error
}

// NewBody starts an empty JSON object.
func NewBody() *Body {
	return &Body{raw: []byte(`{}`)}
}

// Set writes value at path.
func (b *Body) Set(path string, value any) *Body {
	if b.err != nil {
		return b
	}
	b.raw, b.err = sjson.SetBytes(b.raw, path, value)
	return b
}

// SetRaw writes already encoded JSON at path.
func (b *Body) SetRaw(path string, raw []byte) *Body {
	if b.err != nil {
		return b
	}
	b.raw, b.err = sjson.SetRawBytes(b.raw, path, raw)
	return b
}

// Merge writes every entry of extra as a top level field, in key order.
// Keys are taken literally, dots included.
func (b *Body) Merge(extra map[string]any) *Body {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.Set(escapePath(k), extra[k])
	}
	return b
}

// Bytes returns the encoded body or the first error hit while building it.
func (b *Body) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.raw, nil
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`)

func escapePath(key string) string {
	return pathEscaper.Replace(key)
}
