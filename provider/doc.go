// Package provider defines how conversation history is translated into the
// HTTP payloads of large-language-model APIs and how their responses become
// plain text again.
//
// Design decisions:
//   - One capability interface: every wire format implements Adapter; adding
//     a provider means adding one implementation, the orchestrator is untouched
//   - Pure adapters: formatting and decoding never do I/O, the transport lives
//     in Post and Stream
//   - Lenient decoding: a missing response field is an empty string, a broken
//     stream fragment is contained to that fragment
//   - JSON by path: bodies are assembled with sjson and read with gjson so
//     provider specific extras can be merged without schema types
//
// The implementations live in the openai, anthropic, google and custom
// sub-packages.
//
// Example usage:
//
//	adapter := openai.New()
//	options := &provider.Options{Model: "gpt-4o-mini", APIKey: key, MaxTokens: 512}
//	body, err := adapter.BuildBody(conv.Messages, options)
//	if err != nil {
//	    return err
//	}
//	raw, err := provider.Post(ctx, http.DefaultClient, provider.Request{
//	    Endpoint: adapter.DefaultEndpoint(options.Model, false),
//	    Header:   adapter.BuildHeaders(options),
//	    Body:     body,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(adapter.DecodeFull(raw))
package provider
