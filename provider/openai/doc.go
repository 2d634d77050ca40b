// Package openai implements the provider.Adapter for the OpenAI Chat
// Completions wire format.
//
// History is a flat list of {role, content} entries with the system prompt
// kept inline. Requests authenticate with a bearer token. Streamed responses
// arrive as SSE "data:" lines terminated by "data: [DONE]"; each line carries
// a chunk whose choices[0].delta.content is the next piece of text.
//
// Any server that speaks this format (Azure OpenAI, OpenRouter, vLLM,
// llama.cpp, Ollama's compatibility endpoint) works with an endpoint override.
package openai
