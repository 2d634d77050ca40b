package parley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/casualjim/parley/config"
	"github.com/casualjim/parley/conversation"
	"github.com/casualjim/parley/internal/registry"
	"github.com/casualjim/parley/pkg/slogx"
	"github.com/casualjim/parley/provider"
	"github.com/casualjim/parley/provider/anthropic"
	"github.com/casualjim/parley/provider/custom"
	"github.com/casualjim/parley/provider/google"
	"github.com/casualjim/parley/provider/openai"
	"github.com/casualjim/parley/sidestore"
	"github.com/fogfish/opts"
	"golang.org/x/sync/errgroup"
)

// ErrMissingCredential is returned when no API key can be resolved for a
// provider that requires one. No request is sent.
var ErrMissingCredential = errors.New("parley: missing credential")

// Toolkit sequences conversation state and provider calls. Each Toolkit owns
// its own conversation store; two toolkits never share conversations.
type Toolkit struct {
	config         config.Config
	client         *http.Client
	sessions       sidestore.Store
	logger         *slog.Logger
	onTokenWarning func(conversation.TokenWarning)
	extraAdapters  []provider.Adapter

	store    *conversation.Store
	adapters registry.Registry[provider.Adapter]
}

var (
	// Config sets the configuration. Defaults to config.Default().
	Config = opts.ForName[Toolkit, config.Config]("config")
	// HTTPClient sets the client used for provider requests.
	HTTPClient = opts.ForName[Toolkit, *http.Client]("client")
	// Sessions replaces the side-store built from the configuration.
	Sessions = opts.ForName[Toolkit, sidestore.Store]("sessions")
	// OnTokenWarning receives a warning whenever an append reaches 80% of
	// the configured token limit.
	OnTokenWarning = opts.ForName[Toolkit, func(conversation.TokenWarning)]("onTokenWarning")
)

// Logger sets the logger. Defaults to slog.Default().
func Logger(logger *slog.Logger) opts.Option[Toolkit] {
	return opts.Type[Toolkit](func(t *Toolkit) error {
		if logger == nil {
			return errors.New("parley: nil logger")
		}
		t.logger = logger
		return nil
	})
}

// Adapters registers additional adapters, replacing built-in ones with the
// same tag.
func Adapters(adapter provider.Adapter, extra ...provider.Adapter) opts.Option[Toolkit] {
	return opts.Type[Toolkit](func(t *Toolkit) error {
		t.extraAdapters = append(t.extraAdapters, adapter)
		t.extraAdapters = append(t.extraAdapters, extra...)
		return nil
	})
}

// New creates a Toolkit.
func New(options ...opts.Option[Toolkit]) (*Toolkit, error) {
	t := &Toolkit{
		config: config.Default(),
		client: http.DefaultClient,
		logger: slog.Default(),
	}
	if err := opts.Apply(t, options); err != nil {
		return nil, fmt.Errorf("parley: applying options: %w", err)
	}
	if err := t.config.Validate(); err != nil {
		return nil, err
	}
	if t.client == nil {
		t.client = http.DefaultClient
	}
	t.logger = t.logger.With(slogx.LoggerName("parley"))

	storeOptions := []opts.Option[conversation.Store]{
		conversation.WithSystemPrompt(t.config.SystemPrompt),
		conversation.WithTokenLimit(t.config.TokenLimit),
		conversation.WithLogger(t.logger),
	}
	if t.onTokenWarning != nil {
		storeOptions = append(storeOptions, conversation.WithTokenWarning(t.onTokenWarning))
	}
	t.store = conversation.NewStore(storeOptions...)

	t.adapters = registry.WithFallback[provider.Adapter](string(provider.Custom))
	for _, a := range []provider.Adapter{openai.New(), anthropic.New(), google.New(), custom.New()} {
		t.adapters.Add(string(a.Tag()), a)
	}
	for _, a := range t.extraAdapters {
		if a == nil {
			return nil, errors.New("parley: nil adapter")
		}
		t.adapters.Add(string(a.Tag()), a)
	}

	if t.sessions == nil {
		t.sessions = sidestore.New(sidestore.Options{
			Enabled: t.config.SideStore.Enabled,
			Prefix:  t.config.SideStore.Prefix,
			Path:    t.config.SideStore.Path,
		}, t.logger)
	}
	return t, nil
}

// Close releases the side-store.
func (t *Toolkit) Close() error {
	return sidestore.Close(t.sessions)
}

// CreateConversation registers a new conversation and returns its id. An
// empty prompt selects the configured system prompt.
func (t *Toolkit) CreateConversation(systemPrompt string) string {
	return t.store.Create(systemPrompt)
}

// AddMessage appends a message to a conversation.
func (t *Toolkit) AddMessage(id string, role conversation.Role, content string, metadata map[string]any) (conversation.Message, error) {
	return t.store.Append(id, role, content, metadata)
}

// GetConversation returns a snapshot of a conversation.
func (t *Toolkit) GetConversation(id string) (conversation.Conversation, error) {
	return t.store.Get(id)
}

// ListConversations returns snapshots of every conversation.
func (t *Toolkit) ListConversations() []conversation.Conversation {
	return t.store.List()
}

// DeleteConversation removes a conversation and reports whether it existed.
func (t *Toolkit) DeleteConversation(id string) bool {
	return t.store.Delete(id)
}

// SendCompletion appends text as a user message, sends the conversation to
// the resolved provider and appends the reply. On failure the user message
// stays in the conversation.
func (t *Toolkit) SendCompletion(ctx context.Context, id, text string, options ...CallOption) (string, error) {
	if _, err := t.store.Append(id, conversation.RoleUser, text, nil); err != nil {
		return "", err
	}

	req, adapter, err := t.prepare(id, false, options)
	if err != nil {
		return "", err
	}

	t.logger.DebugContext(ctx, "sending completion",
		slogx.Conversation(id),
		slogx.Provider(adapter.Tag()),
		slog.String("endpoint", req.Endpoint),
	)
	raw, err := provider.Post(ctx, t.client, req)
	if err != nil {
		t.logFailure(ctx, id, adapter.Tag(), err)
		return "", err
	}

	reply := adapter.DecodeFull(raw)
	if _, err := t.store.Append(id, conversation.RoleAssistant, reply, nil); err != nil {
		return "", err
	}
	return reply, nil
}

// StreamCompletion is SendCompletion with a streamed response. Every
// non-empty decoded fragment is passed to onChunk, in arrival order, before
// the next one is read. The full reply is appended and returned.
func (t *Toolkit) StreamCompletion(ctx context.Context, id, text string, onChunk func(string), options ...CallOption) (string, error) {
	if _, err := t.store.Append(id, conversation.RoleUser, text, nil); err != nil {
		return "", err
	}

	req, adapter, err := t.prepare(id, true, options)
	if err != nil {
		return "", err
	}

	t.logger.DebugContext(ctx, "streaming completion",
		slogx.Conversation(id),
		slogx.Provider(adapter.Tag()),
		slog.String("endpoint", req.Endpoint),
	)

	var reply strings.Builder
	err = provider.Stream(ctx, t.client, req, func(fragment []byte) {
		piece := adapter.DecodeStreamChunk(fragment)
		if piece == "" {
			return
		}
		reply.WriteString(piece)
		if onChunk != nil {
			onChunk(piece)
		}
	})
	if err != nil {
		t.logFailure(ctx, id, adapter.Tag(), err)
		return "", err
	}

	full := reply.String()
	if _, err := t.store.Append(id, conversation.RoleAssistant, full, nil); err != nil {
		return "", err
	}
	return full, nil
}

// BatchRequest is one entry of a BatchCompletions call.
type BatchRequest struct {
	ConversationID string
	Text           string
	Options        []CallOption
}

// BatchCompletions runs SendCompletion for every request concurrently and
// returns the replies in request order. If any request fails the batch
// fails; requests already in flight are left to finish.
func (t *Toolkit) BatchCompletions(ctx context.Context, requests []BatchRequest) ([]string, error) {
	results := make([]string, len(requests))

	var g errgroup.Group
	for i, r := range requests {
		g.Go(func() error {
			reply, err := t.SendCompletion(ctx, r.ConversationID, r.Text, r.Options...)
			if err != nil {
				return fmt.Errorf("parley: batch request %d: %w", i, err)
			}
			results[i] = reply
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ResolveOptions builds the options for a call: configured defaults, then
// options, then credential and endpoint resolution for the chosen provider.
func (t *Toolkit) ResolveOptions(stream bool, options ...CallOption) (provider.Options, provider.Adapter, error) {
	o := provider.Options{
		Provider:    provider.ParseTag(t.config.DefaultProvider),
		Model:       t.config.DefaultModel,
		Temperature: t.config.Temperature,
		MaxTokens:   t.config.MaxTokens,
	}
	if err := opts.Apply(&o, options); err != nil {
		return provider.Options{}, nil, fmt.Errorf("parley: applying call options: %w", err)
	}
	o.Stream = stream
	o.Provider = provider.ParseTag(string(o.Provider))
	if o.Provider == "" {
		o.Provider = provider.ParseTag(t.config.DefaultProvider)
	}

	adapter, ok := t.adapters.Lookup(string(o.Provider))
	if !ok {
		return provider.Options{}, nil, fmt.Errorf("parley: no adapter for provider %q", o.Provider)
	}

	if o.APIKey == "" {
		o.APIKey = t.config.Credential(string(o.Provider))
	}
	if o.APIKey == "" && adapter.RequiresCredential() {
		return provider.Options{}, nil, fmt.Errorf("%w for provider %q", ErrMissingCredential, o.Provider)
	}

	if o.Endpoint == "" {
		o.Endpoint = t.config.Endpoint(string(o.Provider))
	}
	if o.Endpoint == "" {
		o.Endpoint = adapter.DefaultEndpoint(o.Model, o.Stream)
	}
	return o, adapter, nil
}

// maxLoggedBody bounds how much of a failed response body goes into a log
// record.
const maxLoggedBody = 512

func (t *Toolkit) logFailure(ctx context.Context, id string, tag provider.Tag, err error) {
	attrs := []any{slogx.Conversation(id), slogx.Provider(tag)}
	var reqErr *provider.RequestError
	if errors.As(err, &reqErr) {
		attrs = append(attrs,
			slog.Int("status", reqErr.StatusCode),
			slogx.Truncated("body", reqErr.Body, maxLoggedBody),
		)
	} else {
		attrs = append(attrs, slogx.Error(err))
	}
	t.logger.DebugContext(ctx, "completion failed", attrs...)
}

// prepare resolves options and renders the request for the current history
// of conversation id.
func (t *Toolkit) prepare(id string, stream bool, options []CallOption) (provider.Request, provider.Adapter, error) {
	o, adapter, err := t.ResolveOptions(stream, options...)
	if err != nil {
		return provider.Request{}, nil, err
	}

	conv, err := t.store.Get(id)
	if err != nil {
		return provider.Request{}, nil, err
	}

	body, err := adapter.BuildBody(conv.Messages, &o)
	if err != nil {
		return provider.Request{}, nil, fmt.Errorf("parley: building %s request: %w", o.Provider, err)
	}
	return provider.Request{
		Endpoint:   o.Endpoint,
		Header:     adapter.BuildHeaders(&o),
		Body:       body,
		LineFramed: provider.LineFramed(adapter),
	}, adapter, nil
}
