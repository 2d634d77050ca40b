/*
Package parley provides a single client surface over several chat-completion
APIs, with multi-turn conversation state kept in process.

The package is built around a few abstractions:

  - Conversations: ordered message histories with token accounting
  - Adapters: per-provider translation of history into request bodies and of
    responses back into text
  - Toolkit: the orchestrator that appends messages, resolves options and
    sequences requests
  - Sessions: an optional key/value side-store for opaque blobs and
    conversation snapshots

# Basic Usage

	tk, err := parley.New(parley.Config(cfg))
	if err != nil {
		// Handle error
	}
	defer tk.Close()

	id := tk.CreateConversation("You are terse.")
	reply, err := tk.SendCompletion(ctx, id, "Name three primes",
		parley.WithProvider(provider.Anthropic),
		parley.WithModel("claude-3-5-haiku-latest"),
	)

Streaming delivers decoded text as it arrives:

	full, err := tk.StreamCompletion(ctx, id, "And three more", func(chunk string) {
		fmt.Print(chunk)
	})

# Option Resolution

Every call starts from the configured defaults (provider, model, temperature
and max tokens) and applies the call options on top. Credentials and
endpoints resolve in this order:

 1. the explicit call option
 2. the configured value for the provider
 3. the provider's default endpoint; there is no default credential

A provider that requires a credential fails with ErrMissingCredential before
any request is sent. The user message is appended first and stays in the
conversation when a call fails.

# Concurrency

A Toolkit is safe for concurrent use. Appends to the same conversation from
concurrent calls are serialized but may interleave. BatchCompletions runs its
requests concurrently and returns replies in request order.
*/
package parley
