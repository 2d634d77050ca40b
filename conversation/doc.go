// Package conversation keeps the ordered message history of chat sessions and
// the token estimate that goes with it.
//
// A Store owns every Conversation it creates. Callers only ever see
// snapshots: Get and List return copies, so mutating a returned value never
// changes what the store holds. Messages are immutable once appended.
//
// Every conversation starts with exactly one system message. Each Append
// recomputes the token estimate over the full history (see pkg/tokens) and
// fires a TokenWarning, without failing, when the estimate reaches 80% of the
// configured limit.
//
// The store guards its own memory with a mutex but does not serialize
// logical operations: two completions racing on one conversation may
// interleave their user and assistant messages.
//
// Example usage:
//
//	store := conversation.NewStore(
//	    conversation.WithSystemPrompt("You are terse."),
//	    conversation.WithTokenLimit(4000),
//	)
//	id := store.Create("")
//	if _, err := store.Append(id, conversation.RoleUser, "hi", nil); err != nil {
//	    return err
//	}
//	conv, _ := store.Get(id)
//	fmt.Println(conv.TokenCount)
package conversation
