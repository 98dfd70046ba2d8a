package domain

import "time"

// Conversation is the per-participant snapshot the engine operates on.
// The engine itself is stateless: it receives a conversation, returns an
// updated copy, and leaves persistence to the host.
type Conversation struct {
	// ID identifies the conversation, typically the participant's
	// WhatsApp number.
	ID string `json:"id"`

	// Current is the ID of the active state.
	Current string `json:"current"`

	// Context holds the key/value data accumulated by state callbacks.
	// Keys are appended or overwritten, never implicitly deleted.
	Context map[string]any `json:"context"`

	// History tracks the path taken, for debugging and introspection.
	History []string `json:"history"`

	// UpdatedAt is set by the store on save.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation creates a fresh conversation positioned at entryState
// with an empty context.
func NewConversation(id, entryState string) *Conversation {
	return &Conversation{
		ID:      id,
		Current: entryState,
		Context: make(map[string]any),
		History: []string{entryState},
	}
}

// Clone returns a copy with a deep-copied context so a turn can mutate
// freely without touching the caller's snapshot.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	next := *c
	next.Context = make(map[string]any, len(c.Context))
	for k, v := range c.Context {
		next.Context[k] = v
	}
	next.History = append([]string(nil), c.History...)
	return &next
}

// Advance moves the conversation to stateID and records it in History.
func (c *Conversation) Advance(stateID string) {
	c.Current = stateID
	c.History = append(c.History, stateID)
}
