package domain

// RenderedPrompt is an outbound message after placeholder substitution.
// For structured templates the options are carried through so transports
// can render native buttons or degrade to numbered lists.
type RenderedPrompt struct {
	Kind    string   `json:"kind"`
	Body    string   `json:"body"`
	Options []Option `json:"options,omitempty"`
}

// ActionRequest is a side effect the host must perform after a transition.
// The engine emits it exactly once and never retries; the idempotency key
// lets hosts de-duplicate redelivered turns.
type ActionRequest struct {
	// Name is the action token declared by the entered state,
	// e.g. "CREATE_RESTAURANT".
	Name string `json:"name"`

	// IdempotencyKey is unique per emission.
	IdempotencyKey string `json:"idempotency_key"`

	// Snapshot is the post-callback context at emission time, carrying
	// everything the host needs to perform the side effect.
	Snapshot map[string]any `json:"snapshot"`
}

// TurnResult is the outcome of processing one inbound message.
type TurnResult struct {
	// Conversation is the updated snapshot. On a validation failure it is
	// identical to the input snapshot.
	Conversation *Conversation `json:"conversation"`

	// Prompt is the outbound message for the state the conversation is now
	// in, rendered with the post-callback context.
	Prompt RenderedPrompt `json:"prompt"`

	// Action is the side effect to execute, if the entered state declares
	// one.
	Action *ActionRequest `json:"action,omitempty"`

	// Token is the resolution that drove the transition. Empty when
	// validation failed.
	Token Token `json:"token,omitempty"`

	// ValidationFailed marks a recoverable input failure: the conversation
	// did not advance and Prompt carries the re-prompt.
	ValidationFailed bool `json:"validation_failed,omitempty"`

	// Terminal reports that the conversation is now in a state with no
	// outgoing transitions.
	Terminal bool `json:"terminal,omitempty"`
}
