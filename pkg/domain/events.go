package domain

import (
	"context"
	"time"
)

// EventType categorizes engine lifecycle events.
type EventType string

const (
	EventStateEnter     EventType = "state_enter"
	EventValidationFail EventType = "validation_fail"
	EventExtraction     EventType = "extraction"
	EventActionEmit     EventType = "action_emit"
)

// EventBase carries fields common to all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
}

// StateEvent marks entry into a state.
type StateEvent struct {
	EventBase
	StateID string `json:"state_id"`
	Token   Token  `json:"token,omitempty"`
}

// ValidationEvent marks a recoverable input failure.
type ValidationEvent struct {
	EventBase
	StateID string `json:"state_id"`
	Reason  string `json:"reason"`
}

// ExtractionEvent marks an AI-assisted extraction attempt.
type ExtractionEvent struct {
	EventBase
	StateID   string `json:"state_id"`
	Succeeded bool   `json:"succeeded"`
}

// ActionEvent marks an emitted side-effect request.
type ActionEvent struct {
	EventBase
	StateID string `json:"state_id"`
	Action  string `json:"action"`
}

// LifecycleHooks registers observability callbacks. Hooks run synchronously
// inside the turn; keep them fast.
type LifecycleHooks struct {
	OnStateEnter     func(context.Context, *StateEvent)
	OnValidationFail func(context.Context, *ValidationEvent)
	OnExtraction     func(context.Context, *ExtractionEvent)
	OnActionEmit     func(context.Context, *ActionEvent)
}
