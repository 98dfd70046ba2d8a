package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownState is returned when a turn references a state ID that is not
// registered in the table. This is always a configuration bug, never a
// recoverable runtime condition.
var ErrUnknownState = errors.New("unknown state")

// ErrUnknownCallback is returned when a state names a callback that is not
// registered. Detected at table validation time.
var ErrUnknownCallback = errors.New("unknown callback")

// ErrConversationNotFound is returned by stores when a conversation ID has
// no persisted snapshot.
var ErrConversationNotFound = errors.New("conversation not found")

// UnknownStateError wraps ErrUnknownState with the offending ID and, when
// known, the state that referenced it.
type UnknownStateError struct {
	ID           string
	ReferencedBy string
}

func (e *UnknownStateError) Error() string {
	if e.ReferencedBy != "" {
		return fmt.Sprintf("unknown state %q referenced by %q", e.ID, e.ReferencedBy)
	}
	return fmt.Sprintf("unknown state %q", e.ID)
}

func (e *UnknownStateError) Unwrap() error { return ErrUnknownState }
