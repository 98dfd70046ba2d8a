package ports

import (
	"context"

	"github.com/maitre-bot/maitre/pkg/domain"
)

// ConversationStore defines the interface for persisting conversation
// snapshots between turns. Persistence is the host's responsibility; the
// engine itself never touches a store.
type ConversationStore interface {
	// Save persists the snapshot for a conversation ID.
	Save(ctx context.Context, conv *domain.Conversation) error

	// Load retrieves the snapshot for a conversation ID.
	// Returns domain.ErrConversationNotFound if none exists.
	Load(ctx context.Context, id string) (*domain.Conversation, error)

	// Delete removes the snapshot for a conversation ID.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all active conversations.
	List(ctx context.Context) ([]string, error)
}
