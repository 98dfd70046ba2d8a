package ports

import (
	"context"

	"github.com/maitre-bot/maitre/pkg/domain"
)

// ActionDispatcher executes the side effects the engine emits.
// The engine is fire-and-forget: it emits each action exactly once with an
// idempotency key, and never retries. Retry and failure reconciliation
// belong to the dispatcher.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, req *domain.ActionRequest) error
}

// DispatcherFunc adapts a function to the ActionDispatcher interface.
type DispatcherFunc func(ctx context.Context, req *domain.ActionRequest) error

// Dispatch implements ActionDispatcher.
func (f DispatcherFunc) Dispatch(ctx context.Context, req *domain.ActionRequest) error {
	return f(ctx, req)
}
