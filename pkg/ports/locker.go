package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates conversation access across replicas.
// Context mutation is single-writer per conversation; when more than one
// process can receive webhooks for the same number, the session manager
// uses a locker to enforce that discipline.
type DistributedLocker interface {
	// Lock acquires a lock for the given key (the conversation ID).
	// It blocks until acquired or the context is canceled.
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
