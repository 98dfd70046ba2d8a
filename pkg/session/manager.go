package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/maitre-bot/maitre"
	"github.com/maitre-bot/maitre/internal/logging"
	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/ports"
)

// lockEntry holds a conversation's mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes turns per conversation. Context mutation does not
// merge concurrent writes, so while one turn (including its extractor
// call) is in flight, no other turn for the same conversation may run.
// Different conversations proceed in parallel.
//
// Locks are reference counted and garbage collected when idle. An optional
// DistributedLocker extends the single-writer discipline across replicas.
type Manager struct {
	engine *maitre.Engine
	store  ports.ConversationStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLockTTL overrides the distributed lock TTL (default 30s). The TTL
// bounds how long a crashed replica can block a conversation.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.lockTTL = ttl }
}

// WithLogger configures a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a session manager over an engine and a store.
func NewManager(engine *maitre.Engine, store ports.ConversationStore, opts ...Option) *Manager {
	m := &Manager{
		engine:  engine,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle processes one inbound message end to end: lock the conversation,
// load (or start) it, run the turn, and persist the result. The returned
// TurnResult carries the outbound prompt and any action for the caller to
// dispatch after the lock is released.
func (m *Manager) Handle(ctx context.Context, convID, rawInput string) (*domain.TurnResult, error) {
	var result *domain.TurnResult
	err := m.withLock(ctx, convID, func(ctx context.Context) error {
		conv, err := m.store.Load(ctx, convID)
		if err == domain.ErrConversationNotFound {
			// First contact: open the conversation at the entry state and
			// greet. The inbound text itself is not interpreted yet.
			newConv, prompt, startErr := m.engine.Start(ctx, convID)
			if startErr != nil {
				return startErr
			}
			if saveErr := m.store.Save(ctx, newConv); saveErr != nil {
				return fmt.Errorf("failed to initialize conversation: %w", saveErr)
			}
			result = &domain.TurnResult{Conversation: newConv, Prompt: prompt}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load conversation: %w", err)
		}

		result, err = m.engine.ProcessTurn(ctx, conv, rawInput)
		if err != nil {
			return err
		}
		if saveErr := m.store.Save(ctx, result.Conversation); saveErr != nil {
			return fmt.Errorf("failed to persist conversation: %w", saveErr)
		}
		return nil
	})
	return result, err
}

// Override forces a conversation onto a state, used when an external event
// advances a holding state (e.g. a payment webhook moving
// WAITING_FOR_PAYMENT forward). Returns the new state's rendered prompt.
func (m *Manager) Override(ctx context.Context, convID, stateID string) (*domain.TurnResult, error) {
	var result *domain.TurnResult
	err := m.withLock(ctx, convID, func(ctx context.Context) error {
		conv, err := m.store.Load(ctx, convID)
		if err != nil {
			return fmt.Errorf("failed to load conversation: %w", err)
		}

		conv.Advance(stateID)
		prompt, err := m.engine.RenderPrompt(conv)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, conv); err != nil {
			return fmt.Errorf("failed to persist conversation: %w", err)
		}
		result = &domain.TurnResult{Conversation: conv, Prompt: prompt}
		return nil
	})
	return result, err
}

// Reset deletes a conversation so the next message starts fresh.
func (m *Manager) Reset(ctx context.Context, convID string) error {
	return m.withLock(ctx, convID, func(ctx context.Context) error {
		return m.store.Delete(ctx, convID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Engine returns the wrapped engine, for introspection surfaces.
func (m *Manager) Engine() *maitre.Engine { return m.engine }

// acquire gets or creates a lock entry and increments its reference count.
func (m *Manager) acquire(convID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[convID]
	if !exists {
		entry = &lockEntry{}
		m.locks[convID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and drops idle entries.
func (m *Manager) release(convID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[convID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, convID)
	}
}

// withLock runs fn while holding the conversation's lock(s).
func (m *Manager) withLock(ctx context.Context, convID string, fn func(context.Context) error) error {
	entry := m.acquire(convID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(convID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, convID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"conversation", convID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
