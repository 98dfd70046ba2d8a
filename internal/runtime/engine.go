// Package runtime implements the transition engine: the interpreter that
// drives a conversation through its state table one inbound message at a
// time.
package runtime

import (
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/maitre-bot/maitre/internal/logging"
	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/flow"
	"github.com/maitre-bot/maitre/pkg/ports"
	"github.com/maitre-bot/maitre/pkg/registry"
)

// DefaultEntryState is where brand-new conversations begin.
const DefaultEntryState = "INIT"

// DefaultValidationMessage is the re-prompt used when a state declares
// none of its own.
const DefaultValidationMessage = "Sorry, I didn't understand that. Please try again."

// Engine executes single turns against an immutable state table.
// It is stateless across invocations: given a conversation snapshot and a
// raw input it returns a new snapshot, touching neither persistence nor
// transports.
type Engine struct {
	table      *flow.Table
	callbacks  *registry.Registry
	extractor  ports.Extractor
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	entryState string
}

// Option configures the Engine.
type Option func(*Engine)

// WithExtractor plugs in the AI-assisted extraction service. Without one,
// states relying solely on extraction can never advance on free text.
func WithExtractor(ex ports.Extractor) Option {
	return func(e *Engine) { e.extractor = ex }
}

// WithHooks registers lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEntryState overrides the initial state for new conversations.
func WithEntryState(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.entryState = id
		}
	}
}

// NewEngine creates an engine over a validated table and callback registry.
func NewEngine(table *flow.Table, callbacks *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		table:      table,
		callbacks:  callbacks,
		logger:     logging.NewNop(),
		entryState: DefaultEntryState,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EntryState returns the configured initial state ID.
func (e *Engine) EntryState() string { return e.entryState }

// Table exposes the underlying state table for introspection tooling.
func (e *Engine) Table() *flow.Table { return e.table }

// newIdempotencyKey mints a ULID for an emitted action. ULIDs sort by
// emission time, which helps hosts correlate action logs with turns.
func (e *Engine) newIdempotencyKey() string {
	return ulid.Make().String()
}
