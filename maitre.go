package maitre

import (
	"context"
	"log/slog"

	"github.com/maitre-bot/maitre/internal/logging"
	"github.com/maitre-bot/maitre/internal/runtime"
	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/flow"
	"github.com/maitre-bot/maitre/pkg/observability"
	"github.com/maitre-bot/maitre/pkg/ports"
	"github.com/maitre-bot/maitre/pkg/registry"
)

// Engine is the high-level entry point for the maitre library.
// It wraps the internal runtime and exposes the one operation hosts need:
// processing a single conversation turn.
type Engine struct {
	runtime   *runtime.Engine
	table     *flow.Table
	callbacks *registry.Registry
	logger    *slog.Logger

	extractor  ports.Extractor
	hooks      domain.LifecycleHooks
	metrics    *observability.Metrics
	entryState string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithExtractor plugs in the AI-assisted extraction service.
func WithExtractor(ex ports.Extractor) Option {
	return func(e *Engine) { e.extractor = ex }
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithMetrics wires Prometheus collectors into the engine's lifecycle.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithEntryState overrides the initial state for new conversations
// (default: INIT).
func WithEntryState(id string) Option {
	return func(e *Engine) { e.entryState = id }
}

// New initializes an Engine over a state table and its callback registry.
// The table is validated before the engine is returned: dangling state
// references, unreachable Next tokens, and unknown callbacks are rejected
// here rather than surfacing mid-conversation.
func New(table *flow.Table, callbacks *registry.Registry, opts ...Option) (*Engine, error) {
	eng := &Engine{
		table:     table,
		callbacks: callbacks,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if err := table.Validate(callbacks); err != nil {
		return nil, err
	}

	hooks := eng.hooks
	if eng.metrics != nil {
		hooks = observability.MergeHooks(hooks, eng.metrics.Hooks())
	}

	eng.runtime = runtime.NewEngine(
		table,
		callbacks,
		runtime.WithExtractor(eng.extractor),
		runtime.WithHooks(hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithEntryState(eng.entryState),
	)
	return eng, nil
}

// Start creates a fresh conversation at the entry state and returns it
// together with the opening prompt.
func (e *Engine) Start(ctx context.Context, convID string) (*domain.Conversation, domain.RenderedPrompt, error) {
	return e.runtime.Start(ctx, convID)
}

// ProcessTurn interprets one inbound message: it resolves the input
// against the current state (option token, AI extraction, or validator),
// runs the state's callback, and returns the updated conversation, the
// outbound prompt, and at most one action for the host to execute.
//
// A validation failure is not an error: the result carries the re-prompt
// and ValidationFailed. A returned error is a configuration bug
// (domain.ErrUnknownState, a failing callback) and should abort the turn.
func (e *Engine) ProcessTurn(ctx context.Context, conv *domain.Conversation, rawInput string) (*domain.TurnResult, error) {
	return e.runtime.ProcessTurn(ctx, conv, rawInput)
}

// RenderPrompt renders the current state's prompt for a conversation
// without advancing it, e.g. to re-send after a transport failure.
func (e *Engine) RenderPrompt(conv *domain.Conversation) (domain.RenderedPrompt, error) {
	return e.runtime.Render(conv)
}

// EntryState returns the configured initial state ID.
func (e *Engine) EntryState() string { return e.runtime.EntryState() }

// Inspect returns the full state table for visualization and tooling.
func (e *Engine) Inspect() []domain.State {
	return e.table.States()
}
