// Package registry resolves the callback names declared by state
// definitions to executable functions. Keeping callbacks behind stable
// names lets a state table be pure data: loadable from files, diffable,
// and validated without executing anything.
package registry

import (
	"fmt"
	"sync"

	"github.com/maitre-bot/maitre/pkg/domain"
)

// CallbackFunc mutates the conversation context with a validated value.
// The value is keyed by the field name(s) of the schema that produced it;
// for option-token turns it holds the token under "token".
// Callbacks may overwrite or explicitly delete context keys, but must not
// perform I/O: side effects belong to action tokens.
type CallbackFunc func(convCtx map[string]any, value map[string]any) error

// Registry maps callback names to implementations.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string]CallbackFunc
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{callbacks: make(map[string]CallbackFunc)}
}

// Register adds a callback under name. An existing entry is overwritten.
func (r *Registry) Register(name string, fn CallbackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[name] = fn
}

// Has reports whether a callback name is registered. Table validation uses
// it to reject states referencing unknown callbacks at load time.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.callbacks[name]
	return ok
}

// Apply looks up a callback by name and invokes it.
func (r *Registry) Apply(name string, convCtx map[string]any, value map[string]any) error {
	r.mu.RLock()
	fn, ok := r.callbacks[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCallback, name)
	}
	return fn(convCtx, value)
}
