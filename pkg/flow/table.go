// Package flow holds the state table: the immutable registry of state
// definitions a conversation engine runs against. Tables are built once at
// process start, validated, and never mutated at runtime.
package flow

import (
	"fmt"

	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/registry"
)

// Table is an immutable set of state definitions keyed by ID.
type Table struct {
	states map[string]*domain.State
	order  []string
}

// New builds a table from state definitions. Duplicate IDs are rejected.
// Call Validate before handing the table to an engine.
func New(states ...domain.State) (*Table, error) {
	t := &Table{states: make(map[string]*domain.State, len(states))}
	for i := range states {
		s := states[i]
		if s.ID == "" {
			return nil, fmt.Errorf("state at index %d has empty id", i)
		}
		if _, dup := t.states[s.ID]; dup {
			return nil, fmt.Errorf("duplicate state id %q", s.ID)
		}
		t.states[s.ID] = &s
		t.order = append(t.order, s.ID)
	}
	return t, nil
}

// Lookup returns the definition for a state ID. A miss wraps
// domain.ErrUnknownState: it is a configuration bug, not a user error.
func (t *Table) Lookup(id string) (*domain.State, error) {
	s, ok := t.states[id]
	if !ok {
		return nil, &domain.UnknownStateError{ID: id}
	}
	return s, nil
}

// Has reports whether a state ID is registered.
func (t *Table) Has(id string) bool {
	_, ok := t.states[id]
	return ok
}

// States returns all definitions in registration order, for introspection
// and visualization tooling.
func (t *Table) States() []domain.State {
	out := make([]domain.State, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.states[id])
	}
	return out
}

// Len returns the number of registered states.
func (t *Table) Len() int { return len(t.states) }

// Validate performs the closed-world checks that make runtime token
// dispatch safe:
//
//   - every Next target references a registered state,
//   - every Next key is a token the state can actually produce, derived
//     from its own template and validation declarations,
//   - exactly one of Prompt or Template is set,
//   - a state with transitions declares at least one input path (options,
//     validator, or extraction) that could resolve them,
//   - every named callback resolves in reg (skipped when reg is nil).
//
// A table that passes cannot produce an UnknownStateError at runtime, and
// a mismatched token cannot become a silent dead transition.
func (t *Table) Validate(reg *registry.Registry) error {
	for _, id := range t.order {
		s := t.states[id]

		if s.Prompt == "" && s.Template == nil {
			return fmt.Errorf("state %q: neither prompt nor template set", id)
		}
		if s.Prompt != "" && s.Template != nil {
			return fmt.Errorf("state %q: both prompt and template set", id)
		}

		accepted := make(map[domain.Token]bool)
		for _, tok := range s.AcceptedTokens() {
			accepted[tok] = true
		}

		for token, target := range s.Next {
			if !t.Has(target) {
				return &domain.UnknownStateError{ID: target, ReferencedBy: id}
			}
			if !accepted[token] {
				return fmt.Errorf("state %q: next entry for token %q is unreachable (accepted: %v)",
					id, token, s.AcceptedTokens())
			}
		}

		if len(s.Next) > 0 && len(accepted) == 0 {
			return fmt.Errorf("state %q: has transitions but no options, validator, or extraction; no input could advance it", id)
		}

		if s.Callback != "" && reg != nil && !reg.Has(s.Callback) {
			return fmt.Errorf("state %q: %w: %s", id, domain.ErrUnknownCallback, s.Callback)
		}
	}
	return nil
}
