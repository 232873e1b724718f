package statemachine

import (
	"context"
	"sync"
)

// Guard evaluates whether a transition should be allowed based on runtime data.
type Guard[S, E comparable, D any] func(ctx context.Context, from S, event E, data D) bool

// Transition defines a state change triggered by an event.
type Transition[S, E comparable, D any] struct {
	From   S
	To     S
	Event  E
	Guards []Guard[S, E, D] // all must pass
}

// Table is a thread-safe transition lookup: [from][event][]Transition.
type Table[S, E comparable, D any] struct {
	mu          sync.RWMutex
	transitions map[S]map[E][]Transition[S, E, D]
}

// NewTable returns an empty transition table.
func NewTable[S, E comparable, D any]() *Table[S, E, D] {
	return &Table[S, E, D]{transitions: make(map[S]map[E][]Transition[S, E, D])}
}

// Add registers a transition. Several transitions may share the same
// from/event pair; they are evaluated in registration order.
func (t *Table[S, E, D]) Add(from, to S, event E, guards ...Guard[S, E, D]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.transitions[from]; !ok {
		t.transitions[from] = make(map[E][]Transition[S, E, D])
	}
	t.transitions[from][event] = append(t.transitions[from][event], Transition[S, E, D]{
		From:   from,
		To:     to,
		Event:  event,
		Guards: guards,
	})
}

// Next returns the state reached from `from` when `event` fires.
func (t *Table[S, E, D]) Next(ctx context.Context, from S, event E, data D) (S, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	candidates := t.transitions[from][event]
	if len(candidates) == 0 {
		var zero S
		return zero, &TransitionError{From: from, Event: event, Reason: ErrNoTransition}
	}

	for _, c := range candidates {
		if passes(ctx, c, data) {
			return c.To, nil
		}
	}

	var zero S
	return zero, &TransitionError{From: from, Event: event, Reason: ErrRejected}
}

// CanFire reports whether Next would succeed.
func (t *Table[S, E, D]) CanFire(ctx context.Context, from S, event E, data D) bool {
	_, err := t.Next(ctx, from, event, data)
	return err == nil
}

// Events lists the events that have at least one transition out of `from`.
func (t *Table[S, E, D]) Events(from S) []E {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]E, 0, len(t.transitions[from]))
	for e := range t.transitions[from] {
		out = append(out, e)
	}
	return out
}

func passes[S, E comparable, D any](ctx context.Context, t Transition[S, E, D], data D) bool {
	for _, g := range t.Guards {
		if g != nil && !g(ctx, t.From, t.Event, data) {
			return false
		}
	}
	return true
}
