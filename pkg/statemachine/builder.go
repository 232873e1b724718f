package statemachine

import "fmt"

// Builder provides a fluent API for building transition tables.
// The first error encountered is reported by Build.
type Builder[S, E comparable, D any] struct {
	table *Table[S, E, D]
	err   error

	from   []S
	event  *E
	to     *S
	guards []Guard[S, E, D]
}

// NewBuilder creates a new table builder.
func NewBuilder[S, E comparable, D any]() *Builder[S, E, D] {
	return &Builder[S, E, D]{table: NewTable[S, E, D]()}
}

// From sets the source states of the next transition.
func (b *Builder[S, E, D]) From(states ...S) *Builder[S, E, D] {
	b.reset()
	b.from = states
	return b
}

// When sets the event that triggers the transition.
func (b *Builder[S, E, D]) When(event E) *Builder[S, E, D] {
	b.event = &event
	return b
}

// To sets the target state.
func (b *Builder[S, E, D]) To(state S) *Builder[S, E, D] {
	b.to = &state
	return b
}

// WithGuard adds a guard to the transition.
func (b *Builder[S, E, D]) WithGuard(guard Guard[S, E, D]) *Builder[S, E, D] {
	b.guards = append(b.guards, guard)
	return b
}

// Add finalizes the current transition, once per source state.
func (b *Builder[S, E, D]) Add() *Builder[S, E, D] {
	if b.err != nil {
		return b
	}
	if len(b.from) == 0 || b.event == nil || b.to == nil {
		b.err = fmt.Errorf("%w: from=%v event=%v", ErrIncompleteTransition, b.from, b.event)
		return b
	}
	for _, from := range b.from {
		b.table.Add(from, *b.to, *b.event, b.guards...)
	}
	b.reset()
	return b
}

// Build returns the constructed table.
func (b *Builder[S, E, D]) Build() (*Table[S, E, D], error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.table, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder[S, E, D]) MustBuild() *Table[S, E, D] {
	t, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build transition table: %v", err))
	}
	return t
}

func (b *Builder[S, E, D]) reset() {
	b.from = nil
	b.event = nil
	b.to = nil
	b.guards = nil
}
