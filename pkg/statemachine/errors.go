package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrIncompleteTransition = errors.New("transition requires from, to and event")
	ErrNoTransition         = errors.New("no transition defined")
	ErrRejected             = errors.New("rejected by guards")
)

// TransitionError reports why Next could not move from a state. Reason is
// ErrNoTransition or ErrRejected and is matched by errors.Is.
type TransitionError struct {
	From   any
	Event  any
	Reason error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v on %v: %v", e.From, e.Event, e.Reason)
}

func (e *TransitionError) Unwrap() error { return e.Reason }
