// Package statemachine provides a generic, concurrency-safe transition table
// for finite-state machines whose current state lives outside the process,
// for example in a database record.
//
// A Table maps (from state, event) pairs to candidate transitions. Each
// transition may carry guards; the first candidate whose guards all pass
// wins, which allows branching on runtime data:
//
//	table, err := statemachine.NewBuilder[Status, Kind, *Order]().
//	    From(Draft, Rejected).When(Submit).To(InReview).Add().
//	    From(InReview).When(Decide).To(Approved).WithGuard(isApproved).Add().
//	    From(InReview).When(Decide).To(Rejected).Add().
//	    Build()
//
//	next, err := table.Next(ctx, order.Status, Decide, order)
//
// The table itself holds no current state, so one instance can be shared by
// any number of goroutines evaluating different records.
//
// # Error Handling
//
// Next returns a *TransitionError wrapping ErrNoTransition when nothing is
// defined for the pair, or ErrRejected when guards vetoed every candidate.
package statemachine
