package subscription

import (
	"context"

	"github.com/vemx1/vemx1/pkg/statemachine"
)

// Transitions is the status table shared by every reconciliation.
// Each event kind is reachable from every status, so late or reordered
// deliveries overwrite whatever is stored.
type Transitions = statemachine.Table[Status, EventKind, *Event]

func isTrialActivation(_ context.Context, _ Status, _ EventKind, e *Event) bool {
	return e != nil && e.Mode == ModeTrial
}

// NewTransitions builds the status transition table.
func NewTransitions() *Transitions {
	return statemachine.NewBuilder[Status, EventKind, *Event]().
		From(Statuses...).When(EventPurchaseApproved).To(StatusActive).Add().
		From(Statuses...).When(EventPurchaseCancelled).To(StatusCancelled).Add().
		From(Statuses...).When(EventPurchaseRefunded).To(StatusCancelled).Add().
		From(Statuses...).When(EventPurchaseChargedBack).To(StatusCancelled).Add().
		From(Statuses...).When(EventPaymentDelayed).To(StatusPastDue).Add().
		From(Statuses...).When(EventManualActivate).To(StatusTrial).WithGuard(isTrialActivation).Add().
		From(Statuses...).When(EventManualActivate).To(StatusActive).Add().
		From(Statuses...).When(EventManualCancel).To(StatusCancelled).Add().
		MustBuild()
}
