package subscription

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event is a normalized inbound subscription event. Provider adapters and the
// administrative API build it; the reconciler never sees raw provider payloads.
type Event struct {
	Kind     EventKind
	Provider Provider

	// Target. UserID wins when both are set.
	UserID string
	Email  string

	// Plan is explicit when the caller knows it. Otherwise ProductName is
	// inspected to derive it.
	Plan        Plan
	ProductName string

	TransactionID          string
	ProviderSubscriptionID string
	ProviderEvent          string // original provider event name, for the audit trail
	Amount                 float64
	Currency               string
	OccurredAt             time.Time

	// Reason is a free-text operator note recorded in the audit trail.
	Reason string

	// Manual activation options.
	Mode            Mode
	CreateIfMissing bool
	DisplayName     string
	ExpiresAt       *time.Time
}

// Validate checks the fields every event must carry.
// Unknown kinds are valid; the reconciler ignores them.
func (e *Event) Validate() error {
	e.UserID = strings.TrimSpace(e.UserID)
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))

	if e.UserID == "" && e.Email == "" {
		return ErrMissingUserRef
	}
	if e.Kind == "" {
		return errors.Join(ErrInvalidEvent, errors.New("event kind is required"))
	}
	if e.Plan != PlanNone && !e.Plan.Valid() {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("unknown plan %q", e.Plan))
	}
	if e.Provider == "" {
		if !e.Kind.Manual() {
			return errors.Join(ErrInvalidEvent, errors.New("provider is required"))
		}
		e.Provider = ProviderManual
	}
	if e.Kind == EventManualActivate {
		switch e.Mode {
		case "":
			e.Mode = ModeActive
		case ModeActive, ModeTrial:
		default:
			return errors.Join(ErrInvalidMode, fmt.Errorf("unknown mode %q", e.Mode))
		}
	}
	return nil
}

// ResolvePlan returns the explicit plan or derives one from the product name.
func (e *Event) ResolvePlan() Plan {
	if e.Plan.Valid() {
		return e.Plan
	}
	if e.ProductName != "" {
		return DerivePlan(e.ProductName)
	}
	return PlanNone
}

// Creates reports whether an unknown target may be created by this event.
func (e *Event) Creates() bool {
	switch e.Kind {
	case EventPurchaseApproved:
		return e.Email != ""
	case EventManualActivate:
		return e.CreateIfMissing || e.Email != ""
	}
	return false
}
