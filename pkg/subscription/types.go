package subscription

// Status represents the subscription state stored on an account record.
// Values are persisted as-is, so they keep the application's original vocabulary.
type Status string

const (
	StatusInactive  Status = "inativa"
	StatusActive    Status = "ativa"
	StatusTrial     Status = "trial"
	StatusPastDue   Status = "inadimplente"
	StatusCancelled Status = "cancelada"
)

// Statuses lists every known status.
var Statuses = []Status{StatusInactive, StatusActive, StatusTrial, StatusPastDue, StatusCancelled}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusTrial, StatusPastDue, StatusCancelled:
		return true
	}
	return false
}

// Grants reports whether the status gives access to paid features.
func (s Status) Grants() bool {
	return s == StatusActive || s == StatusTrial
}

// Plan is a subscription tier.
type Plan string

const (
	PlanNone    Plan = ""
	PlanBasic   Plan = "basico"
	PlanPremium Plan = "premium"
)

// Valid reports whether p is a known, non-empty plan.
func (p Plan) Valid() bool {
	return p == PlanBasic || p == PlanPremium
}

// Provider records which integration last mutated an account.
type Provider string

const (
	ProviderManual      Provider = "manual"
	ProviderHotmart     Provider = "hotmart"
	ProviderMercadoPago Provider = "mercadopago"
	ProviderPaddle      Provider = "paddle"
	ProviderAPI         Provider = "api"
)

// EventKind is the normalized kind of an inbound subscription event.
type EventKind string

const (
	EventPurchaseApproved    EventKind = "purchaseApproved"
	EventPurchaseCancelled   EventKind = "purchaseCancelled"
	EventPurchaseRefunded    EventKind = "purchaseRefunded"
	EventPurchaseChargedBack EventKind = "purchaseChargedBack"
	EventPaymentDelayed      EventKind = "paymentDelayed"
	EventManualActivate      EventKind = "manualActivate"
	EventManualCancel        EventKind = "manualCancel"
)

// Known reports whether the reconciler has a transition for k.
func (k EventKind) Known() bool {
	switch k {
	case EventPurchaseApproved, EventPurchaseCancelled, EventPurchaseRefunded,
		EventPurchaseChargedBack, EventPaymentDelayed, EventManualActivate, EventManualCancel:
		return true
	}
	return false
}

// Manual reports whether k originates from an operator rather than a provider.
func (k EventKind) Manual() bool {
	return k == EventManualActivate || k == EventManualCancel
}

// Mode selects the status granted by a manual activation.
type Mode string

const (
	ModeActive Mode = "active"
	ModeTrial  Mode = "trial"
)

// Outcome describes what a reconciliation did.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeCreated  Outcome = "created"
	OutcomeNotFound Outcome = "not_found"
	OutcomeIgnored  Outcome = "ignored"
)
