package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/vemx1/vemx1/pkg/subscription"
)

// Provider is a payment integration able to feed and act on subscriptions.
type Provider interface {
	// Name identifies the provider on account records and webhook routes.
	Name() subscription.Provider

	// VerifyWebhook authenticates a raw webhook delivery.
	// Failures wrap ErrWebhookVerificationFailed.
	VerifyWebhook(payload []byte, header http.Header) error

	// ParseEvent normalizes a verified delivery. A nil event with a nil error
	// means the delivery carries nothing to reconcile.
	ParseEvent(ctx context.Context, payload []byte, header http.Header) (*subscription.Event, error)

	// CreateCheckout returns a hosted payment link for a plan.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// CancelRecurring stops future charges for a provider subscription.
	CancelRecurring(ctx context.Context, subscriptionID string) error
}

// CheckoutRequest describes a checkout for one user and plan.
type CheckoutRequest struct {
	Plan       subscription.Plan
	UserID     string
	Email      string
	SuccessURL string
}

// Validate checks the fields every provider needs.
func (r CheckoutRequest) Validate() error {
	if !r.Plan.Valid() {
		return errors.Join(subscription.ErrInvalidPlan, fmt.Errorf("unknown plan %q", r.Plan))
	}
	if r.UserID == "" || r.Email == "" {
		return subscription.ErrMissingUserRef
	}
	return nil
}

// CheckoutLink is a hosted checkout the user is redirected to.
type CheckoutLink struct {
	URL          string
	PreferenceID string
	ExpiresAt    time.Time
}

// Registry holds the configured providers.
type Registry struct {
	providers map[subscription.Provider]Provider
	checkout  subscription.Provider
}

// NewRegistry creates a registry. checkout names the provider used when a
// checkout request does not pick one.
func NewRegistry(checkout subscription.Provider, providers ...Provider) *Registry {
	r := &Registry{
		providers: make(map[subscription.Provider]Provider, len(providers)),
		checkout:  checkout,
	}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Get returns the provider registered under name.
func (r *Registry) Get(name subscription.Provider) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, errors.Join(ErrProviderNotConfigured, fmt.Errorf("provider %q", name))
	}
	return p, nil
}

// Checkout returns the provider for a checkout request. An empty name selects
// the default checkout provider.
func (r *Registry) Checkout(name subscription.Provider) (Provider, error) {
	if name == "" {
		name = r.checkout
	}
	return r.Get(name)
}

// Names lists registered providers in a stable order.
func (r *Registry) Names() []subscription.Provider {
	out := make([]subscription.Provider, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// historyKey derives the payment history id for a provider event. Approvals
// keep the bare transaction id; reversals of the same transaction get their
// own entry.
func historyKey(tx string, kind subscription.EventKind) string {
	if tx == "" || kind == subscription.EventPurchaseApproved {
		return tx
	}
	return tx + "-" + string(kind)
}
