// Package billing mounts the subscription HTTP surface: provider webhooks,
// the administrative activate/cancel/status API and checkout creation.
//
// Webhook routes answer 200 for everything except failed authentication
// (401) and non-POST methods (405), so providers never retry deliveries that
// failed for internal reasons. Administrative routes surface failures as
// structured JSON errors.
//
//	r := chi.NewRouter()
//	r.Mount("/", billing.Router(billing.RouterOptions{
//		Webhooks:     billing.NewWebhookService(providers, reconciler, log),
//		Subscription: billing.NewSubscriptionService(cfg, store, reconciler, providers, log),
//		Checkout:     billing.NewCheckoutService(cfg, providers, log),
//		AdminToken:   cfg.AdminToken,
//	}))
package billing
