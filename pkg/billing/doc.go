// Package billing adapts payment providers to the subscription reconciler.
//
// Each provider verifies its own webhook authentication scheme, decodes the
// provider payload into typed structs and normalizes it into a
// subscription.Event. Outbound calls (checkout creation, recurring
// cancellation) go through a resty client guarded by a circuit breaker.
//
// Supported providers:
//
//   - Hotmart: shared-secret hottok webhooks, OAuth2 client-credentials REST API.
//   - Mercado Pago: x-signature HMAC webhooks, checkout preferences, preapprovals.
//   - Paddle: Paddle-Signature webhooks, hosted checkouts via the Paddle SDK.
//
// Usage:
//
//	hotmart, err := billing.NewHotmart(cfg.Hotmart, catalog)
//	mp, err := billing.NewMercadoPago(cfg.MercadoPago, catalog)
//	registry := billing.NewRegistry(subscription.ProviderMercadoPago, hotmart, mp)
//
//	p, err := registry.Get(subscription.ProviderHotmart)
//	if err := p.VerifyWebhook(body, r.Header); err != nil {
//		// 401
//	}
//	ev, err := p.ParseEvent(ctx, body, r.Header)
package billing
