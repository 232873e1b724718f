package billing

import "errors"

var (
	ErrWebhookVerificationFailed = errors.New("webhook verification failed")
	ErrProviderNotConfigured     = errors.New("billing provider not configured")
	ErrWebhookSecretMissing      = errors.New("webhook secret is required")
	ErrInvalidPayload            = errors.New("invalid webhook payload")
	ErrPlanNotSold               = errors.New("plan is not sold by this provider")
	ErrMissingSubscriptionID     = errors.New("provider subscription id is required")
	ErrCheckoutFailed            = errors.New("failed to create checkout")
	ErrCancelFailed              = errors.New("failed to cancel recurring subscription")
	ErrProviderUnavailable       = errors.New("billing provider unavailable")
	ErrUpstreamRejected          = errors.New("billing provider rejected the request")
)
