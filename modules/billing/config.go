package billing

// Config holds settings for the HTTP surface.
type Config struct {
	// AdminToken protects /api routes with a bearer token. Empty disables the check.
	AdminToken string `env:"ADMIN_API_TOKEN"`

	MaxWebhookBodyBytes int64 `env:"WEBHOOK_MAX_BODY_BYTES" envDefault:"1048576" validate:"min=1024"`

	// CheckoutProvider is used when a checkout request does not name one.
	CheckoutProvider string `env:"CHECKOUT_PROVIDER" envDefault:"mercadopago" validate:"oneof=mercadopago hotmart paddle"`

	// CheckoutSuccessURL is where providers send users after paying.
	CheckoutSuccessURL string `env:"CHECKOUT_SUCCESS_URL" validate:"omitempty,url"`
}
