package billing

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vemx1/vemx1/handler"
	pkgbilling "github.com/vemx1/vemx1/pkg/billing"
	"github.com/vemx1/vemx1/pkg/binder"
	"github.com/vemx1/vemx1/pkg/logger"
	"github.com/vemx1/vemx1/pkg/subscription"
	"github.com/vemx1/vemx1/pkg/validator"
)

var providerNames = []string{
	string(subscription.ProviderMercadoPago),
	string(subscription.ProviderHotmart),
	string(subscription.ProviderPaddle),
}

// CheckoutRequest asks for a hosted payment link.
type CheckoutRequest struct {
	Plan      string `json:"plano"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	Provider  string `json:"provedor"`
}

func (r CheckoutRequest) Validate() error {
	return validator.Apply(
		validator.Required("plano", r.Plan),
		validator.InList("plano", r.Plan, planNames, true),
		validator.Required("userId", r.UserID),
		validator.Required("userEmail", r.UserEmail),
		validator.ValidEmail("userEmail", r.UserEmail),
		validator.InList("provedor", r.Provider, providerNames, true),
	)
}

// CheckoutResponse carries the link the user is redirected to.
type CheckoutResponse struct {
	CheckoutURL  string                `json:"checkoutUrl"`
	PreferenceID string                `json:"preferenceId,omitempty"`
	Provider     subscription.Provider `json:"provedor"`
	ExpiresAt    *time.Time            `json:"expiraEm,omitempty"`
}

// CheckoutService creates provider checkouts.
type CheckoutService struct {
	providers  ProviderRegistry
	successURL string
	logger     *slog.Logger
	errors     handler.ErrorHandler
}

// NewCheckoutService creates the checkout endpoint.
func NewCheckoutService(cfg Config, providers ProviderRegistry, log *slog.Logger) *CheckoutService {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("checkout_api"))
	return &CheckoutService{
		providers:  providers,
		successURL: cfg.CheckoutSuccessURL,
		logger:     log,
		errors:     handler.NewErrorHandler(log),
	}
}

// Handle mounts POST /.
func (s *CheckoutService) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/", handler.Wrap(s.create,
		handler.WithBinder(binder.JSON()),
		handler.WithErrorHandler(s.errors),
	))
	return r
}

func (s *CheckoutService) create(ctx handler.Context, req CheckoutRequest) handler.Response {
	if err := req.Validate(); err != nil {
		return failure(ctx, s.logger, "invalid checkout request", err)
	}

	provider, err := s.providers.Checkout(subscription.Provider(req.Provider))
	if err != nil {
		return failure(ctx, s.logger, "checkout provider unavailable", err)
	}

	link, err := provider.CreateCheckout(ctx, pkgbilling.CheckoutRequest{
		Plan:       subscription.Plan(req.Plan),
		UserID:     req.UserID,
		Email:      req.UserEmail,
		SuccessURL: s.successURL,
	})
	if err != nil {
		return failure(ctx, s.logger, "checkout creation failed", err)
	}

	s.logger.InfoContext(ctx, "checkout created",
		logger.UserID(req.UserID),
		logger.Provider(string(provider.Name())),
		slog.String("plan", req.Plan),
	)

	resp := CheckoutResponse{
		CheckoutURL:  link.URL,
		PreferenceID: link.PreferenceID,
		Provider:     provider.Name(),
	}
	if !link.ExpiresAt.IsZero() {
		resp.ExpiresAt = &link.ExpiresAt
	}
	return handler.JSON(resp)
}
