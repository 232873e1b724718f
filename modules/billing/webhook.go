package billing

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vemx1/vemx1/handler"
	pkgbilling "github.com/vemx1/vemx1/pkg/billing"
	"github.com/vemx1/vemx1/pkg/logger"
	"github.com/vemx1/vemx1/pkg/subscription"
)

// Webhook delivery states reported in the response body.
const (
	WebhookProcessed = "processed"
	WebhookIgnored   = "ignored"
	WebhookFailed    = "error"
)

// Reconciler applies normalized subscription events.
type Reconciler interface {
	Reconcile(ctx context.Context, ev subscription.Event) (subscription.Result, error)
}

// ProviderRegistry resolves configured payment providers.
type ProviderRegistry interface {
	Get(name subscription.Provider) (pkgbilling.Provider, error)
	Checkout(name subscription.Provider) (pkgbilling.Provider, error)
}

// WebhookResponse is the body of every non-error webhook answer.
type WebhookResponse struct {
	Status  string               `json:"status"`
	Outcome subscription.Outcome `json:"resultado,omitempty"`
}

// WebhookService receives provider callbacks.
type WebhookService struct {
	providers  ProviderRegistry
	reconciler Reconciler
	maxBody    int64
	logger     *slog.Logger
}

// NewWebhookService creates the webhook receiver.
func NewWebhookService(cfg Config, providers ProviderRegistry, reconciler Reconciler, log *slog.Logger) *WebhookService {
	if log == nil {
		log = slog.Default()
	}
	maxBody := cfg.MaxWebhookBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &WebhookService{
		providers:  providers,
		reconciler: reconciler,
		maxBody:    maxBody,
		logger:     log.With(logger.Component("webhook")),
	}
}

// Handle mounts POST /{provider}.
func (s *WebhookService) Handle() http.Handler {
	r := chi.NewRouter()
	r.HandleFunc("/{provider}", s.receive)
	return r
}

func (s *WebhookService) receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := subscription.Provider(chi.URLParam(r, "provider"))

	provider, err := s.providers.Get(name)
	if err != nil {
		s.render(w, r, handler.JSONError(handler.ErrNotFound))
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.render(w, r, handler.JSONError(handler.ErrMethodNotAllowed))
		return
	}

	log := s.logger.With(logger.Provider(string(name)))

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		log.WarnContext(ctx, "failed to read webhook body", logger.Error(err))
		s.render(w, r, handler.JSON(WebhookResponse{Status: WebhookIgnored}))
		return
	}

	if err := provider.VerifyWebhook(payload, r.Header); err != nil {
		log.WarnContext(ctx, "webhook verification failed", logger.Error(err))
		s.render(w, r, handler.JSONError(handler.ErrUnauthorized.WithMessage(pkgbilling.ErrWebhookVerificationFailed.Error())))
		return
	}

	ev, err := provider.ParseEvent(ctx, payload, r.Header)
	switch {
	case err != nil:
		log.ErrorContext(ctx, "failed to parse webhook", logger.Error(err))
		s.render(w, r, handler.JSON(WebhookResponse{Status: WebhookFailed}))
		return
	case ev == nil:
		log.DebugContext(ctx, "webhook carries nothing to reconcile")
		s.render(w, r, handler.JSON(WebhookResponse{Status: WebhookIgnored}))
		return
	}

	res, err := s.reconciler.Reconcile(ctx, *ev)
	if err != nil {
		// Reconciliation failures are acknowledged with 200 and left to the logs.
		log.ErrorContext(ctx, "webhook reconciliation failed",
			logger.EventKind(string(ev.Kind)),
			logger.TransactionID(ev.TransactionID),
			logger.Error(err),
		)
		s.render(w, r, handler.JSON(WebhookResponse{Status: WebhookFailed}))
		return
	}

	status := WebhookProcessed
	if res.Outcome == subscription.OutcomeIgnored || res.Outcome == subscription.OutcomeNotFound {
		status = WebhookIgnored
	}
	s.render(w, r, handler.JSON(WebhookResponse{Status: status, Outcome: res.Outcome}))
}

func (s *WebhookService) render(w http.ResponseWriter, r *http.Request, resp handler.Response) {
	if err := resp.Render(w, r); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render webhook response", logger.Error(err))
	}
}
