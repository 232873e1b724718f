package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vemx1/vemx1/handler"
	"github.com/vemx1/vemx1/pkg/binder"
	"github.com/vemx1/vemx1/pkg/logger"
	"github.com/vemx1/vemx1/pkg/subscription"
	"github.com/vemx1/vemx1/pkg/validator"
)

var (
	planNames = []string{string(subscription.PlanBasic), string(subscription.PlanPremium)}
	modeNames = []string{string(subscription.ModeActive), string(subscription.ModeTrial)}
)

// AccountReader looks account records up.
type AccountReader interface {
	Get(ctx context.Context, id string) (*subscription.Account, error)
	FindByEmail(ctx context.Context, email string) (*subscription.Account, error)
}

// SubscriptionResponse reports the state left by an activation or cancellation.
type SubscriptionResponse struct {
	UserID    string                `json:"userId"`
	Email     string                `json:"email,omitempty"`
	Status    subscription.Status   `json:"statusAssinatura"`
	Plan      subscription.Plan     `json:"plano,omitempty"`
	Provider  subscription.Provider `json:"provedor,omitempty"`
	Outcome   subscription.Outcome  `json:"resultado"`
	Duplicate bool                  `json:"duplicado,omitempty"`
}

func newSubscriptionResponse(res subscription.Result) SubscriptionResponse {
	return SubscriptionResponse{
		UserID:    res.UserID,
		Email:     res.Email,
		Status:    res.Status,
		Plan:      res.Plan,
		Provider:  res.Provider,
		Outcome:   res.Outcome,
		Duplicate: res.Duplicate,
	}
}

// ActivateRequest grants a subscription by hand.
type ActivateRequest struct {
	UserID          string `json:"userId"`
	Plan            string `json:"plano"`
	Mode            string `json:"modo"`
	CreateIfMissing bool   `json:"criarUsuarioSeNaoExistir"`
	Email           string `json:"email"`
	UserEmail       string `json:"userEmail"`
	Name            string `json:"nome"`
	DurationDays    int    `json:"duracaoDias"`
	TransactionID   string `json:"transacaoId"`
}

func (r ActivateRequest) email() string {
	if r.Email != "" {
		return r.Email
	}
	return r.UserEmail
}

func (r ActivateRequest) Validate() error {
	return validator.Apply(
		validator.RequiredOneOf([]string{"userId", "email"}, r.UserID, r.email()),
		validator.ValidEmail("email", r.email()),
		validator.InList("plano", r.Plan, planNames, true),
		validator.InList("modo", r.Mode, modeNames, true),
		validator.Min("duracaoDias", r.DurationDays, 0),
		validator.Max("duracaoDias", r.DurationDays, 3650),
		validator.MaxLen("transacaoId", r.TransactionID, 128),
	)
}

// CancelRequest revokes a subscription by hand, optionally stopping the
// recurring charge at the provider first.
type CancelRequest struct {
	UserID           string `json:"userId"`
	Email            string `json:"email"`
	UserEmail        string `json:"userEmail"`
	Reason           string `json:"motivo"`
	CancelAtProvider bool   `json:"cancelarNoProvedor"`
	TransactionID    string `json:"transacaoId"`
}

func (r CancelRequest) email() string {
	if r.Email != "" {
		return r.Email
	}
	return r.UserEmail
}

func (r CancelRequest) Validate() error {
	return validator.Apply(
		validator.RequiredOneOf([]string{"userId", "email"}, r.UserID, r.email()),
		validator.ValidEmail("email", r.email()),
		validator.MaxLen("motivo", r.Reason, 500),
		validator.MaxLen("transacaoId", r.TransactionID, 128),
	)
}

// StatusRequest selects the record to report on.
type StatusRequest struct {
	UserID string `query:"userId"`
	Email  string `query:"email"`
}

func (r StatusRequest) Validate() error {
	return validator.Apply(
		validator.RequiredOneOf([]string{"userId", "email"}, r.UserID, r.Email),
		validator.ValidEmail("email", r.Email),
	)
}

// StatusResponse is the subscription view of an account record.
type StatusResponse struct {
	UserID        string                `json:"userId"`
	Email         string                `json:"email,omitempty"`
	Status        subscription.Status   `json:"statusAssinatura"`
	Plan          subscription.Plan     `json:"plano,omitempty"`
	Provider      subscription.Provider `json:"provedor,omitempty"`
	StartedAt     *time.Time            `json:"dataInicioAssinatura,omitempty"`
	LastUpdatedAt time.Time             `json:"ultimaAtualizacao"`
	ExpiresAt     *time.Time            `json:"expiraEm,omitempty"`
	CancelledAt   *time.Time            `json:"dataCancelamento,omitempty"`
	Expired       bool                  `json:"expirada"`
	Active        bool                  `json:"ativo"`
}

// SubscriptionService serves the administrative subscription API.
type SubscriptionService struct {
	accounts   AccountReader
	reconciler Reconciler
	providers  ProviderRegistry
	logger     *slog.Logger
	errors     handler.ErrorHandler
	now        func() time.Time
}

// NewSubscriptionService creates the administrative API.
func NewSubscriptionService(accounts AccountReader, reconciler Reconciler, providers ProviderRegistry, log *slog.Logger) *SubscriptionService {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("subscription_api"))
	return &SubscriptionService{
		accounts:   accounts,
		reconciler: reconciler,
		providers:  providers,
		logger:     log,
		errors:     handler.NewErrorHandler(log),
		now:        time.Now,
	}
}

// Handle mounts POST /activate, POST /cancel and GET /status.
func (s *SubscriptionService) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/activate", handler.Wrap(s.activate,
		handler.WithBinder(binder.JSON()),
		handler.WithErrorHandler(s.errors),
	))
	r.Post("/cancel", handler.Wrap(s.cancel,
		handler.WithBinder(binder.JSON()),
		handler.WithErrorHandler(s.errors),
	))
	r.Get("/status", handler.Wrap(s.status,
		handler.WithBinder(binder.Query()),
		handler.WithErrorHandler(s.errors),
	))
	return r
}

func (s *SubscriptionService) activate(ctx handler.Context, req ActivateRequest) handler.Response {
	if err := req.Validate(); err != nil {
		return failure(ctx, s.logger, "invalid activation request", err)
	}

	ev := subscription.Event{
		Kind:            subscription.EventManualActivate,
		UserID:          req.UserID,
		Email:           req.email(),
		Plan:            subscription.Plan(req.Plan),
		Mode:            subscription.Mode(req.Mode),
		CreateIfMissing: req.CreateIfMissing,
		DisplayName:     strings.TrimSpace(req.Name),
		TransactionID:   req.TransactionID,
		OccurredAt:      s.now(),
	}
	if req.DurationDays > 0 {
		exp := s.now().AddDate(0, 0, req.DurationDays)
		ev.ExpiresAt = &exp
	}

	res, err := s.reconciler.Reconcile(ctx, ev)
	if err != nil {
		return failure(ctx, s.logger, "manual activation failed", err)
	}
	if res.Outcome == subscription.OutcomeNotFound {
		return failure(ctx, s.logger, "manual activation for unknown account", subscription.ErrAccountNotFound)
	}
	return handler.JSON(newSubscriptionResponse(res))
}

func (s *SubscriptionService) cancel(ctx handler.Context, req CancelRequest) handler.Response {
	if err := req.Validate(); err != nil {
		return failure(ctx, s.logger, "invalid cancellation request", err)
	}

	if req.CancelAtProvider {
		if err := s.cancelAtProvider(ctx, req.UserID, req.email()); err != nil {
			return failure(ctx, s.logger, "provider cancellation failed", err)
		}
	}

	res, err := s.reconciler.Reconcile(ctx, subscription.Event{
		Kind:          subscription.EventManualCancel,
		UserID:        req.UserID,
		Email:         req.email(),
		Reason:        strings.TrimSpace(req.Reason),
		TransactionID: req.TransactionID,
		OccurredAt:    s.now(),
	})
	if err != nil {
		return failure(ctx, s.logger, "manual cancellation failed", err)
	}
	if res.Outcome == subscription.OutcomeNotFound {
		return failure(ctx, s.logger, "manual cancellation for unknown account", subscription.ErrAccountNotFound)
	}
	return handler.JSON(newSubscriptionResponse(res))
}

// cancelAtProvider stops recurring billing for the record's provider
// subscription. Records granted by hand have nothing to stop.
func (s *SubscriptionService) cancelAtProvider(ctx context.Context, userID, email string) error {
	acc, err := s.lookup(ctx, userID, email)
	if err != nil {
		return err
	}

	switch acc.Provider {
	case "", subscription.ProviderManual, subscription.ProviderAPI:
		s.logger.InfoContext(ctx, "no provider subscription to cancel",
			logger.UserID(acc.ID), logger.Provider(string(acc.Provider)))
		return nil
	}

	provider, err := s.providers.Get(acc.Provider)
	if err != nil {
		return err
	}
	if err := provider.CancelRecurring(ctx, acc.ProviderSubscriptionID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "provider subscription cancelled",
		logger.UserID(acc.ID), logger.Provider(string(acc.Provider)))
	return nil
}

func (s *SubscriptionService) status(ctx handler.Context, req StatusRequest) handler.Response {
	if err := req.Validate(); err != nil {
		return failure(ctx, s.logger, "invalid status request", err)
	}

	acc, err := s.lookup(ctx, req.UserID, req.Email)
	if err != nil {
		return failure(ctx, s.logger, "subscription status lookup failed", err)
	}

	expired := acc.IsExpiredAt(s.now())
	return handler.JSON(StatusResponse{
		UserID:        acc.ID,
		Email:         acc.Email,
		Status:        acc.Status,
		Plan:          acc.Plan,
		Provider:      acc.Provider,
		StartedAt:     acc.SubscriptionStartedAt,
		LastUpdatedAt: acc.LastUpdatedAt,
		ExpiresAt:     acc.ExpiresAt,
		CancelledAt:   acc.CancelledAt,
		Expired:       expired,
		Active:        acc.Status.Grants() && !expired,
	})
}

// lookup resolves by id first, then by email.
func (s *SubscriptionService) lookup(ctx context.Context, userID, email string) (*subscription.Account, error) {
	userID = strings.TrimSpace(userID)
	email = strings.ToLower(strings.TrimSpace(email))
	if userID != "" {
		acc, err := s.accounts.Get(ctx, userID)
		if err == nil || !errors.Is(err, subscription.ErrAccountNotFound) || email == "" {
			return acc, err
		}
	}
	return s.accounts.FindByEmail(ctx, email)
}
