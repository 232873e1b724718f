package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vemx1/vemx1/pkg/audit"
	"github.com/vemx1/vemx1/pkg/logger"
)

// Audit actions written by the reconciler.
const (
	ActionReconcile      = "subscription.reconcile"
	ActionManualActivate = "subscription.manual_activate"
	ActionManualCancel   = "subscription.manual_cancel"
)

// Result reports what Reconcile did to the target record.
type Result struct {
	UserID    string
	Email     string
	Status    Status
	Plan      Plan
	Provider  Provider
	Outcome   Outcome
	Duplicate bool // history entry already present, append skipped
}

// Reconciler turns normalized events into subscription state.
// It is safe for concurrent use.
type Reconciler struct {
	store       AccountStore
	transitions *Transitions
	auditor     Auditor
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	trialDays   int
}

// NewReconciler creates a reconciler on top of store.
func NewReconciler(store AccountStore, opts ...ReconcilerOption) *Reconciler {
	if store == nil {
		panic("subscription: account store cannot be nil")
	}
	r := &Reconciler{
		store:       store,
		transitions: NewTransitions(),
		logger:      slog.Default(),
		now:         time.Now,
		newID:       uuid.NewString,
		trialDays:   7,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile validates the event, resolves its target record and applies the
// status transition plus a payment history entry.
//
// Unknown users on events that cannot create a record yield OutcomeNotFound
// with a nil error. Unknown event kinds yield OutcomeIgnored.
func (r *Reconciler) Reconcile(ctx context.Context, ev Event) (Result, error) {
	if err := ev.Validate(); err != nil {
		r.audit(ctx, &ev, Result{}, err)
		return Result{}, err
	}

	log := r.logger.With(
		logger.Provider(string(ev.Provider)),
		logger.EventKind(string(ev.Kind)),
		logger.ProviderEvent(ev.ProviderEvent),
		logger.TransactionID(ev.TransactionID),
	)

	if !ev.Kind.Known() {
		res := Result{UserID: ev.UserID, Email: ev.Email, Provider: ev.Provider, Outcome: OutcomeIgnored}
		log.InfoContext(ctx, "ignoring unsupported subscription event", logger.UserID(ev.UserID))
		r.audit(ctx, &ev, res, nil)
		return res, nil
	}

	acc, err := r.resolve(ctx, &ev)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		if !ev.Creates() {
			res := Result{UserID: ev.UserID, Email: ev.Email, Provider: ev.Provider, Outcome: OutcomeNotFound}
			log.WarnContext(ctx, "subscription event for unknown account",
				logger.UserID(ev.UserID), logger.Email(ev.Email))
			r.audit(ctx, &ev, res, nil)
			return res, nil
		}
		res, err := r.create(ctx, &ev)
		if errors.Is(err, ErrAccountAlreadyExists) {
			// Lost a creation race with a concurrent delivery; apply onto the winner.
			acc, err = r.resolve(ctx, &ev)
			if err == nil {
				res, err = r.apply(ctx, log, acc, &ev)
			}
		}
		if err != nil {
			log.ErrorContext(ctx, "failed to reconcile subscription", logger.Error(err))
		}
		r.audit(ctx, &ev, res, err)
		return res, err
	case err != nil:
		log.ErrorContext(ctx, "failed to resolve account", logger.UserID(ev.UserID), logger.Email(ev.Email), logger.Error(err))
		r.audit(ctx, &ev, Result{}, err)
		return Result{}, err
	}

	res, err := r.apply(ctx, log, acc, &ev)
	if err != nil {
		log.ErrorContext(ctx, "failed to reconcile subscription", logger.UserID(acc.ID), logger.Error(err))
	}
	r.audit(ctx, &ev, res, err)
	return res, err
}

// resolve looks the record up by id, falling back to a unique email match.
func (r *Reconciler) resolve(ctx context.Context, ev *Event) (*Account, error) {
	if ev.UserID != "" {
		acc, err := r.store.Get(ctx, ev.UserID)
		if err == nil || !errors.Is(err, ErrAccountNotFound) || ev.Email == "" {
			return acc, err
		}
	}
	return r.store.FindByEmail(ctx, ev.Email)
}

func (r *Reconciler) create(ctx context.Context, ev *Event) (Result, error) {
	now := r.now().UTC()

	id := ev.UserID
	if id == "" {
		// Concurrent deliveries for the same buyer must collide on the id.
		id = AccountIDFromEmail(ev.Email)
	}
	name := DisplayNameFromEmail(ev.Email)
	if ev.Kind.Manual() && ev.DisplayName != "" {
		name = ev.DisplayName
	}

	acc := &Account{
		ID:          id,
		Email:       ev.Email,
		DisplayName: name,
		Status:      StatusInactive,
		CreatedAt:   now,
	}
	update, err := r.next(ctx, acc, ev, now)
	if err != nil {
		return Result{}, err
	}
	acc.Apply(update)
	if entry, ok := r.paymentEntry(ev, update, now); ok {
		acc.PaymentHistory = []PaymentEntry{entry}
	}

	if err := r.store.Create(ctx, acc); err != nil {
		return Result{}, err
	}

	r.logger.InfoContext(ctx, "account created by subscription event",
		logger.UserID(acc.ID),
		logger.EventKind(string(ev.Kind)),
		logger.Status(string(acc.Status)),
	)

	return Result{
		UserID:   acc.ID,
		Email:    acc.Email,
		Status:   acc.Status,
		Plan:     acc.Plan,
		Provider: acc.Provider,
		Outcome:  OutcomeCreated,
	}, nil
}

func (r *Reconciler) apply(ctx context.Context, log *slog.Logger, acc *Account, ev *Event) (Result, error) {
	now := r.now().UTC()

	update, err := r.next(ctx, acc, ev, now)
	if err != nil {
		return Result{}, err
	}

	if acc.Status == StatusCancelled && update.Status == StatusActive {
		log.WarnContext(ctx, "reactivating cancelled subscription", logger.UserID(acc.ID))
	}

	if err := r.store.UpdateSubscription(ctx, acc.ID, update); err != nil {
		return Result{}, err
	}

	res := Result{
		UserID:   acc.ID,
		Email:    acc.Email,
		Status:   update.Status,
		Plan:     update.Plan,
		Provider: update.Provider,
		Outcome:  OutcomeApplied,
	}

	if ev.Kind.Manual() && ev.TransactionID == "" && unchanged(acc, update) {
		res.Duplicate = true
	} else if entry, ok := r.paymentEntry(ev, update, now); ok {
		appended, err := r.store.AppendPayment(ctx, acc.ID, entry)
		if err != nil {
			return res, err
		}
		res.Duplicate = !appended
	}

	log.InfoContext(ctx, "subscription reconciled",
		logger.UserID(acc.ID),
		slog.String("from", string(acc.Status)),
		logger.Status(string(update.Status)),
		slog.Bool("duplicate", res.Duplicate),
	)
	return res, nil
}

// next computes the subscription fields after ev is applied to acc.
func (r *Reconciler) next(ctx context.Context, acc *Account, ev *Event, now time.Time) (SubscriptionUpdate, error) {
	from := acc.Status
	if !from.Valid() {
		from = StatusInactive
	}

	to, err := r.transitions.Next(ctx, from, ev.Kind, ev)
	if err != nil {
		return SubscriptionUpdate{}, errors.Join(ErrInvalidEvent, err)
	}

	u := acc.Snapshot()
	u.Status = to
	u.LastUpdatedAt = now

	switch {
	case to.Grants():
		plan := ev.ResolvePlan()
		if plan == PlanNone {
			plan = acc.Plan
		}
		if plan == PlanNone {
			plan = PlanBasic
		}
		u.Plan = plan
		u.Provider = ev.Provider
		if ev.ProviderSubscriptionID != "" {
			u.ProviderSubscriptionID = ev.ProviderSubscriptionID
		}
		if from != to || u.SubscriptionStartedAt == nil {
			u.SubscriptionStartedAt = &now
		}
		u.CancelledAt = nil
		u.ExpiresAt = nil
		switch {
		case ev.ExpiresAt != nil:
			exp := ev.ExpiresAt.UTC()
			u.ExpiresAt = &exp
		case to == StatusTrial:
			exp := now.AddDate(0, 0, r.trialDays)
			u.ExpiresAt = &exp
		}
	case to == StatusCancelled:
		if from != StatusCancelled || u.CancelledAt == nil {
			u.CancelledAt = &now
		}
	}

	return u, nil
}

// unchanged reports whether u leaves the subscription fields of acc as they are.
func unchanged(acc *Account, u SubscriptionUpdate) bool {
	return acc.Status == u.Status && acc.Plan == u.Plan && acc.Provider == u.Provider
}

// paymentEntry builds the history entry for ev. Provider events without a
// transaction id carry no key to deduplicate on and are not recorded.
func (r *Reconciler) paymentEntry(ev *Event, u SubscriptionUpdate, now time.Time) (PaymentEntry, bool) {
	id := ev.TransactionID
	if id == "" {
		if !ev.Kind.Manual() {
			return PaymentEntry{}, false
		}
		id = "manual-" + r.newID()
		ev.TransactionID = id
	}

	ts := ev.OccurredAt
	if ts.IsZero() {
		ts = now
	}
	plan := u.Plan
	if p := ev.ResolvePlan(); p != PlanNone {
		plan = p
	}

	return PaymentEntry{
		ID:        id,
		Status:    u.Status,
		Platform:  ev.Provider,
		Plan:      plan,
		Amount:    ev.Amount,
		Currency:  ev.Currency,
		Timestamp: ts.UTC(),
	}, true
}

// audit writes the attempt to the audit trail. Failures are logged and dropped.
func (r *Reconciler) audit(ctx context.Context, ev *Event, res Result, cause error) {
	if r.auditor == nil {
		return
	}

	action := ActionReconcile
	switch ev.Kind {
	case EventManualActivate:
		action = ActionManualActivate
	case EventManualCancel:
		action = ActionManualCancel
	}

	userID := res.UserID
	if userID == "" {
		userID = ev.UserID
	}
	opts := []audit.EventOption{
		audit.WithUser(userID, ev.Email),
		audit.WithProvider(string(ev.Provider)),
		audit.WithMetadata("kind", string(ev.Kind)),
		audit.WithMetadata("provider_event", ev.ProviderEvent),
		audit.WithMetadata("transaction_id", ev.TransactionID),
		audit.WithMetadata("outcome", string(res.Outcome)),
		audit.WithMetadata("status", string(res.Status)),
		audit.WithMetadata("plan", string(res.Plan)),
	}
	if res.Duplicate {
		opts = append(opts, audit.WithMetadata("duplicate", true))
	}
	if ev.Reason != "" {
		opts = append(opts, audit.WithMetadata("reason", ev.Reason))
	}

	var err error
	if cause != nil {
		err = r.auditor.LogError(ctx, action, cause, opts...)
	} else {
		err = r.auditor.Log(ctx, action, opts...)
	}
	if err != nil {
		r.logger.WarnContext(ctx, "failed to write audit entry", logger.UserID(userID), logger.Error(err))
	}
}
