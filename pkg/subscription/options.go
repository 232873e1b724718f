package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/vemx1/vemx1/pkg/audit"
)

// Auditor records reconciliation attempts. *audit.Logger satisfies it.
type Auditor interface {
	Log(ctx context.Context, action string, opts ...audit.EventOption) error
	LogError(ctx context.Context, action string, err error, opts ...audit.EventOption) error
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithAuditor enables the audit trail.
func WithAuditor(a Auditor) ReconcilerOption {
	return func(r *Reconciler) {
		r.auditor = a
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTrialDays sets the default length of trial grants.
func WithTrialDays(days int) ReconcilerOption {
	return func(r *Reconciler) {
		if days > 0 {
			r.trialDays = days
		}
	}
}

// WithIDGenerator overrides how manual transaction ids are generated.
func WithIDGenerator(gen func() string) ReconcilerOption {
	return func(r *Reconciler) {
		if gen != nil {
			r.newID = gen
		}
	}
}
