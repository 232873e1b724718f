package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Logger builds audit events and hands them to a Storage.
type Logger struct {
	storage   Storage
	requestID func(context.Context) string
	ip        func(context.Context) string
	now       func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithRequestIDExtractor copies the request id from the context onto every event.
func WithRequestIDExtractor(fn func(context.Context) string) Option {
	return func(l *Logger) {
		l.requestID = fn
	}
}

// WithIPExtractor copies the client IP from the context onto every event.
func WithIPExtractor(fn func(context.Context) string) Option {
	return func(l *Logger) {
		l.ip = fn
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLogger creates an audit logger. Panics if storage is nil.
func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	l := &Logger{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log records a successful action.
func (l *Logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	event := l.newEvent(ctx, action, ResultSuccess)
	for _, opt := range opts {
		opt(&event)
	}
	return l.store(ctx, event)
}

// LogError records a failed action.
func (l *Logger) LogError(ctx context.Context, action string, err error, opts ...EventOption) error {
	event := l.newEvent(ctx, action, ResultError)
	if err != nil {
		event.Error = err.Error()
	}
	for _, opt := range opts {
		opt(&event)
	}
	return l.store(ctx, event)
}

func (l *Logger) newEvent(ctx context.Context, action string, result Result) Event {
	event := Event{
		ID:        uuid.NewString(),
		Action:    action,
		Result:    result,
		CreatedAt: l.now().UTC(),
	}
	if l.requestID != nil {
		event.RequestID = l.requestID(ctx)
	}
	if l.ip != nil {
		event.IP = l.ip(ctx)
	}
	return event
}

func (l *Logger) store(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, event)
}
