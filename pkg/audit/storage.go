package audit

import "context"

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// BatchStorage persists many events in one round trip.
type BatchStorage interface {
	Storage
	StoreBatch(ctx context.Context, events []Event) error
}
