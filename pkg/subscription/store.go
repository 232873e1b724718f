package subscription

import "context"

// AccountStore persists account records.
// Implementations return ErrAccountNotFound when a record is absent and wrap
// any backend failure so that errors.Is(err, ErrStoreFailure) holds.
type AccountStore interface {
	// Get retrieves a record by id.
	Get(ctx context.Context, id string) (*Account, error)

	// FindByEmail returns the single record with the given email.
	// Returns ErrAmbiguousEmail when more than one record matches.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// Create inserts a new record, history included.
	// Returns ErrAccountAlreadyExists if the id is taken. Emails are not
	// checked: two ids may share one, which FindByEmail then reports.
	Create(ctx context.Context, account *Account) error

	// UpdateSubscription overwrites the subscription fields of a record.
	UpdateSubscription(ctx context.Context, id string, update SubscriptionUpdate) error

	// AppendPayment atomically appends an entry unless one with the same id is
	// already present. It reports whether the entry was appended.
	AppendPayment(ctx context.Context, id string, entry PaymentEntry) (bool, error)
}
