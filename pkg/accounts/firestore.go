package accounts

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vemx1/vemx1/pkg/subscription"
)

// FirestoreStore keeps accounts in a Firestore collection.
type FirestoreStore struct {
	client *firestore.Client
}

var _ subscription.AccountStore = (*FirestoreStore)(nil)

// NewFirestoreStore wraps an existing client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// NewFirestoreClient opens a client for projectID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Join(subscription.ErrStoreFailure, err)
	}
	return client, nil
}

// FirestoreHealthcheck returns a readiness probe that reads at most one document.
func FirestoreHealthcheck(client *firestore.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := client.Collection(DefaultCollection).Limit(1).Documents(ctx).Next()
		if err != nil && !errors.Is(err, iterator.Done) {
			return errors.Join(subscription.ErrStoreFailure, err)
		}
		return nil
	}
}

func (s *FirestoreStore) collection() *firestore.CollectionRef {
	return s.client.Collection(DefaultCollection)
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*subscription.Account, error) {
	snap, err := s.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, subscription.ErrAccountNotFound
		}
		return nil, errors.Join(subscription.ErrStoreFailure, err)
	}
	return decodeAccount(snap)
}

func (s *FirestoreStore) FindByEmail(ctx context.Context, email string) (*subscription.Account, error) {
	snaps, err := s.collection().Where(fieldEmail, "==", email).Limit(2).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Join(subscription.ErrStoreFailure, err)
	}

	switch len(snaps) {
	case 0:
		return nil, subscription.ErrAccountNotFound
	case 1:
		return decodeAccount(snaps[0])
	default:
		return nil, subscription.ErrAmbiguousEmail
	}
}

func (s *FirestoreStore) Create(ctx context.Context, account *subscription.Account) error {
	doc := account.Clone()
	if doc.PaymentHistory == nil {
		doc.PaymentHistory = []subscription.PaymentEntry{}
	}

	_, err := s.collection().Doc(account.ID).Create(ctx, doc)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return subscription.ErrAccountAlreadyExists
		}
		return errors.Join(subscription.ErrStoreFailure, err)
	}
	return nil
}

func (s *FirestoreStore) UpdateSubscription(ctx context.Context, id string, update subscription.SubscriptionUpdate) error {
	_, err := s.collection().Doc(id).Update(ctx, subscriptionUpdates(update))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return subscription.ErrAccountNotFound
		}
		return errors.Join(subscription.ErrStoreFailure, err)
	}
	return nil
}

func (s *FirestoreStore) AppendPayment(ctx context.Context, id string, entry subscription.PaymentEntry) (bool, error) {
	ref := s.collection().Doc(id)
	appended := false

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		appended = false

		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return subscription.ErrAccountNotFound
			}
			return err
		}

		acc, err := decodeAccount(snap)
		if err != nil {
			return err
		}
		if acc.HasPayment(entry.ID) {
			return nil
		}

		appended = true
		return tx.Update(ref, []firestore.Update{
			{Path: fieldPaymentHistory, Value: firestore.ArrayUnion(entry)},
		})
	})
	switch {
	case errors.Is(err, subscription.ErrAccountNotFound):
		return false, err
	case err != nil:
		return false, errors.Join(subscription.ErrStoreFailure, err)
	}
	return appended, nil
}

func decodeAccount(snap *firestore.DocumentSnapshot) (*subscription.Account, error) {
	var acc subscription.Account
	if err := snap.DataTo(&acc); err != nil {
		return nil, errors.Join(subscription.ErrStoreFailure, err)
	}
	acc.ID = snap.Ref.ID
	return &acc, nil
}

// subscriptionUpdates converts an update to Firestore field updates.
// Empty optional fields are deleted so documents match what Create writes.
func subscriptionUpdates(u subscription.SubscriptionUpdate) []firestore.Update {
	optString := func(v string) any {
		if v == "" {
			return firestore.Delete
		}
		return v
	}
	optTime := func(v *time.Time) any {
		if v == nil {
			return firestore.Delete
		}
		return *v
	}

	return []firestore.Update{
		{Path: fieldStatus, Value: string(u.Status)},
		{Path: fieldLastUpdatedAt, Value: u.LastUpdatedAt},
		{Path: fieldPlan, Value: optString(string(u.Plan))},
		{Path: fieldProvider, Value: optString(string(u.Provider))},
		{Path: fieldProviderSubID, Value: optString(u.ProviderSubscriptionID)},
		{Path: fieldStartedAt, Value: optTime(u.SubscriptionStartedAt)},
		{Path: fieldExpiresAt, Value: optTime(u.ExpiresAt)},
		{Path: fieldCancelledAt, Value: optTime(u.CancelledAt)},
	}
}
