package accounts

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vemx1/vemx1/pkg/subscription"
)

// MongoStore keeps accounts in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

var _ subscription.AccountStore = (*MongoStore)(nil)

// NewMongoStore uses DefaultCollection in db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(DefaultCollection)}
}

// EnsureIndexes creates the email lookup index.
// Emails are not unique here: records created at sign-up may share one.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: fieldEmail, Value: 1}},
	})
	if err != nil {
		return errors.Join(subscription.ErrStoreFailure, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*subscription.Account, error) {
	var acc subscription.Account
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&acc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, subscription.ErrAccountNotFound
	}
	if err != nil {
		return nil, errors.Join(subscription.ErrStoreFailure, err)
	}
	return &acc, nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*subscription.Account, error) {
	cur, err := s.coll.Find(ctx, bson.M{fieldEmail: email}, options.Find().SetLimit(2))
	if err != nil {
		return nil, errors.Join(subscription.ErrStoreFailure, err)
	}

	var found []subscription.Account
	if err := cur.All(ctx, &found); err != nil {
		return nil, errors.Join(subscription.ErrStoreFailure, err)
	}

	switch len(found) {
	case 0:
		return nil, subscription.ErrAccountNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, subscription.ErrAmbiguousEmail
	}
}

func (s *MongoStore) Create(ctx context.Context, account *subscription.Account) error {
	doc := account.Clone()
	if doc.PaymentHistory == nil {
		doc.PaymentHistory = []subscription.PaymentEntry{}
	}

	_, err := s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return subscription.ErrAccountAlreadyExists
	}
	if err != nil {
		return errors.Join(subscription.ErrStoreFailure, err)
	}
	return nil
}

func (s *MongoStore) UpdateSubscription(ctx context.Context, id string, update subscription.SubscriptionUpdate) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, subscriptionUpdateDoc(update))
	if err != nil {
		return errors.Join(subscription.ErrStoreFailure, err)
	}
	if res.MatchedCount == 0 {
		return subscription.ErrAccountNotFound
	}
	return nil
}

func (s *MongoStore) AppendPayment(ctx context.Context, id string, entry subscription.PaymentEntry) (bool, error) {
	filter := bson.M{
		"_id":                       id,
		fieldPaymentHistory + ".id": bson.M{"$ne": entry.ID},
	}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$push": bson.M{fieldPaymentHistory: entry}})
	if err != nil {
		return false, errors.Join(subscription.ErrStoreFailure, err)
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}

	// Nothing matched: either the record is missing or the entry is already there.
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Join(subscription.ErrStoreFailure, err)
	}
	if n == 0 {
		return false, subscription.ErrAccountNotFound
	}
	return false, nil
}

// subscriptionUpdateDoc builds the $set/$unset document for an update.
// Nil optional timestamps are removed rather than stored as null.
func subscriptionUpdateDoc(u subscription.SubscriptionUpdate) bson.M {
	set := bson.M{
		fieldStatus:        u.Status,
		fieldLastUpdatedAt: u.LastUpdatedAt,
	}
	unset := bson.M{}

	setString := func(field, v string) {
		if v == "" {
			unset[field] = ""
			return
		}
		set[field] = v
	}
	setTime := func(field string, v *time.Time) {
		if v == nil {
			unset[field] = ""
			return
		}
		set[field] = *v
	}

	setString(fieldPlan, string(u.Plan))
	setString(fieldProvider, string(u.Provider))
	setString(fieldProviderSubID, u.ProviderSubscriptionID)
	setTime(fieldStartedAt, u.SubscriptionStartedAt)
	setTime(fieldExpiresAt, u.ExpiresAt)
	setTime(fieldCancelledAt, u.CancelledAt)

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}
