package subscription

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the persisted per-user record holding profile and subscription fields.
// One record per user, keyed by ID.
type Account struct {
	ID                     string         `json:"userId" bson:"_id" firestore:"-"`
	Email                  string         `json:"email" bson:"email" firestore:"email"`
	DisplayName            string         `json:"nome,omitempty" bson:"nome,omitempty" firestore:"nome,omitempty"`
	Status                 Status         `json:"statusAssinatura" bson:"statusAssinatura" firestore:"statusAssinatura"`
	Plan                   Plan           `json:"plano,omitempty" bson:"plano,omitempty" firestore:"plano,omitempty"`
	Provider               Provider       `json:"provedor,omitempty" bson:"provedor,omitempty" firestore:"provedor,omitempty"`
	ProviderSubscriptionID string         `json:"assinaturaProvedorId,omitempty" bson:"assinaturaProvedorId,omitempty" firestore:"assinaturaProvedorId,omitempty"`
	SubscriptionStartedAt  *time.Time     `json:"dataInicioAssinatura,omitempty" bson:"dataInicioAssinatura,omitempty" firestore:"dataInicioAssinatura,omitempty"`
	LastUpdatedAt          time.Time      `json:"ultimaAtualizacao" bson:"ultimaAtualizacao" firestore:"ultimaAtualizacao"`
	ExpiresAt              *time.Time     `json:"expiraEm,omitempty" bson:"expiraEm,omitempty" firestore:"expiraEm,omitempty"`
	CancelledAt            *time.Time     `json:"dataCancelamento,omitempty" bson:"dataCancelamento,omitempty" firestore:"dataCancelamento,omitempty"`
	CreatedAt              time.Time      `json:"criadoEm" bson:"criadoEm" firestore:"criadoEm"`
	PaymentHistory         []PaymentEntry `json:"historicoPagamentos" bson:"historicoPagamentos" firestore:"historicoPagamentos"`
}

// PaymentEntry is one element of the append-only payment history.
type PaymentEntry struct {
	ID        string    `json:"id" bson:"id" firestore:"id"`
	Status    Status    `json:"status" bson:"status" firestore:"status"`
	Platform  Provider  `json:"plataforma" bson:"plataforma" firestore:"plataforma"`
	Plan      Plan      `json:"plano,omitempty" bson:"plano,omitempty" firestore:"plano,omitempty"`
	Amount    float64   `json:"valor" bson:"valor" firestore:"valor"`
	Currency  string    `json:"moeda,omitempty" bson:"moeda,omitempty" firestore:"moeda,omitempty"`
	Timestamp time.Time `json:"data" bson:"data" firestore:"data"`
}

// SubscriptionUpdate carries the subscription fields written by a reconciliation.
// Profile fields and payment history are never part of an update.
type SubscriptionUpdate struct {
	Status                 Status
	Plan                   Plan
	Provider               Provider
	ProviderSubscriptionID string
	SubscriptionStartedAt  *time.Time
	LastUpdatedAt          time.Time
	ExpiresAt              *time.Time
	CancelledAt            *time.Time
}

// HasPayment reports whether the history already contains the transaction id.
func (a *Account) HasPayment(id string) bool {
	return slices.ContainsFunc(a.PaymentHistory, func(p PaymentEntry) bool {
		return p.ID == id
	})
}

// IsExpiredAt reports whether a time-boxed grant has lapsed at the given time.
func (a *Account) IsExpiredAt(now time.Time) bool {
	return a.ExpiresAt != nil && !now.Before(*a.ExpiresAt)
}

// Apply copies the update onto the in-memory record.
func (a *Account) Apply(u SubscriptionUpdate) {
	a.Status = u.Status
	a.Plan = u.Plan
	a.Provider = u.Provider
	a.ProviderSubscriptionID = u.ProviderSubscriptionID
	a.SubscriptionStartedAt = u.SubscriptionStartedAt
	a.LastUpdatedAt = u.LastUpdatedAt
	a.ExpiresAt = u.ExpiresAt
	a.CancelledAt = u.CancelledAt
}

// Snapshot returns the subscription fields of the record as an update.
func (a *Account) Snapshot() SubscriptionUpdate {
	return SubscriptionUpdate{
		Status:                 a.Status,
		Plan:                   a.Plan,
		Provider:               a.Provider,
		ProviderSubscriptionID: a.ProviderSubscriptionID,
		SubscriptionStartedAt:  a.SubscriptionStartedAt,
		LastUpdatedAt:          a.LastUpdatedAt,
		ExpiresAt:              a.ExpiresAt,
		CancelledAt:            a.CancelledAt,
	}
}

// Clone returns a deep copy so stores never hand out shared slices.
func (a *Account) Clone() *Account {
	c := *a
	c.PaymentHistory = slices.Clone(a.PaymentHistory)
	c.SubscriptionStartedAt = clonePtr(a.SubscriptionStartedAt)
	c.ExpiresAt = clonePtr(a.ExpiresAt)
	c.CancelledAt = clonePtr(a.CancelledAt)
	return &c
}

// DisplayNameFromEmail derives a display name from the local part of an email.
func DisplayNameFromEmail(email string) string {
	local, _, found := strings.Cut(strings.TrimSpace(email), "@")
	if !found {
		return ""
	}
	return local
}

// AccountIDFromEmail returns the id given to records created from an email
// alone. The same normalized email always maps to the same id.
func AccountIDFromEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
}

func clonePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
