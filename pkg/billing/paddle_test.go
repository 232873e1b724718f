package billing_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vemx1/vemx1/pkg/billing"
	"github.com/vemx1/vemx1/pkg/subscription"
)

func newPaddle(t *testing.T) *billing.Paddle {
	t.Helper()
	p, err := billing.NewPaddle(billing.PaddleConfig{
		APIKey:        "pdl_sdbx_apikey_test",
		WebhookSecret: "pdl_ntfset_secret",
		Environment:   "sandbox",
	}, testCatalog(t))
	require.NoError(t, err)
	return p
}

const paddleTransactionCompleted = `{
	"event_id": "evt_01",
	"event_type": "transaction.completed",
	"occurred_at": "2026-05-10T15:00:00Z",
	"data": {
		"id": "txn_01",
		"status": "completed",
		"subscription_id": "sub_01",
		"currency_code": "USD",
		"custom_data": {"user_id": "u1", "email": "a@b.com"},
		"items": [{"price_id": "pri_premium"}],
		"details": {"totals": {"total": "1990"}}
	}
}`

func TestNewPaddle(t *testing.T) {
	t.Parallel()

	_, err := billing.NewPaddle(billing.PaddleConfig{WebhookSecret: "x"}, nil)
	assert.ErrorIs(t, err, billing.ErrProviderNotConfigured)

	_, err = billing.NewPaddle(billing.PaddleConfig{APIKey: "x"}, nil)
	assert.ErrorIs(t, err, billing.ErrProviderNotConfigured)

	_, err = billing.NewPaddle(billing.PaddleConfig{APIKey: "x", WebhookSecret: "y", Environment: "staging"}, nil)
	assert.Error(t, err)
}

func TestPaddle_VerifyWebhook_Rejects(t *testing.T) {
	t.Parallel()

	p := newPaddle(t)

	err := p.VerifyWebhook([]byte(paddleTransactionCompleted), http.Header{})
	assert.ErrorIs(t, err, billing.ErrWebhookVerificationFailed)

	header := http.Header{}
	header.Set(billing.PaddleSignatureHeader, "ts=1746885600;h1=deadbeef")
	err = p.VerifyWebhook([]byte(paddleTransactionCompleted), header)
	assert.ErrorIs(t, err, billing.ErrWebhookVerificationFailed)
}

func TestPaddle_ParseEvent(t *testing.T) {
	t.Parallel()

	p := newPaddle(t)
	ctx := context.Background()

	t.Run("transaction completed", func(t *testing.T) {
		t.Parallel()

		ev, err := p.ParseEvent(ctx, []byte(paddleTransactionCompleted), nil)
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, subscription.EventPurchaseApproved, ev.Kind)
		assert.Equal(t, subscription.ProviderPaddle, ev.Provider)
		assert.Equal(t, "u1", ev.UserID)
		assert.Equal(t, "a@b.com", ev.Email)
		assert.Equal(t, subscription.PlanPremium, ev.Plan)
		assert.Equal(t, "txn_01", ev.TransactionID)
		assert.Equal(t, "sub_01", ev.ProviderSubscriptionID)
		assert.InDelta(t, 19.90, ev.Amount, 0.001)
		assert.Equal(t, time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC), ev.OccurredAt)
	})

	t.Run("subscription canceled", func(t *testing.T) {
		t.Parallel()

		body := `{"event_id":"evt_02","event_type":"subscription.canceled","occurred_at":"2026-05-11T10:00:00Z",
			"data":{"id":"sub_01","status":"canceled","custom_data":{"user_id":"u1"},
			"items":[{"price":{"id":"pri_basic"}}]}}`
		ev, err := p.ParseEvent(ctx, []byte(body), nil)
		require.NoError(t, err)
		assert.Equal(t, subscription.EventPurchaseCancelled, ev.Kind)
		assert.Equal(t, "sub_01", ev.ProviderSubscriptionID)
		assert.Equal(t, "evt_02-purchaseCancelled", ev.TransactionID)
		assert.Equal(t, subscription.PlanBasic, ev.Plan)
	})

	t.Run("event mapping", func(t *testing.T) {
		t.Parallel()

		cases := map[string]subscription.EventKind{
			"subscription.created":       subscription.EventPurchaseApproved,
			"subscription.activated":     subscription.EventPurchaseApproved,
			"subscription.past_due":      subscription.EventPaymentDelayed,
			"transaction.payment_failed": subscription.EventPaymentDelayed,
			"subscription.updated":       subscription.EventKind("subscription.updated"),
		}
		for eventType, want := range cases {
			body := strings.Replace(paddleTransactionCompleted, "transaction.completed", eventType, 1)
			ev, err := p.ParseEvent(ctx, []byte(body), nil)
			require.NoError(t, err, eventType)
			assert.Equal(t, want, ev.Kind, eventType)
		}
	})

	t.Run("no custom data", func(t *testing.T) {
		t.Parallel()

		ev, err := p.ParseEvent(ctx, []byte(`{"event_type":"transaction.completed","data":{"id":"txn_9"}}`), nil)
		require.NoError(t, err)
		assert.Nil(t, ev)
	})

	t.Run("missing event type", func(t *testing.T) {
		t.Parallel()

		_, err := p.ParseEvent(ctx, []byte(`{"data":{}}`), nil)
		assert.ErrorIs(t, err, billing.ErrInvalidPayload)
	})
}

func TestPaddle_CreateCheckout_PlanWithoutPrice(t *testing.T) {
	t.Parallel()

	p, err := billing.NewPaddle(billing.PaddleConfig{APIKey: "k", WebhookSecret: "s"}, subscription.DefaultCatalog())
	require.NoError(t, err)

	_, err = p.CreateCheckout(context.Background(), billing.CheckoutRequest{Plan: subscription.PlanBasic, UserID: "u1", Email: "a@b.com"})
	assert.ErrorIs(t, err, billing.ErrPlanNotSold)
}
