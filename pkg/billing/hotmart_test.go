package billing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vemx1/vemx1/pkg/billing"
	"github.com/vemx1/vemx1/pkg/subscription"
)

const testHottok = "s3cr3t-hottok"

func testCatalog(t *testing.T) *subscription.Catalog {
	t.Helper()
	c, err := subscription.NewCatalog(
		subscription.PlanInfo{Plan: subscription.PlanBasic, Name: "VemX1 Básico", Price: 9.90, HotmartOffer: "off-basic", PaddlePriceID: "pri_basic"},
		subscription.PlanInfo{Plan: subscription.PlanPremium, Name: "VemX1 Premium", Price: 19.90, HotmartOffer: "off-premium", PaddlePriceID: "pri_premium"},
	)
	require.NoError(t, err)
	return c
}

func newHotmart(t *testing.T, cfg billing.HotmartConfig) *billing.Hotmart {
	t.Helper()
	if cfg.Hottok == "" {
		cfg.Hottok = testHottok
	}
	if cfg.CheckoutBaseURL == "" {
		cfg.CheckoutBaseURL = "https://pay.hotmart.com"
	}
	h, err := billing.NewHotmart(cfg, testCatalog(t))
	require.NoError(t, err)
	return h
}

const hotmartApproved = `{
	"id": "evt-1",
	"event": "PURCHASE_APPROVED",
	"version": "2.0.0",
	"creation_date": 1746885600000,
	"data": {
		"product": {"name": "VemX1 Prêmium Anual"},
		"buyer": {"email": "Joao@Example.com", "name": "João"},
		"purchase": {
			"transaction": "HP123",
			"status": "APPROVED",
			"price": {"value": 19.9, "currency_value": "BRL"},
			"offer": {"code": ""},
			"origin": {"xcod": "u1"}
		},
		"subscription": {"subscriber": {"code": "SUB9"}}
	}
}`

func TestNewHotmart_RequiresHottok(t *testing.T) {
	t.Parallel()

	_, err := billing.NewHotmart(billing.HotmartConfig{}, nil)
	assert.ErrorIs(t, err, billing.ErrProviderNotConfigured)
}

func TestHotmart_VerifyWebhook(t *testing.T) {
	t.Parallel()

	h := newHotmart(t, billing.HotmartConfig{})

	tests := []struct {
		name    string
		header  string
		body    string
		wantErr bool
	}{
		{name: "header token", header: testHottok, body: hotmartApproved},
		{name: "legacy body token", body: `{"hottok":"` + testHottok + `","status":"approved","email":"a@b.com"}`},
		{name: "wrong token", header: "nope", body: hotmartApproved, wantErr: true},
		{name: "missing token", body: hotmartApproved, wantErr: true},
		{name: "wrong legacy token", body: `{"hottok":"nope"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			header := http.Header{}
			if tt.header != "" {
				header.Set(billing.HotmartHottokHeader, tt.header)
			}
			err := h.VerifyWebhook([]byte(tt.body), header)
			if tt.wantErr {
				assert.ErrorIs(t, err, billing.ErrWebhookVerificationFailed)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHotmart_ParseEvent(t *testing.T) {
	t.Parallel()

	h := newHotmart(t, billing.HotmartConfig{})

	t.Run("approved purchase", func(t *testing.T) {
		t.Parallel()

		ev, err := h.ParseEvent(context.Background(), []byte(hotmartApproved), nil)
		require.NoError(t, err)
		require.NotNil(t, ev)

		assert.Equal(t, subscription.EventPurchaseApproved, ev.Kind)
		assert.Equal(t, subscription.ProviderHotmart, ev.Provider)
		assert.Equal(t, "u1", ev.UserID)
		assert.Equal(t, "Joao@Example.com", ev.Email)
		assert.Equal(t, "HP123", ev.TransactionID)
		assert.Equal(t, "SUB9", ev.ProviderSubscriptionID)
		assert.Equal(t, "PURCHASE_APPROVED", ev.ProviderEvent)
		assert.InDelta(t, 19.9, ev.Amount, 0.001)
		assert.Equal(t, "BRL", ev.Currency)
		assert.Equal(t, subscription.PlanPremium, ev.ResolvePlan())
		assert.Equal(t, time.UnixMilli(1746885600000).UTC(), ev.OccurredAt)
	})

	t.Run("offer code wins over product name", func(t *testing.T) {
		t.Parallel()

		body := strings.Replace(hotmartApproved, `"offer": {"code": ""}`, `"offer": {"code": "off-basic"}`, 1)
		ev, err := h.ParseEvent(context.Background(), []byte(body), nil)
		require.NoError(t, err)
		assert.Equal(t, subscription.PlanBasic, ev.ResolvePlan())
	})

	t.Run("event mapping", func(t *testing.T) {
		t.Parallel()

		cases := map[string]subscription.EventKind{
			"PURCHASE_COMPLETE":         subscription.EventPurchaseApproved,
			"PURCHASE_CANCELED":         subscription.EventPurchaseCancelled,
			"SUBSCRIPTION_CANCELLATION": subscription.EventPurchaseCancelled,
			"PURCHASE_REFUNDED":         subscription.EventPurchaseRefunded,
			"PURCHASE_CHARGEBACK":       subscription.EventPurchaseChargedBack,
			"PURCHASE_PROTEST":          subscription.EventPurchaseChargedBack,
			"PURCHASE_DELAYED":          subscription.EventPaymentDelayed,
			"PURCHASE_EXPIRED":          subscription.EventPaymentDelayed,
			"PURCHASE_BILLET_PRINTED":   subscription.EventKind("PURCHASE_BILLET_PRINTED"),
		}
		for event, want := range cases {
			body := strings.Replace(hotmartApproved, "PURCHASE_APPROVED", event, 1)
			ev, err := h.ParseEvent(context.Background(), []byte(body), nil)
			require.NoError(t, err, event)
			assert.Equal(t, want, ev.Kind, event)
		}
	})

	t.Run("reversal gets its own history key", func(t *testing.T) {
		t.Parallel()

		body := strings.Replace(hotmartApproved, "PURCHASE_APPROVED", "PURCHASE_REFUNDED", 1)
		ev, err := h.ParseEvent(context.Background(), []byte(body), nil)
		require.NoError(t, err)
		assert.Equal(t, "HP123-purchaseRefunded", ev.TransactionID)
	})

	t.Run("subscription cancellation uses subscriber", func(t *testing.T) {
		t.Parallel()

		body := `{"id":"e2","event":"SUBSCRIPTION_CANCELLATION","data":{
			"subscriber":{"code":"SUB9","email":"ana@example.com","name":"Ana"},
			"product":{"name":"VemX1 Basico"}}}`
		ev, err := h.ParseEvent(context.Background(), []byte(body), nil)
		require.NoError(t, err)
		assert.Equal(t, subscription.EventPurchaseCancelled, ev.Kind)
		assert.Equal(t, "ana@example.com", ev.Email)
		assert.Equal(t, "SUB9", ev.ProviderSubscriptionID)
		assert.Empty(t, ev.TransactionID)
	})

	t.Run("legacy payload", func(t *testing.T) {
		t.Parallel()

		body := `{"hottok":"x","status":"approved","email":"a@b.com","prod_name":"VemX1 Premium","transaction":"HP1"}`
		ev, err := h.ParseEvent(context.Background(), []byte(body), nil)
		require.NoError(t, err)
		assert.Equal(t, subscription.EventPurchaseApproved, ev.Kind)
		assert.Equal(t, "a@b.com", ev.Email)
		assert.Equal(t, subscription.PlanPremium, ev.ResolvePlan())
	})

	t.Run("no buyer", func(t *testing.T) {
		t.Parallel()

		_, err := h.ParseEvent(context.Background(), []byte(`{"event":"PURCHASE_APPROVED","data":{}}`), nil)
		assert.ErrorIs(t, err, billing.ErrInvalidPayload)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()

		_, err := h.ParseEvent(context.Background(), []byte(`{`), nil)
		assert.ErrorIs(t, err, billing.ErrInvalidPayload)
	})
}

func TestHotmart_CreateCheckout(t *testing.T) {
	t.Parallel()

	h := newHotmart(t, billing.HotmartConfig{})

	link, err := h.CreateCheckout(context.Background(), billing.CheckoutRequest{
		Plan:   subscription.PlanPremium,
		UserID: "u1",
		Email:  "a@b.com",
	})
	require.NoError(t, err)

	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.Equal(t, "pay.hotmart.com", u.Host)
	assert.Equal(t, "/off-premium", u.Path)
	assert.Equal(t, "a@b.com", u.Query().Get("email"))
	assert.Equal(t, "u1", u.Query().Get("xcod"))
	assert.Equal(t, "off-premium", link.PreferenceID)

	_, err = h.CreateCheckout(context.Background(), billing.CheckoutRequest{Plan: "gold", UserID: "u1", Email: "a@b.com"})
	assert.ErrorIs(t, err, subscription.ErrInvalidPlan)
}

func TestHotmart_CancelRecurring(t *testing.T) {
	t.Parallel()

	t.Run("without api credentials", func(t *testing.T) {
		t.Parallel()

		h := newHotmart(t, billing.HotmartConfig{})
		err := h.CancelRecurring(context.Background(), "SUB9")
		assert.ErrorIs(t, err, billing.ErrProviderNotConfigured)
	})

	t.Run("missing code", func(t *testing.T) {
		t.Parallel()

		h := newHotmart(t, billing.HotmartConfig{})
		assert.ErrorIs(t, h.CancelRecurring(context.Background(), ""), billing.ErrMissingSubscriptionID)
	})

	t.Run("oauth token then cancel", func(t *testing.T) {
		t.Parallel()

		var cancelled atomic.Bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/oauth/token":
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "cid", user)
				assert.Equal(t, "csecret", pass)
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"access_token": "tok-1",
					"token_type":   "bearer",
					"expires_in":   3600,
				})
			case "/payments/api/v1/subscriptions/SUB9/cancel":
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
				cancelled.Store(true)
				w.WriteHeader(http.StatusOK)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		t.Cleanup(srv.Close)

		h := newHotmart(t, billing.HotmartConfig{
			ClientID:     "cid",
			ClientSecret: "csecret",
			TokenURL:     srv.URL + "/oauth/token",
			APIBaseURL:   srv.URL,
			Timeout:      2 * time.Second,
		})
		require.NoError(t, h.CancelRecurring(context.Background(), "SUB9"))
		assert.True(t, cancelled.Load())
	})
}
