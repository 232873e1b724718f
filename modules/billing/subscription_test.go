package billing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vemx1/vemx1/modules/billing"
	pkgbilling "github.com/vemx1/vemx1/pkg/billing"
	"github.com/vemx1/vemx1/pkg/subscription"
)

func TestActivateThenStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/subscription/activate", map[string]any{
		"userId":    "u1",
		"plano":     "premium",
		"userEmail": "a@b.com",
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[billing.SubscriptionResponse](t, rec)
	assert.Equal(t, "u1", res.UserID)
	assert.Equal(t, subscription.StatusActive, res.Status)
	assert.Equal(t, subscription.PlanPremium, res.Plan)
	assert.Equal(t, subscription.OutcomeCreated, res.Outcome)

	rec = env.do(t, http.MethodGet, "/api/subscription/status?userId=u1", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	status := decode[billing.StatusResponse](t, rec)
	assert.Equal(t, subscription.StatusActive, status.Status)
	assert.Equal(t, subscription.PlanPremium, status.Plan)
	assert.Equal(t, "a@b.com", status.Email)
	assert.NotNil(t, status.StartedAt)
	assert.False(t, status.Expired)
	assert.True(t, status.Active)
}

func TestActivate_TrialWithDuration(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/subscription/activate", map[string]any{
		"email":       "trial@b.com",
		"modo":        "trial",
		"duracaoDias": 14,
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[billing.SubscriptionResponse](t, rec)
	assert.Equal(t, subscription.StatusTrial, res.Status)
	assert.Equal(t, subscription.PlanBasic, res.Plan)

	acc, err := env.store.FindByEmail(context.Background(), "trial@b.com")
	require.NoError(t, err)
	require.NotNil(t, acc.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), *acc.ExpiresAt, time.Minute)
}

func TestActivate_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"missing target", map[string]any{"plano": "premium"}, "userId"},
		{"unknown plan", map[string]any{"userId": "u1", "plano": "gold"}, "plano"},
		{"unknown mode", map[string]any{"userId": "u1", "modo": "forever"}, "modo"},
		{"bad email", map[string]any{"userId": "u1", "email": "nope"}, "email"},
		{"negative duration", map[string]any{"userId": "u1", "duracaoDias": -1}, "duracaoDias"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(t, http.MethodPost, "/api/subscription/activate", tt.body, adminToken)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode[struct {
				Error struct {
					Code    string              `json:"code"`
					Details map[string][]string `json:"details"`
				} `json:"error"`
			}](t, rec)
			assert.Equal(t, "validation_error", body.Error.Code)
			assert.Contains(t, body.Error.Details, tt.field)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		rec := env.do(t, http.MethodPost, "/api/subscription/activate", `{"userId":`, adminToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", errorCode(t, rec))
	})
}

func TestActivate_UnknownAccountNotCreatable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/subscription/activate", map[string]any{"userId": "ghost"}, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	_, err := env.store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, subscription.ErrAccountNotFound)
}

func TestActivate_StoreFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, failingStore{}, nil)

	rec := env.do(t, http.MethodPost, "/api/subscription/activate", map[string]any{"userId": "u1"}, adminToken)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_server_error", errorCode(t, rec))
}

func TestCancel_Twice(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	ctx := context.Background()

	rec := env.do(t, http.MethodPost, "/api/subscription/activate", map[string]any{
		"userId": "u1", "userEmail": "a@b.com",
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/subscription/cancel", map[string]any{"userId": "u1", "motivo": "pedido do cliente"}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, subscription.StatusCancelled, decode[billing.SubscriptionResponse](t, rec).Status)

	first, err := env.store.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, first.CancelledAt)
	require.Len(t, first.PaymentHistory, 2)

	rec = env.do(t, http.MethodPost, "/api/subscription/cancel", map[string]any{"email": "A@B.com"}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, subscription.StatusCancelled, decode[billing.SubscriptionResponse](t, rec).Status)

	second, err := env.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.CancelledAt, second.CancelledAt)
	assert.Equal(t, subscription.StatusCancelled, second.Status)
	assert.Len(t, second.PaymentHistory, len(first.PaymentHistory))
}

func TestCancel_UnknownAccount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodPost, "/api/subscription/cancel", map[string]any{"userId": "ghost"}, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancel_AtProvider(t *testing.T) {
	t.Parallel()

	seed := func() subscription.AccountStore {
		return subscription.NewMemoryStore(&subscription.Account{
			ID:                     "u1",
			Email:                  "a@b.com",
			Status:                 subscription.StatusActive,
			Plan:                   subscription.PlanPremium,
			Provider:               subscription.ProviderMercadoPago,
			ProviderSubscriptionID: "pre-123",
		})
	}

	t.Run("cancels then reconciles", func(t *testing.T) {
		t.Parallel()
		mp := newMockProvider(subscription.ProviderMercadoPago)
		mp.On("CancelRecurring", mock.Anything, "pre-123").Return(nil).Once()
		env := newTestEnv(t, seed(), []pkgbilling.Provider{mp})

		rec := env.do(t, http.MethodPost, "/api/subscription/cancel", map[string]any{
			"userId": "u1", "cancelarNoProvedor": true,
		}, adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, subscription.StatusCancelled, decode[billing.SubscriptionResponse](t, rec).Status)
		mp.AssertExpectations(t)
	})

	t.Run("provider rejection keeps the record", func(t *testing.T) {
		t.Parallel()
		mp := newMockProvider(subscription.ProviderMercadoPago)
		mp.On("CancelRecurring", mock.Anything, "pre-123").
			Return(&pkgbilling.APIError{Provider: "mercadopago", StatusCode: 404, Body: "not found"}).Once()
		store := seed()
		env := newTestEnv(t, store, []pkgbilling.Provider{mp})

		rec := env.do(t, http.MethodPost, "/api/subscription/cancel", map[string]any{
			"userId": "u1", "cancelarNoProvedor": true,
		}, adminToken)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		acc, err := store.Get(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, acc.Status)
		mp.AssertExpectations(t)
	})

	t.Run("provider not configured", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seed(), nil)

		rec := env.do(t, http.MethodPost, "/api/subscription/cancel", map[string]any{
			"userId": "u1", "cancelarNoProvedor": true,
		}, adminToken)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("manual grant has nothing to cancel", func(t *testing.T) {
		t.Parallel()
		mp := newMockProvider(subscription.ProviderMercadoPago)
		store := subscription.NewMemoryStore(&subscription.Account{
			ID: "u2", Email: "c@d.com", Status: subscription.StatusActive, Provider: subscription.ProviderManual,
		})
		env := newTestEnv(t, store, []pkgbilling.Provider{mp})

		rec := env.do(t, http.MethodPost, "/api/subscription/cancel", map[string]any{
			"userId": "u2", "cancelarNoProvedor": true,
		}, adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		mp.AssertNotCalled(t, "CancelRecurring", mock.Anything, mock.Anything)
	})
}

func TestStatus(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Hour)
	store := subscription.NewMemoryStore(&subscription.Account{
		ID:        "u1",
		Email:     "a@b.com",
		Status:    subscription.StatusTrial,
		Plan:      subscription.PlanBasic,
		ExpiresAt: &past,
	})
	env := newTestEnv(t, store, nil)

	t.Run("expired trial", func(t *testing.T) {
		t.Parallel()
		rec := env.do(t, http.MethodGet, "/api/subscription/status?email=a@b.com", nil, adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		status := decode[billing.StatusResponse](t, rec)
		assert.Equal(t, "u1", status.UserID)
		assert.True(t, status.Expired)
		assert.False(t, status.Active)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		rec := env.do(t, http.MethodGet, "/api/subscription/status?userId=nobody", nil, adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing query", func(t *testing.T) {
		t.Parallel()
		rec := env.do(t, http.MethodGet, "/api/subscription/status", nil, adminToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminAuth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	for name, token := range map[string]string{"missing": "", "wrong": "nope"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(t, http.MethodGet, "/api/subscription/status?userId=u1", nil, token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
		})
	}
}

func TestRequireBearer_EmptyTokenDisablesCheck(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := billing.RequireBearer("")(next)

	rec := newRecorder(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	h = billing.RequireBearer("tok")(next)
	assert.Equal(t, http.StatusNoContent, newRecorder(h, http.MethodGet, "/", "bearer tok").Code)
	assert.Equal(t, http.StatusUnauthorized, newRecorder(h, http.MethodGet, "/", "Basic tok").Code)
}

func TestErrorMapping_AmbiguousEmail(t *testing.T) {
	t.Parallel()

	store := subscription.NewMemoryStore(
		&subscription.Account{ID: "u1", Email: "dup@b.com", Status: subscription.StatusInactive},
		&subscription.Account{ID: "u2", Email: "dup@b.com", Status: subscription.StatusInactive},
	)
	env := newTestEnv(t, store, nil)

	rec := env.do(t, http.MethodGet, "/api/subscription/status?email=dup@b.com", nil, adminToken)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorCode(t, rec))
}

func newRecorder(h http.Handler, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
