package billing_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vemx1/vemx1/handler"
	"github.com/vemx1/vemx1/modules/billing"
	pkgbilling "github.com/vemx1/vemx1/pkg/billing"
	"github.com/vemx1/vemx1/pkg/ratelimiter"
	"github.com/vemx1/vemx1/pkg/subscription"
)

const adminToken = "s3cret"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockProvider struct {
	mock.Mock
	name subscription.Provider
}

func newMockProvider(name subscription.Provider) *mockProvider {
	return &mockProvider{name: name}
}

func (m *mockProvider) Name() subscription.Provider { return m.name }

func (m *mockProvider) VerifyWebhook(payload []byte, header http.Header) error {
	return m.Called(payload, header).Error(0)
}

func (m *mockProvider) ParseEvent(ctx context.Context, payload []byte, header http.Header) (*subscription.Event, error) {
	args := m.Called(ctx, payload, header)
	ev, _ := args.Get(0).(*subscription.Event)
	return ev, args.Error(1)
}

func (m *mockProvider) CreateCheckout(ctx context.Context, req pkgbilling.CheckoutRequest) (*pkgbilling.CheckoutLink, error) {
	args := m.Called(ctx, req)
	link, _ := args.Get(0).(*pkgbilling.CheckoutLink)
	return link, args.Error(1)
}

func (m *mockProvider) CancelRecurring(ctx context.Context, subscriptionID string) error {
	return m.Called(ctx, subscriptionID).Error(0)
}

type testEnv struct {
	handler http.Handler
	store   subscription.AccountStore
}

type envOption func(*billing.RouterOptions)

func withLimiter(b *ratelimiter.Bucket) envOption {
	return func(o *billing.RouterOptions) { o.Limiter = b }
}

func newTestEnv(t *testing.T, store subscription.AccountStore, providers []pkgbilling.Provider, opts ...envOption) *testEnv {
	t.Helper()
	if store == nil {
		store = subscription.NewMemoryStore()
	}
	reconciler := subscription.NewReconciler(store, subscription.WithLogger(discard))
	registry := pkgbilling.NewRegistry(subscription.ProviderMercadoPago, providers...)
	cfg := billing.Config{AdminToken: adminToken, MaxWebhookBodyBytes: 1 << 20}

	ro := billing.RouterOptions{
		Webhooks:     billing.NewWebhookService(cfg, registry, reconciler, discard),
		Subscription: billing.NewSubscriptionService(store, reconciler, registry, discard),
		Checkout:     billing.NewCheckoutService(cfg, registry, discard),
		AdminToken:   cfg.AdminToken,
		Logger:       discard,
	}
	for _, opt := range opts {
		opt(&ro)
	}
	return &testEnv{handler: billing.Router(ro), store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[handler.ErrorBody](t, rec)
	require.NotNil(t, body.Error)
	return body.Error.Code
}

// failingStore fails every operation like an unreachable database.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (*subscription.Account, error) {
	return nil, subscription.ErrStoreFailure
}

func (failingStore) FindByEmail(context.Context, string) (*subscription.Account, error) {
	return nil, subscription.ErrStoreFailure
}

func (failingStore) Create(context.Context, *subscription.Account) error {
	return subscription.ErrStoreFailure
}

func (failingStore) UpdateSubscription(context.Context, string, subscription.SubscriptionUpdate) error {
	return subscription.ErrStoreFailure
}

func (failingStore) AppendPayment(context.Context, string, subscription.PaymentEntry) (bool, error) {
	return false, subscription.ErrStoreFailure
}
