package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vemx1/vemx1/pkg/audit"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Store(ctx context.Context, event audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type reqIDKey struct{}

func TestLogger_Log(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := audit.NewMemoryStorage()
	l := audit.NewLogger(storage,
		audit.WithClock(func() time.Time { return now }),
		audit.WithRequestIDExtractor(func(ctx context.Context) string {
			v, _ := ctx.Value(reqIDKey{}).(string)
			return v
		}),
		audit.WithIPExtractor(func(context.Context) string { return "10.0.0.1" }),
	)

	ctx := context.WithValue(context.Background(), reqIDKey{}, "req-1")
	err := l.Log(ctx, "subscription.reconcile",
		audit.WithUser("u1", "a@b.com"),
		audit.WithProvider("hotmart"),
		audit.WithMetadata("outcome", "applied"),
		audit.WithMetadata("skipped", ""),
	)
	require.NoError(t, err)

	events := storage.Events()
	require.Len(t, events, 1)
	e := events[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "subscription.reconcile", e.Action)
	assert.Equal(t, audit.ResultSuccess, e.Result)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "a@b.com", e.Email)
	assert.Equal(t, "hotmart", e.Provider)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, "10.0.0.1", e.IP)
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, map[string]any{"outcome": "applied"}, e.Metadata)
}

func TestLogger_LogError(t *testing.T) {
	t.Parallel()

	storage := audit.NewMemoryStorage()
	l := audit.NewLogger(storage)

	require.NoError(t, l.LogError(context.Background(), "subscription.reconcile", errors.New("store down")))

	events := storage.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ResultError, events[0].Result)
	assert.Equal(t, "store down", events[0].Error)
}

func TestLogger_Validation(t *testing.T) {
	t.Parallel()

	storage := &mockStorage{}
	l := audit.NewLogger(storage)

	err := l.Log(context.Background(), "")
	require.ErrorIs(t, err, audit.ErrEventValidation)
	storage.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
}

func TestLogger_StorageError(t *testing.T) {
	t.Parallel()

	storage := &mockStorage{}
	storage.On("Store", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
		return e.Action == "subscription.manual_cancel"
	})).Return(audit.ErrStoreFailed).Once()

	l := audit.NewLogger(storage)
	err := l.Log(context.Background(), "subscription.manual_cancel")
	require.ErrorIs(t, err, audit.ErrStoreFailed)
	storage.AssertExpectations(t)
}

func TestNewLogger_NilStorage(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { audit.NewLogger(nil) })
}
