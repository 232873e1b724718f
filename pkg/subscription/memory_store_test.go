package subscription_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vemx1/vemx1/pkg/subscription"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := subscription.NewMemoryStore(existing("u1", "a@b.com", subscription.StatusActive))

	acc, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	acc.Status = subscription.StatusCancelled
	acc2, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, acc2.Status, "returned records are copies")

	_, err = store.Get(ctx, "nope")
	require.ErrorIs(t, err, subscription.ErrAccountNotFound)

	require.ErrorIs(t, store.Create(ctx, existing("u1", "x@y.com", "")), subscription.ErrAccountAlreadyExists)
	require.ErrorIs(t, store.UpdateSubscription(ctx, "nope", subscription.SubscriptionUpdate{}), subscription.ErrAccountNotFound)

	ok, err := store.AppendPayment(ctx, "u1", subscription.PaymentEntry{ID: "p1"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.AppendPayment(ctx, "u1", subscription.PaymentEntry{ID: "p1"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.AppendPayment(ctx, "nope", subscription.PaymentEntry{ID: "p1"})
	require.ErrorIs(t, err, subscription.ErrAccountNotFound)
}

func TestMemoryStore_EmailRule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := subscription.NewMemoryStore(existing("u1", "a@b.com", subscription.StatusActive))

	// Only ids are unique; a second record with the same email is accepted.
	require.NoError(t, store.Create(ctx, existing("u2", "a@b.com", subscription.StatusInactive)))
	_, err := store.FindByEmail(ctx, "a@b.com")
	require.ErrorIs(t, err, subscription.ErrAmbiguousEmail)

	// Email-only creations share the derived id and cannot duplicate.
	id := subscription.AccountIDFromEmail("C@b.com ")
	assert.Equal(t, id, subscription.AccountIDFromEmail("c@b.com"))
	require.NoError(t, store.Create(ctx, existing(id, "c@b.com", subscription.StatusActive)))
	require.ErrorIs(t, store.Create(ctx, existing(id, "c@b.com", subscription.StatusActive)), subscription.ErrAccountAlreadyExists)

	acc, err := store.FindByEmail(ctx, "c@b.com")
	require.NoError(t, err)
	assert.Equal(t, id, acc.ID)
}

func TestMemoryStore_ConcurrentAppend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := subscription.NewMemoryStore(existing("u1", "a@b.com", subscription.StatusActive))

	var wg sync.WaitGroup
	var mu sync.Mutex
	appended := 0
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := store.AppendPayment(ctx, "u1", subscription.PaymentEntry{ID: fmt.Sprintf("p%d", i%5)})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				appended++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, appended)
	acc, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, acc.PaymentHistory, 5)
}
