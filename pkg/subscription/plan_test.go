package subscription_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vemx1/vemx1/pkg/subscription"
)

func TestDerivePlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want subscription.Plan
	}{
		{"Plano Premium Anual", subscription.PlanPremium},
		{"PREMIUM", subscription.PlanPremium},
		{"Assinatura Prêmium", subscription.PlanPremium},
		{"Acesso Básico", subscription.PlanBasic},
		{"Acesso Basico", subscription.PlanBasic},
		{"", subscription.PlanBasic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, subscription.DerivePlan(tt.name))
		})
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		c := subscription.DefaultCatalog()
		plans := c.Plans()
		require.Len(t, plans, 2)
		assert.Equal(t, subscription.PlanBasic, plans[0].Plan)
		assert.Equal(t, subscription.PlanPremium, plans[1].Plan)

		info, err := c.Lookup(subscription.PlanPremium)
		require.NoError(t, err)
		assert.Equal(t, "BRL", info.Currency)
		assert.InDelta(t, 19.90, info.Price, 0.001)
	})

	t.Run("load yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "plans.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
plans:
  - plan: premium
    name: VemX1 Premium
    price: 24.90
    hotmart_offer: off-prem
    paddle_price_id: pri_123
`), 0o600))

		c, err := subscription.LoadCatalog(path)
		require.NoError(t, err)

		info, err := c.Lookup(subscription.PlanPremium)
		require.NoError(t, err)
		assert.Equal(t, "off-prem", info.HotmartOffer)
		assert.Equal(t, "BRL", info.Currency)

		_, err = c.Lookup(subscription.PlanBasic)
		require.ErrorIs(t, err, subscription.ErrPlanNotInCatalog)

		plan, ok := c.PlanByPaddlePrice("pri_123")
		assert.True(t, ok)
		assert.Equal(t, subscription.PlanPremium, plan)
		_, ok = c.PlanByPaddlePrice("")
		assert.False(t, ok)
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		c, err := subscription.LoadCatalog("")
		require.NoError(t, err)
		assert.Len(t, c.Plans(), 2)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		_, err := subscription.NewCatalog()
		require.ErrorIs(t, err, subscription.ErrFailedToLoadCatalog)

		_, err = subscription.NewCatalog(subscription.PlanInfo{Plan: "gold"})
		require.ErrorIs(t, err, subscription.ErrFailedToLoadCatalog)

		_, err = subscription.LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, subscription.ErrFailedToLoadCatalog)
	})
}
