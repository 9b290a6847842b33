package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tangible/pkg/domain"
)

// =============================================================================
// Capacity Ledger Tests
// =============================================================================
// Justification for unit tests: these pure functions back every derived
// capacity flag and consumption alert. Their edge cases (zero targets,
// negative remainders, non-applicable models) are cheap to pin here and
// expensive to reproduce through the HTTP surface.

func TestUtilization(t *testing.T) {
	t.Run("returns ratio of current to target", func(t *testing.T) {
		assert.InDelta(t, 0.9, Utilization(45, 50), 1e-9)
	})

	t.Run("returns 0 when target is 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Utilization(45, 0))
	})

	t.Run("exceeds 1.0 when over capacity", func(t *testing.T) {
		assert.InDelta(t, 1.2, Utilization(60, 50), 1e-9)
	})
}

func TestCapacityFlags(t *testing.T) {
	t.Run("near capacity is a half-open band", func(t *testing.T) {
		assert.True(t, IsNearCapacity(0.9, DefaultNearCapacityThreshold))
		assert.True(t, IsNearCapacity(0.8, DefaultNearCapacityThreshold))
		assert.False(t, IsNearCapacity(0.79, DefaultNearCapacityThreshold))
		assert.False(t, IsNearCapacity(1.0, DefaultNearCapacityThreshold), "at capacity is over, not near")
	})

	t.Run("over capacity at and above 1.0", func(t *testing.T) {
		assert.False(t, IsOverCapacity(0.9))
		assert.True(t, IsOverCapacity(1.0))
		assert.True(t, IsOverCapacity(Utilization(60, 50)))
	})
}

func TestRemainingCredits(t *testing.T) {
	t.Run("nil allocation yields nil", func(t *testing.T) {
		assert.Nil(t, RemainingCredits(nil, 100))
	})

	t.Run("reports remainder", func(t *testing.T) {
		allocation := 500.0
		remaining := RemainingCredits(&allocation, 120)
		require.NotNil(t, remaining)
		assert.InDelta(t, 380.0, *remaining, 1e-9)
	})

	t.Run("negative remainder is preserved, not clamped", func(t *testing.T) {
		allocation := 100.0
		remaining := RemainingCredits(&allocation, 130)
		require.NotNil(t, remaining)
		assert.InDelta(t, -30.0, *remaining, 1e-9)
	})
}

func TestBudgetRemaining(t *testing.T) {
	assert.InDelta(t, 2500.0, BudgetRemaining(10000, 7500), 1e-9)
}

func TestConsumptionPercentage(t *testing.T) {
	t.Run("defined for commitment models", func(t *testing.T) {
		pct := ConsumptionPercentage(id.PricingModelSeats, 30, 40)
		require.NotNil(t, pct)
		assert.InDelta(t, 0.75, *pct, 1e-9)

		pct = ConsumptionPercentage(id.PricingModelIAAS, 200, 100)
		require.NotNil(t, pct)
		assert.InDelta(t, 2.0, *pct, 1e-9, "over-consumption is reported, not capped")
	})

	t.Run("nil for bundle and custom models", func(t *testing.T) {
		assert.Nil(t, ConsumptionPercentage(id.PricingModelBundle, 10, 40))
		assert.Nil(t, ConsumptionPercentage(id.PricingModelCustom, 10, 40))
	})

	t.Run("nil when commitment is zero", func(t *testing.T) {
		assert.Nil(t, ConsumptionPercentage(id.PricingModelCredits, 10, 0))
	})
}
