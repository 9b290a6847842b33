// Package ledger holds the capacity accounting functions shared by the
// campaign lifecycle, the rollup job, and reporting.
//
// Everything here is a pure function over a snapshot: no store access,
// no clock access, no mutation. Negative results (over-consumption) are
// reported as-is; clamping them would destroy the alert signal the
// commercial layer depends on.
package ledger

import id "tangible/pkg/domain"

// DefaultNearCapacityThreshold is the utilization ratio above which a
// campaign is flagged as near capacity. Overridable via policy config.
const DefaultNearCapacityThreshold = 0.8

// Utilization returns current/target, or 0 when target is 0 so callers
// never divide by zero. The ratio is not capped; values above 1.0 mean
// over-capacity and are meaningful.
func Utilization(current, target int) float64 {
	if target == 0 {
		return 0
	}
	return float64(current) / float64(target)
}

// IsNearCapacity reports threshold <= ratio < 1.0.
func IsNearCapacity(ratio, threshold float64) bool {
	return ratio >= threshold && ratio < 1.0
}

// IsOverCapacity reports ratio >= 1.0.
func IsOverCapacity(ratio float64) bool {
	return ratio >= 1.0
}

// RemainingCredits returns allocation - consumed, or nil when the
// pricing model carries no credit allocation. A negative remainder is
// returned untouched: it signals over-consumption that must surface as
// an alert, not be silently clamped to zero.
func RemainingCredits(allocation *float64, consumed float64) *float64 {
	if allocation == nil {
		return nil
	}
	remaining := *allocation - consumed
	return &remaining
}

// BudgetRemaining returns allocated - spent. Callers must enforce
// spent <= allocated at construction time; this function does not clamp.
func BudgetRemaining(allocated, spent float64) float64 {
	return allocated - spent
}

// ConsumptionPercentage returns consumed/commitment for pricing models
// that declare a unit commitment (seats, credits, iaas). For bundle and
// custom models it returns nil: "not applicable" is distinct from zero
// and callers must treat it that way. A zero commitment on a commitment
// model also yields nil rather than a division by zero.
func ConsumptionPercentage(model id.PricingModel, consumed, commitment float64) *float64 {
	if !model.HasCommitment() {
		return nil
	}
	if commitment == 0 {
		return nil
	}
	pct := consumed / commitment
	return &pct
}
