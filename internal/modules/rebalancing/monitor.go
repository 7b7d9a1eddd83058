package rebalancing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokenfund/rebalancer/internal/domain"
)

// LimitBreach is the outcome of checking one asset against its concentration
// limit. ForcedSellDelta sizes the sell that brings the asset back down to
// exactly its limit value.
type LimitBreach struct {
	Violation       domain.ComplianceViolation
	ForcedSellDelta decimal.Decimal
}

// CheckLimit evaluates an asset against its compliance limit, independent of
// the deviation band. Returns nil when the limit holds. The comparison is
// strict: a value exactly at the limit is compliant.
func CheckLimit(portfolioID string, v domain.AssetValuation, observedAt time.Time) *LimitBreach {
	if !v.CurrentValue.GreaterThan(v.LimitValue) {
		return nil
	}
	return &LimitBreach{
		Violation: domain.ComplianceViolation{
			PortfolioID:  portfolioID,
			AssetRef:     v.AssetRef,
			CurrentValue: v.CurrentValue,
			LimitValue:   v.LimitValue,
			ObservedAt:   observedAt,
		},
		ForcedSellDelta: v.CurrentValue.Sub(v.LimitValue),
	}
}

// Resolve merges the band classification with an optional limit breach into
// the final action for one asset. Regulatory correction takes precedence
// over target tracking: a breach always forces a sell, and when both paths
// want to sell, the larger delta wins.
func Resolve(dev Deviation, breach *LimitBreach) (Classification, decimal.Decimal, bool) {
	if breach == nil {
		return dev.Classification, dev.Delta, false
	}

	forced := breach.ForcedSellDelta
	if dev.Classification == ClassifySell && dev.Delta.GreaterThan(forced) {
		return ClassifySell, dev.Delta, true
	}
	return ClassifySell, forced, true
}
