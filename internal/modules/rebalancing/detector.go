// Package rebalancing holds the corrective pipeline: deviation detection,
// compliance-limit monitoring, per-portfolio execution and batched
// multi-portfolio coordination.
package rebalancing

import (
	"github.com/shopspring/decimal"

	"github.com/tokenfund/rebalancer/internal/domain"
)

// Classification of one asset against its target band.
type Classification string

const (
	ClassifySell     Classification = "SELL"
	ClassifyBuy      Classification = "BUY"
	ClassifyNoAction Classification = "NO_ACTION"
)

// Deviation is the outcome of classifying one asset.
type Deviation struct {
	AssetRef       string
	Classification Classification
	// Delta is the absolute value distance back to target. Zero for NoAction.
	Delta decimal.Decimal
}

// Classify compares an asset's current value to its target with a tolerance
// band of thresholdBps around the target. Comparators are strict: a value
// sitting exactly on the band boundary is NoAction, so price noise at the
// edge cannot cause continual micro-corrections.
func Classify(v domain.AssetValuation, thresholdBps int64) Deviation {
	band := v.TargetValue.Mul(domain.BpsFraction(thresholdBps))
	upper := v.TargetValue.Add(band)
	lower := v.TargetValue.Sub(band)

	switch {
	case v.CurrentValue.GreaterThan(upper):
		return Deviation{
			AssetRef:       v.AssetRef,
			Classification: ClassifySell,
			Delta:          v.CurrentValue.Sub(v.TargetValue),
		}
	case v.CurrentValue.LessThan(lower):
		return Deviation{
			AssetRef:       v.AssetRef,
			Classification: ClassifyBuy,
			Delta:          v.TargetValue.Sub(v.CurrentValue),
		}
	default:
		return Deviation{
			AssetRef:       v.AssetRef,
			Classification: ClassifyNoAction,
			Delta:          decimal.Zero,
		}
	}
}
