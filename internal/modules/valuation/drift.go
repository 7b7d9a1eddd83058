package valuation

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/tokenfund/rebalancer/internal/domain"
)

// AssetDrift is one asset's weight deviation in basis points.
type AssetDrift struct {
	AssetRef  string  `json:"asset_ref"`
	TargetBps float64 `json:"target_bps"`
	ActualBps float64 `json:"actual_bps"`
	DriftBps  float64 `json:"drift_bps"`
}

// DriftSummary describes how far a portfolio's weights sit from target.
// Reporting only; classification always goes through exact decimal math.
type DriftSummary struct {
	PortfolioID  string       `json:"portfolio_id"`
	Assets       []AssetDrift `json:"assets"`
	MaxAbsBps    float64      `json:"max_abs_bps"`
	MeanAbsBps   float64      `json:"mean_abs_bps"`
	StdDevBps    float64      `json:"std_dev_bps"`
	TrackedCount int          `json:"tracked_count"`
}

// Drift computes per-asset weight drift from a valuation result.
func Drift(result domain.ValuationResult) DriftSummary {
	summary := DriftSummary{
		PortfolioID: result.PortfolioID,
		Assets:      make([]AssetDrift, 0, len(result.Assets)),
	}

	if result.TotalValue.IsZero() {
		return summary
	}

	absDrifts := make([]float64, 0, len(result.Assets))
	drifts := make([]float64, 0, len(result.Assets))
	for _, a := range result.Assets {
		actual, _ := a.CurrentValue.Div(result.TotalValue).Mul(bpsScale).Float64()
		target, _ := a.TargetValue.Div(result.TotalValue).Mul(bpsScale).Float64()
		drift := actual - target

		summary.Assets = append(summary.Assets, AssetDrift{
			AssetRef:  a.AssetRef,
			TargetBps: target,
			ActualBps: actual,
			DriftBps:  drift,
		})
		drifts = append(drifts, drift)
		absDrifts = append(absDrifts, math.Abs(drift))

		if math.Abs(drift) > summary.MaxAbsBps {
			summary.MaxAbsBps = math.Abs(drift)
		}
	}

	summary.TrackedCount = len(drifts)
	if len(drifts) > 0 {
		summary.MeanAbsBps = stat.Mean(absDrifts, nil)
	}
	if len(drifts) > 1 {
		summary.StdDevBps = stat.StdDev(drifts, nil)
	}

	return summary
}

var bpsScale = decimal.NewFromInt(domain.BpsDenominator)
