package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceDecimals is the fixed-point scale every quote is normalized to.
const PriceDecimals = 18

// BpsDenominator is the basis-point denominator (10000 bps = 100%).
const BpsDenominator = 10000

// Portfolio is a tracked set of assets with target allocations.
// Owned by the registry; everything else refers to it by ID.
type Portfolio struct {
	ID             string       `json:"id"`
	CustodyAccount string       `json:"custody_account"`
	ThresholdBps   int64        `json:"threshold_bps"`
	Assets         []AssetEntry `json:"assets"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// AllocationSum returns the sum of target allocations across all assets.
func (p *Portfolio) AllocationSum() int64 {
	var sum int64
	for _, a := range p.Assets {
		sum += a.TargetBps
	}
	return sum
}

// Asset looks up an entry by asset reference.
func (p *Portfolio) Asset(assetRef string) (AssetEntry, bool) {
	for _, a := range p.Assets {
		if a.AssetRef == assetRef {
			return a, true
		}
	}
	return AssetEntry{}, false
}

// AssetEntry is one tracked asset inside a portfolio. Target and compliance
// limit are expressed in basis points of total portfolio value. Entries are
// never physically deleted; zeroing both bps values retires an asset while
// keeping its historical compliance events addressable.
type AssetEntry struct {
	AssetRef    string    `json:"asset_ref"`
	TargetBps   int64     `json:"target_bps"`
	LimitBps    int64     `json:"limit_bps"`
	PriceSource string    `json:"price_source"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriceQuote is a normalized price observation for one asset. Quotes are
// call-scoped: fetched fresh for every rebalance, never persisted.
type PriceQuote struct {
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observed_at"`
	SourceID   string          `json:"source_id"`
}

// FeedQuote is the raw observation a price feed returns: an integer price in
// the source's native scale plus the exponent needed to normalize it.
type FeedQuote struct {
	Price      decimal.Decimal
	Decimals   int32
	ObservedAt time.Time
}

// AssetValuation holds the per-asset figures computed during one valuation
// pass. All values share the portfolio's unit of account.
type AssetValuation struct {
	AssetRef     string          `json:"asset_ref"`
	Balance      decimal.Decimal `json:"balance"`
	Price        decimal.Decimal `json:"price"`
	CurrentValue decimal.Decimal `json:"current_value"`
	TargetValue  decimal.Decimal `json:"target_value"`
	LimitValue   decimal.Decimal `json:"limit_value"`
}

// ValuationResult is the outcome of valuing a whole portfolio. Ephemeral:
// computed, consumed and discarded within a single rebalance invocation.
type ValuationResult struct {
	PortfolioID string           `json:"portfolio_id"`
	TotalValue  decimal.Decimal  `json:"total_value"`
	Assets      []AssetValuation `json:"assets"`
	ObservedAt  time.Time        `json:"observed_at"`
}

// Direction of a corrective transfer.
type Direction string

const (
	DirectionSell Direction = "SELL"
	DirectionBuy  Direction = "BUY"
)

// RebalanceAction is a proposed correction for one asset. DeltaValue is in
// the unit of account, DeltaTokens in asset units.
type RebalanceAction struct {
	AssetRef    string          `json:"asset_ref"`
	Direction   Direction       `json:"direction"`
	DeltaValue  decimal.Decimal `json:"delta_value"`
	DeltaTokens decimal.Decimal `json:"delta_tokens"`
	Forced      bool            `json:"forced"`
}

// ComplianceViolation records a concentration-limit breach. It is a record,
// not a mutation: it never blocks corrections for other assets.
type ComplianceViolation struct {
	PortfolioID  string          `json:"portfolio_id"`
	AssetRef     string          `json:"asset_ref"`
	CurrentValue decimal.Decimal `json:"current_value"`
	LimitValue   decimal.Decimal `json:"limit_value"`
	ObservedAt   time.Time       `json:"observed_at"`
}

// BpsFraction converts basis points to an exact decimal fraction.
// 500 bps -> 0.05. The conversion is a pure exponent shift, never float math.
func BpsFraction(bps int64) decimal.Decimal {
	return decimal.New(bps, -4)
}
