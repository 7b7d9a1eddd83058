package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ledger is the external custody ledger the engine issues corrective
// transfers against. The engine never implements transfer mechanics itself.
type Ledger interface {
	// BalanceOf returns the on-hand balance of assetRef in the given account,
	// in asset units.
	BalanceOf(ctx context.Context, account, assetRef string) (decimal.Decimal, error)

	// Transfer moves amount of assetRef between accounts. A non-nil error
	// means nothing moved.
	Transfer(ctx context.Context, from, to, assetRef string, amount decimal.Decimal) error
}

// PriceFeed produces raw quotes in the source's native decimal convention.
// Normalization and staleness policy live in the oracle adapter, not here.
type PriceFeed interface {
	LatestQuote(ctx context.Context, sourceRef string) (FeedQuote, error)
}

// Authorizer answers whether a caller may perform a named action
// ("configure", "trigger", "admin").
type Authorizer interface {
	IsAuthorized(caller, action string) bool
}

// PauseState reports whether the engine is halted.
type PauseState interface {
	IsPaused() bool
}
