package domain

import "errors"

// Error taxonomy. Configuration errors surface synchronously to the caller;
// runtime errors during a rebalance abort that portfolio's call and are
// recorded per portfolio in batch runs.
var (
	// ErrInvalidAllocation means a portfolio's target allocations do not sum
	// to exactly 10000 bps. Rejected before any write.
	ErrInvalidAllocation = errors.New("target allocations must sum to 10000 bps")

	// ErrAssetNotFound means a mutation referenced an unknown asset.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrPortfolioNotFound means the referenced portfolio does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrPriceUnavailable means the upstream feed returned non-positive or
	// malformed data.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrStalePrice means the quote's observation time exceeds the maximum
	// allowed age.
	ErrStalePrice = errors.New("stale price")

	// ErrUnauthorized means the caller is not permitted to perform the action.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSystemPaused means the engine is paused; no mutation or rebalance
	// proceeds.
	ErrSystemPaused = errors.New("system paused")

	// ErrComplianceLimitExceeded signals a concentration-limit breach. It is
	// non-fatal: the breach is corrected within the same rebalance pass.
	ErrComplianceLimitExceeded = errors.New("compliance limit exceeded")

	// ErrTransferFailed means a corrective transfer was rejected by the
	// ledger; the whole rebalance for that portfolio rolls back.
	ErrTransferFailed = errors.New("transfer failed")
)
