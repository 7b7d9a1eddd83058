// Package oracle adapts heterogeneous price feeds into normalized quotes.
// Every source reports prices as integers in its own decimal convention; the
// adapter shifts them onto the engine's 18-place fixed-point scale exactly
// and enforces the staleness window.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tokenfund/rebalancer/internal/domain"
)

// Adapter wraps a PriceFeed with normalization, validation and staleness
// policy. Quotes are produced per call and never cached.
type Adapter struct {
	feed    domain.PriceFeed
	maxAge  time.Duration
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewAdapter creates a new oracle adapter
func NewAdapter(feed domain.PriceFeed, maxAge, timeout time.Duration, log zerolog.Logger) *Adapter {
	return &Adapter{
		feed:    feed,
		maxAge:  maxAge,
		timeout: timeout,
		now:     time.Now,
		log:     log.With().Str("service", "oracle").Logger(),
	}
}

// SetClock overrides the time source. Test hook.
func (a *Adapter) SetClock(now func() time.Time) {
	a.now = now
}

// Quote fetches and normalizes the latest price for a source. Non-positive
// or malformed feed data fails with ErrPriceUnavailable; an observation
// older than the max age fails with ErrStalePrice.
func (a *Adapter) Quote(ctx context.Context, sourceRef string) (domain.PriceQuote, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.feed.LatestQuote(ctx, sourceRef)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("%w: source %s: %v", domain.ErrPriceUnavailable, sourceRef, err)
	}

	if !raw.Price.IsPositive() {
		return domain.PriceQuote{}, fmt.Errorf("%w: source %s returned %s", domain.ErrPriceUnavailable, sourceRef, raw.Price)
	}
	if raw.Decimals < 0 || raw.Decimals > domain.PriceDecimals {
		return domain.PriceQuote{}, fmt.Errorf("%w: source %s uses unsupported scale %d", domain.ErrPriceUnavailable, sourceRef, raw.Decimals)
	}
	if raw.ObservedAt.IsZero() {
		return domain.PriceQuote{}, fmt.Errorf("%w: source %s returned no timestamp", domain.ErrPriceUnavailable, sourceRef)
	}

	if age := a.now().Sub(raw.ObservedAt); age > a.maxAge {
		return domain.PriceQuote{}, fmt.Errorf("%w: source %s observed %s ago (max %s)",
			domain.ErrStalePrice, sourceRef, age.Truncate(time.Second), a.maxAge)
	}

	// Exponent shift onto the 18-place scale. Exact: no rounding, no floats.
	price := raw.Price.Shift(-raw.Decimals)

	a.log.Debug().
		Str("source", sourceRef).
		Str("price", price.String()).
		Time("observed_at", raw.ObservedAt).
		Msg("Quote normalized")

	return domain.PriceQuote{
		Price:      price,
		ObservedAt: raw.ObservedAt,
		SourceID:   sourceRef,
	}, nil
}
