// Package valuation converts on-hand balances to the portfolio's unit of
// account. Targets and compliance limits are relative to the total observed
// in the same pass, so rebalancing preserves relative weights rather than
// absolute amounts.
package valuation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tokenfund/rebalancer/internal/domain"
	"github.com/tokenfund/rebalancer/internal/modules/oracle"
)

// Engine values portfolios against fresh oracle quotes and ledger balances.
type Engine struct {
	ledger domain.Ledger
	oracle *oracle.Adapter
	log    zerolog.Logger
}

// NewEngine creates a new valuation engine
func NewEngine(ledger domain.Ledger, oracleAdapter *oracle.Adapter, log zerolog.Logger) *Engine {
	return &Engine{
		ledger: ledger,
		oracle: oracleAdapter,
		log:    log.With().Str("service", "valuation").Logger(),
	}
}

// ValuePortfolio computes per-asset current, target and limit values plus
// the portfolio total. All quotes and balances are resolved before any
// figure is derived: a single missing price fails the whole valuation.
func (e *Engine) ValuePortfolio(ctx context.Context, p *domain.Portfolio) (domain.ValuationResult, error) {
	type observation struct {
		quote   domain.PriceQuote
		balance decimal.Decimal
	}

	// Each goroutine writes its own slot; no shared state beyond the slice.
	observations := make([]observation, len(p.Assets))

	g, gctx := errgroup.WithContext(ctx)
	for i, asset := range p.Assets {
		i, asset := i, asset
		g.Go(func() error {
			quote, err := e.oracle.Quote(gctx, asset.PriceSource)
			if err != nil {
				return err
			}
			balance, err := e.ledger.BalanceOf(gctx, p.CustodyAccount, asset.AssetRef)
			if err != nil {
				return err
			}
			observations[i] = observation{quote: quote, balance: balance}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.ValuationResult{}, err
	}

	result := domain.ValuationResult{
		PortfolioID: p.ID,
		TotalValue:  decimal.Zero,
		Assets:      make([]domain.AssetValuation, len(p.Assets)),
		ObservedAt:  time.Now().UTC(),
	}

	for i, asset := range p.Assets {
		obs := observations[i]
		current := obs.balance.Mul(obs.quote.Price)
		result.Assets[i] = domain.AssetValuation{
			AssetRef:     asset.AssetRef,
			Balance:      obs.balance,
			Price:        obs.quote.Price,
			CurrentValue: current,
		}
		result.TotalValue = result.TotalValue.Add(current)
	}

	// Targets derive from the observed total, never a stored figure.
	for i, asset := range p.Assets {
		result.Assets[i].TargetValue = result.TotalValue.Mul(domain.BpsFraction(asset.TargetBps))
		result.Assets[i].LimitValue = result.TotalValue.Mul(domain.BpsFraction(asset.LimitBps))
	}

	e.log.Debug().
		Str("portfolio", p.ID).
		Str("total_value", result.TotalValue.String()).
		Int("assets", len(result.Assets)).
		Msg("Portfolio valued")

	return result, nil
}
