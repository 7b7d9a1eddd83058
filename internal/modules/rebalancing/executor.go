package rebalancing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tokenfund/rebalancer/internal/domain"
	"github.com/tokenfund/rebalancer/internal/events"
	"github.com/tokenfund/rebalancer/internal/locks"
	"github.com/tokenfund/rebalancer/internal/modules/registry"
	"github.com/tokenfund/rebalancer/internal/modules/valuation"
)

// Result summarizes one completed rebalance invocation.
type Result struct {
	PortfolioID string                       `json:"portfolio_id"`
	TotalValue  decimal.Decimal              `json:"total_value"`
	Actions     []domain.RebalanceAction     `json:"actions"`
	Violations  []domain.ComplianceViolation `json:"violations"`
}

// Executor runs the valuation -> classification -> correction sequence for
// one portfolio at a time. The per-portfolio lock is the same one registry
// mutations take, so configuration cannot change between the invariant check
// and the corrective transfers.
type Executor struct {
	registry *registry.Service
	engine   *valuation.Engine
	ledger   domain.Ledger
	locks    *locks.Registry
	events   *events.Manager
	treasury string
	log      zerolog.Logger
}

// NewExecutor creates a new rebalance executor
func NewExecutor(
	registryService *registry.Service,
	engine *valuation.Engine,
	ledger domain.Ledger,
	lockReg *locks.Registry,
	ev *events.Manager,
	treasuryAccount string,
	log zerolog.Logger,
) *Executor {
	return &Executor{
		registry: registryService,
		engine:   engine,
		ledger:   ledger,
		locks:    lockReg,
		events:   ev,
		treasury: treasuryAccount,
		log:      log.With().Str("service", "rebalancing").Logger(),
	}
}

// Rebalance corrects one portfolio back toward its target allocations.
// Any failure leaves the portfolio's ledger balances unchanged and is
// recorded as a RebalanceFailed event.
func (x *Executor) Rebalance(ctx context.Context, portfolioID string) (*Result, error) {
	x.locks.Lock(portfolioID)
	defer x.locks.Unlock(portfolioID)

	result, err := x.rebalanceLocked(ctx, portfolioID)
	if err != nil {
		x.events.Emit(events.RebalanceFailed, portfolioID, "", map[string]interface{}{
			"reason": err.Error(),
		})
		return nil, err
	}
	return result, nil
}

func (x *Executor) rebalanceLocked(ctx context.Context, portfolioID string) (*Result, error) {
	portfolio, err := x.registry.Get(portfolioID)
	if err != nil {
		return nil, err
	}

	// Re-verify the allocation invariant. A partial mutation sequence could
	// have left it broken since configuration time; abort the whole call.
	if sum := portfolio.AllocationSum(); sum != domain.BpsDenominator {
		return nil, fmt.Errorf("%w: portfolio %s sums to %d bps", domain.ErrInvalidAllocation, portfolioID, sum)
	}

	val, err := x.engine.ValuePortfolio(ctx, portfolio)
	if err != nil {
		return nil, err
	}

	result := &Result{
		PortfolioID: portfolioID,
		TotalValue:  val.TotalValue,
	}

	for _, av := range val.Assets {
		dev := Classify(av, portfolio.ThresholdBps)
		breach := CheckLimit(portfolioID, av, val.ObservedAt)
		if breach != nil {
			result.Violations = append(result.Violations, breach.Violation)
			x.events.Emit(events.ComplianceViolation, portfolioID, av.AssetRef, map[string]interface{}{
				"current_value": breach.Violation.CurrentValue.String(),
				"limit_value":   breach.Violation.LimitValue.String(),
			})
		}

		class, delta, forced := Resolve(dev, breach)
		if class == ClassifyNoAction || delta.IsZero() {
			continue
		}

		deltaTokens := delta.DivRound(av.Price, domain.PriceDecimals)
		if deltaTokens.IsZero() {
			continue
		}

		direction := domain.DirectionSell
		if class == ClassifyBuy {
			direction = domain.DirectionBuy
		}
		result.Actions = append(result.Actions, domain.RebalanceAction{
			AssetRef:    av.AssetRef,
			Direction:   direction,
			DeltaValue:  delta,
			DeltaTokens: deltaTokens,
			Forced:      forced,
		})
	}

	if err := x.applyActions(ctx, portfolio, result.Actions); err != nil {
		return nil, err
	}

	x.events.Emit(events.Rebalanced, portfolioID, "", map[string]interface{}{
		"total_value": result.TotalValue.String(),
		"actions":     len(result.Actions),
		"violations":  len(result.Violations),
	})

	x.log.Info().
		Str("portfolio", portfolioID).
		Int("actions", len(result.Actions)).
		Int("violations", len(result.Violations)).
		Msg("Rebalance complete")

	return result, nil
}

// applyActions issues the corrective transfers as one atomic unit. The
// ledger is external, so atomicity is compensation-based: when a transfer
// fails, every transfer already applied in this call is reversed before the
// error propagates.
func (x *Executor) applyActions(ctx context.Context, p *domain.Portfolio, actions []domain.RebalanceAction) error {
	applied := make([]domain.RebalanceAction, 0, len(actions))

	for _, action := range actions {
		from, to := p.CustodyAccount, x.treasury
		if action.Direction == domain.DirectionBuy {
			from, to = x.treasury, p.CustodyAccount
		}

		if err := x.ledger.Transfer(ctx, from, to, action.AssetRef, action.DeltaTokens); err != nil {
			x.rollback(p, applied)
			return fmt.Errorf("%w: %s %s of %s: %v",
				domain.ErrTransferFailed, action.Direction, action.DeltaTokens, action.AssetRef, err)
		}
		applied = append(applied, action)
	}

	return nil
}

// rollback reverses applied transfers in reverse order. Uses a fresh context
// so a cancelled call cannot strand partial corrections.
func (x *Executor) rollback(p *domain.Portfolio, applied []domain.RebalanceAction) {
	ctx := context.Background()

	for i := len(applied) - 1; i >= 0; i-- {
		action := applied[i]
		from, to := x.treasury, p.CustodyAccount
		if action.Direction == domain.DirectionBuy {
			from, to = p.CustodyAccount, x.treasury
		}

		if err := x.ledger.Transfer(ctx, from, to, action.AssetRef, action.DeltaTokens); err != nil {
			// Loud by necessity: this is the only path that can leave
			// partial state behind.
			x.log.Error().
				Err(err).
				Str("portfolio", p.ID).
				Str("asset", action.AssetRef).
				Str("amount", action.DeltaTokens.String()).
				Msg("Rollback transfer failed; manual reconciliation required")
		}
	}
}
