package rebalancing

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tokenfund/rebalancer/internal/domain"
)

// ItemResult is the outcome for one portfolio in a batch run. Failures are
// captured here, never propagated to sibling portfolios.
type ItemResult struct {
	PortfolioID string  `json:"portfolio_id"`
	Result      *Result `json:"result,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Succeeded reports whether this item completed.
func (r ItemResult) Succeeded() bool {
	return r.Error == ""
}

// Coordinator fans a batch of portfolio ids across a bounded worker pool.
// Distinct portfolios rebalance fully in parallel; the per-portfolio lock
// inside the executor keeps same-id calls serialized.
type Coordinator struct {
	executor *Executor
	pause    domain.PauseState
	workers  int
	log      zerolog.Logger
}

// NewCoordinator creates a new batch coordinator
func NewCoordinator(executor *Executor, pause domain.PauseState, workers int, log zerolog.Logger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{
		executor: executor,
		pause:    pause,
		workers:  workers,
		log:      log.With().Str("service", "batch").Logger(),
	}
}

// Run rebalances every id in the list. Each portfolio is isolated: one
// failure is recorded in its slot and the rest of the batch proceeds. A
// failed item is simply picked up again by the next scheduled cycle.
func (c *Coordinator) Run(ctx context.Context, portfolioIDs []string) []ItemResult {
	results := make([]ItemResult, len(portfolioIDs))

	if c.pause != nil && c.pause.IsPaused() {
		for i, id := range portfolioIDs {
			results[i] = ItemResult{PortfolioID: id, Error: domain.ErrSystemPaused.Error()}
		}
		c.log.Warn().Int("portfolios", len(portfolioIDs)).Msg("Batch skipped: system paused")
		return results
	}

	g := &errgroup.Group{}
	g.SetLimit(c.workers)

	for i, id := range portfolioIDs {
		i, id := i, id
		g.Go(func() error {
			result, err := c.executor.Rebalance(ctx, id)
			if err != nil {
				results[i] = ItemResult{PortfolioID: id, Error: err.Error()}
				return nil
			}
			results[i] = ItemResult{PortfolioID: id, Result: result}
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		}
	}
	c.log.Info().
		Int("portfolios", len(portfolioIDs)).
		Int("succeeded", succeeded).
		Int("failed", len(portfolioIDs)-succeeded).
		Msg("Batch rebalance complete")

	return results
}
