package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tokenfund/rebalancer/internal/modules/rebalancing"
	"github.com/tokenfund/rebalancer/internal/modules/registry"
)

// RebalanceCycleJob runs a batch rebalance across every configured
// portfolio. Items that failed or timed out in one cycle are simply
// attempted again on the next one; nothing is dropped silently.
type RebalanceCycleJob struct {
	registry    *registry.Service
	coordinator *rebalancing.Coordinator
	timeout     time.Duration
	log         zerolog.Logger
}

// NewRebalanceCycleJob creates the scheduled rebalance job
func NewRebalanceCycleJob(
	registryService *registry.Service,
	coordinator *rebalancing.Coordinator,
	timeout time.Duration,
	log zerolog.Logger,
) *RebalanceCycleJob {
	return &RebalanceCycleJob{
		registry:    registryService,
		coordinator: coordinator,
		timeout:     timeout,
		log:         log.With().Str("job", "rebalance_cycle").Logger(),
	}
}

// Name returns the job name
func (j *RebalanceCycleJob) Name() string {
	return "rebalance_cycle"
}

// Run executes one full cycle
func (j *RebalanceCycleJob) Run() error {
	ids, err := j.registry.ListPortfolioIDs()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		j.log.Debug().Msg("No portfolios configured")
		return nil
	}

	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	results := j.coordinator.Run(ctx, ids)
	for _, r := range results {
		if !r.Succeeded() {
			j.log.Warn().
				Str("portfolio", r.PortfolioID).
				Str("error", r.Error).
				Msg("Portfolio deferred to next cycle")
		}
	}
	return nil
}
