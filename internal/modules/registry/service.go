// Package registry owns portfolio configuration: which assets a portfolio
// tracks, their target allocations, compliance limits and price sources.
// Every mutation holds the portfolio lock and enforces the sum-to-10000
// allocation invariant transactionally.
package registry

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tokenfund/rebalancer/internal/domain"
	"github.com/tokenfund/rebalancer/internal/events"
	"github.com/tokenfund/rebalancer/internal/locks"
)

// DefaultThresholdBps applies to portfolios until setRebalanceThreshold is
// called on them.
const DefaultThresholdBps = 500

// AssetParams describes one asset mutation.
type AssetParams struct {
	AssetRef    string `json:"asset_ref"`
	TargetBps   int64  `json:"target_bps"`
	LimitBps    int64  `json:"limit_bps"`
	PriceSource string `json:"price_source"`
}

// Service orchestrates registry mutations.
type Service struct {
	repo   *Repository
	locks  *locks.Registry
	events *events.Manager
	log    zerolog.Logger
}

// NewService creates a new registry service
func NewService(repo *Repository, lockReg *locks.Registry, ev *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locks:  lockReg,
		events: ev,
		log:    log.With().Str("service", "registry").Logger(),
	}
}

// AddAssets adds one or more assets to a portfolio in a single mutation.
// The portfolio is created on first use. The mutation is rejected in full if
// any entry is out of range, already present, or if the post-mutation
// allocation sum is not exactly 10000 bps.
func (s *Service) AddAssets(portfolioID string, params []AssetParams) (*domain.Portfolio, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("no assets given")
	}

	s.locks.Lock(portfolioID)
	defer s.locks.Unlock(portfolioID)

	p, err := s.repo.GetPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.Portfolio{
			ID:             portfolioID,
			CustodyAccount: "custody:" + portfolioID,
			ThresholdBps:   DefaultThresholdBps,
		}
	}

	changed := make([]domain.AssetEntry, 0, len(params))
	for _, param := range params {
		if err := validateParams(param); err != nil {
			return nil, err
		}
		if _, exists := p.Asset(param.AssetRef); exists {
			return nil, fmt.Errorf("asset %s already registered in portfolio %s", param.AssetRef, portfolioID)
		}
		entry := domain.AssetEntry{
			AssetRef:    param.AssetRef,
			TargetBps:   param.TargetBps,
			LimitBps:    param.LimitBps,
			PriceSource: param.PriceSource,
		}
		p.Assets = append(p.Assets, entry)
		changed = append(changed, entry)
	}

	if p.AllocationSum() != domain.BpsDenominator {
		return nil, fmt.Errorf("%w: sum is %d bps", domain.ErrInvalidAllocation, p.AllocationSum())
	}

	if err := s.repo.SavePortfolio(p, changed); err != nil {
		return nil, err
	}

	for _, a := range changed {
		s.events.Emit(events.AssetAdded, portfolioID, a.AssetRef, map[string]interface{}{
			"target_bps":   a.TargetBps,
			"limit_bps":    a.LimitBps,
			"price_source": a.PriceSource,
		})
	}

	return p, nil
}

// UpdateAssets rewrites one or more existing asset entries as a single
// mutation. The post-mutation allocation sum must still be exactly 10000
// bps; otherwise nothing is written. Retiring an asset (zeroing both bps
// values) therefore happens in the same batch that reassigns its weight.
func (s *Service) UpdateAssets(portfolioID string, params []AssetParams) (*domain.Portfolio, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("no assets given")
	}

	s.locks.Lock(portfolioID)
	defer s.locks.Unlock(portfolioID)

	p, err := s.repo.GetPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPortfolioNotFound, portfolioID)
	}

	changed := make([]domain.AssetEntry, 0, len(params))
	for _, param := range params {
		if err := validateParams(param); err != nil {
			return nil, err
		}
		found := false
		for i := range p.Assets {
			if p.Assets[i].AssetRef == param.AssetRef {
				p.Assets[i].TargetBps = param.TargetBps
				p.Assets[i].LimitBps = param.LimitBps
				p.Assets[i].PriceSource = param.PriceSource
				changed = append(changed, p.Assets[i])
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s in portfolio %s", domain.ErrAssetNotFound, param.AssetRef, portfolioID)
		}
	}

	if p.AllocationSum() != domain.BpsDenominator {
		return nil, fmt.Errorf("%w: sum is %d bps", domain.ErrInvalidAllocation, p.AllocationSum())
	}

	if err := s.repo.SavePortfolio(p, changed); err != nil {
		return nil, err
	}

	for _, param := range params {
		s.events.Emit(events.AssetUpdated, portfolioID, param.AssetRef, map[string]interface{}{
			"target_bps":   param.TargetBps,
			"limit_bps":    param.LimitBps,
			"price_source": param.PriceSource,
		})
	}

	return p, nil
}

// UpdateAsset rewrites a single asset entry.
func (s *Service) UpdateAsset(portfolioID string, param AssetParams) (*domain.Portfolio, error) {
	return s.UpdateAssets(portfolioID, []AssetParams{param})
}

// SetThreshold updates a portfolio's rebalance threshold band.
func (s *Service) SetThreshold(portfolioID string, bps int64) error {
	if bps < 0 || bps > domain.BpsDenominator {
		return fmt.Errorf("threshold must be within [0, %d] bps, got %d", domain.BpsDenominator, bps)
	}

	s.locks.Lock(portfolioID)
	defer s.locks.Unlock(portfolioID)

	if err := s.repo.UpdateThreshold(portfolioID, bps); err != nil {
		return err
	}

	s.events.Emit(events.RebalanceThresholdUpdated, portfolioID, "", map[string]interface{}{
		"threshold_bps": bps,
	})
	return nil
}

// Get loads a portfolio by id.
func (s *Service) Get(portfolioID string) (*domain.Portfolio, error) {
	p, err := s.repo.GetPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPortfolioNotFound, portfolioID)
	}
	return p, nil
}

// GetAssetAllocation returns one asset's configuration.
func (s *Service) GetAssetAllocation(portfolioID, assetRef string) (domain.AssetEntry, error) {
	p, err := s.Get(portfolioID)
	if err != nil {
		return domain.AssetEntry{}, err
	}
	entry, ok := p.Asset(assetRef)
	if !ok {
		return domain.AssetEntry{}, fmt.Errorf("%w: %s in portfolio %s", domain.ErrAssetNotFound, assetRef, portfolioID)
	}
	return entry, nil
}

// ListPortfolioIDs returns every configured portfolio id.
func (s *Service) ListPortfolioIDs() ([]string, error) {
	return s.repo.ListPortfolioIDs()
}

func validateParams(p AssetParams) error {
	if p.AssetRef == "" {
		return fmt.Errorf("asset_ref is required")
	}
	if p.PriceSource == "" {
		return fmt.Errorf("price_source is required for asset %s", p.AssetRef)
	}
	if p.TargetBps < 0 || p.TargetBps > domain.BpsDenominator {
		return fmt.Errorf("target_bps must be within [0, %d], got %d", domain.BpsDenominator, p.TargetBps)
	}
	if p.LimitBps < 0 || p.LimitBps > domain.BpsDenominator {
		return fmt.Errorf("limit_bps must be within [0, %d], got %d", domain.BpsDenominator, p.LimitBps)
	}
	return nil
}
