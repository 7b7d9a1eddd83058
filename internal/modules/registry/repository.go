package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tokenfund/rebalancer/internal/domain"
)

// Repository handles portfolio and asset-entry persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new registry repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "registry").Logger(),
	}
}

// GetPortfolio loads a portfolio with all of its asset entries.
// Returns nil if the portfolio does not exist.
func (r *Repository) GetPortfolio(id string) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := r.db.QueryRow(
		`SELECT id, custody_account, threshold_bps, created_at, updated_at
		 FROM portfolios WHERE id = ?`, id,
	).Scan(&p.ID, &p.CustodyAccount, &p.ThresholdBps, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	rows, err := r.db.Query(
		`SELECT asset_ref, target_bps, limit_bps, price_source, updated_at
		 FROM portfolio_assets WHERE portfolio_id = ? ORDER BY asset_ref`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.AssetEntry
		if err := rows.Scan(&a.AssetRef, &a.TargetBps, &a.LimitBps, &a.PriceSource, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset entry: %w", err)
		}
		p.Assets = append(p.Assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset entries: %w", err)
	}

	return &p, nil
}

// ListPortfolioIDs returns every known portfolio id.
func (r *Repository) ListPortfolioIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM portfolios ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio ids: %w", err)
	}
	return ids, nil
}

// SavePortfolio writes the portfolio row and the given asset entries in one
// transaction. Either everything lands or nothing does.
func (r *Repository) SavePortfolio(p *domain.Portfolio, changed []domain.AssetEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.Exec(
		`INSERT INTO portfolios (id, custody_account, threshold_bps, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			custody_account = excluded.custody_account,
			threshold_bps   = excluded.threshold_bps,
			updated_at      = excluded.updated_at`,
		p.ID, p.CustodyAccount, p.ThresholdBps, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio: %w", err)
	}

	for _, a := range changed {
		_, err = tx.Exec(
			`INSERT INTO portfolio_assets (portfolio_id, asset_ref, target_bps, limit_bps, price_source, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(portfolio_id, asset_ref) DO UPDATE SET
				target_bps   = excluded.target_bps,
				limit_bps    = excluded.limit_bps,
				price_source = excluded.price_source,
				updated_at   = excluded.updated_at`,
			p.ID, a.AssetRef, a.TargetBps, a.LimitBps, a.PriceSource, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert asset %s: %w", a.AssetRef, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit portfolio save: %w", err)
	}
	return nil
}

// UpdateThreshold sets a portfolio's rebalance threshold.
func (r *Repository) UpdateThreshold(id string, bps int64) error {
	res, err := r.db.Exec(
		`UPDATE portfolios SET threshold_bps = ?, updated_at = ? WHERE id = ?`,
		bps, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update threshold: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrPortfolioNotFound
	}
	return nil
}
