package database

// schema holds the DDL applied at boot. Statements are idempotent so the
// migration can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS portfolios (
		id              TEXT PRIMARY KEY,
		custody_account TEXT NOT NULL,
		threshold_bps   INTEGER NOT NULL DEFAULT 500,
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS portfolio_assets (
		portfolio_id TEXT NOT NULL REFERENCES portfolios(id),
		asset_ref    TEXT NOT NULL,
		target_bps   INTEGER NOT NULL,
		limit_bps    INTEGER NOT NULL,
		price_source TEXT NOT NULL,
		updated_at   TIMESTAMP NOT NULL,
		PRIMARY KEY (portfolio_id, asset_ref)
	)`,
	`CREATE TABLE IF NOT EXISTS engine_events (
		id           TEXT PRIMARY KEY,
		type         TEXT NOT NULL,
		portfolio_id TEXT,
		asset_ref    TEXT,
		payload      TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_engine_events_portfolio
		ON engine_events(portfolio_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_engine_events_type
		ON engine_events(type, created_at)`,
}
