package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists events to the engine_events table. Records stay queryable
// after the originating asset has been retired.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a new event store
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("repo", "events").Logger(),
	}
}

// Record inserts one event. Implements the Sink interface.
func (s *Store) Record(event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO engine_events (id, type, portfolio_id, asset_ref, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, string(event.Type), event.PortfolioID, event.AssetRef, string(payload), event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Filter narrows a List query. Zero values mean "any".
type Filter struct {
	PortfolioID string
	Type        EventType
	Limit       int
}

// List returns events newest-first.
func (s *Store) List(f Filter) ([]Event, error) {
	query := `SELECT id, type, portfolio_id, asset_ref, payload, created_at FROM engine_events WHERE 1=1`
	args := []interface{}{}

	if f.PortfolioID != "" {
		query += " AND portfolio_id = ?"
		args = append(args, f.PortfolioID)
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, string(f.Type))
	}
	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var result []Event
	for rows.Next() {
		var (
			ev          Event
			evType      string
			portfolioID sql.NullString
			assetRef    sql.NullString
			payload     string
			createdAt   time.Time
		)
		if err := rows.Scan(&ev.ID, &evType, &portfolioID, &assetRef, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Type = EventType(evType)
		ev.PortfolioID = portfolioID.String
		ev.AssetRef = assetRef.String
		ev.Timestamp = createdAt
		if err := json.Unmarshal([]byte(payload), &ev.Data); err != nil {
			s.log.Warn().Err(err).Str("event_id", ev.ID).Msg("Unreadable event payload")
			ev.Data = map[string]interface{}{}
		}
		result = append(result, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return result, nil
}
