package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	AssetAdded                EventType = "ASSET_ADDED"
	AssetUpdated              EventType = "ASSET_UPDATED"
	RebalanceThresholdUpdated EventType = "REBALANCE_THRESHOLD_UPDATED"
	Rebalanced                EventType = "REBALANCED"
	RebalanceFailed           EventType = "REBALANCE_FAILED"
	ComplianceViolation       EventType = "COMPLIANCE_VIOLATION"
	SystemPaused              EventType = "SYSTEM_PAUSED"
	SystemResumed             EventType = "SYSTEM_RESUMED"
	ErrorOccurred             EventType = "ERROR_OCCURRED"
)

// Event represents an engine audit record
type Event struct {
	ID          string                 `json:"id"`
	Type        EventType              `json:"type"`
	Timestamp   time.Time              `json:"timestamp"`
	PortfolioID string                 `json:"portfolio_id,omitempty"`
	AssetRef    string                 `json:"asset_ref,omitempty"`
	Data        map[string]interface{} `json:"data"`
}

// Sink persists emitted events. The manager keeps emitting even when the
// sink fails; audit persistence never blocks the engine.
type Sink interface {
	Record(event Event) error
}

// Manager handles event emission, logging and persistence
type Manager struct {
	sink Sink
	log  zerolog.Logger
}

// NewManager creates a new event manager. A nil sink disables persistence.
func NewManager(sink Sink, log zerolog.Logger) *Manager {
	return &Manager{
		sink: sink,
		log:  log.With().Str("service", "events").Logger(),
	}
}

// Emit emits an event scoped to a portfolio (and optionally one asset).
func (m *Manager) Emit(eventType EventType, portfolioID, assetRef string, data map[string]interface{}) {
	event := Event{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		PortfolioID: portfolioID,
		AssetRef:    assetRef,
		Data:        data,
	}

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("portfolio_id", portfolioID).
		RawJSON("event", eventJSON).
		Msg("Event emitted")

	if m.sink == nil {
		return
	}
	if err := m.sink.Record(event); err != nil {
		m.log.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to persist event")
	}
}

// EmitError emits an error event
func (m *Manager) EmitError(portfolioID string, err error, context map[string]interface{}) {
	data := map[string]interface{}{
		"error":   err.Error(),
		"context": context,
	}
	m.Emit(ErrorOccurred, portfolioID, "", data)
}
