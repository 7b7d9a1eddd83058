package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tokenfund/rebalancer/internal/events"
	"github.com/tokenfund/rebalancer/internal/modules/access"
)

// handleHealth reports process and database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.Conn().Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, map[string]string{"status": status})
}

// handleSystemStatus reports pause state.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"paused": s.cfg.Pause.IsPaused(),
	})
}

// handlePause halts all mutation and rebalancing. Admin only; works while
// already paused.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	caller := access.CallerFromContext(r.Context())
	if err := s.cfg.Gate.AllowAdmin(caller); err != nil {
		s.writeError(w, http.StatusForbidden, err.Error())
		return
	}
	s.cfg.Pause.Pause()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"paused": true})
}

// handleResume lifts the halt. Admin only.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	caller := access.CallerFromContext(r.Context())
	if err := s.cfg.Gate.AllowAdmin(caller); err != nil {
		s.writeError(w, http.StatusForbidden, err.Error())
		return
	}
	s.cfg.Pause.Resume()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"paused": false})
}

// handleListEvents queries the audit trail.
// GET /api/events?portfolio_id=&type=&limit=
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	filter := events.Filter{
		PortfolioID: r.URL.Query().Get("portfolio_id"),
		Type:        events.EventType(r.URL.Query().Get("type")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	list, err := s.cfg.EventStore.List(filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []events.Event{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
