package rebalancing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tokenfund/rebalancer/internal/domain"
	"github.com/tokenfund/rebalancer/internal/modules/access"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	executor    *Executor
	coordinator *Coordinator
	gate        *access.Gate
	log         zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(executor *Executor, coordinator *Coordinator, gate *access.Gate, log zerolog.Logger) *Handler {
	return &Handler{
		executor:    executor,
		coordinator: coordinator,
		gate:        gate,
		log:         log.With().Str("handler", "rebalancing").Logger(),
	}
}

// HandleRebalance triggers one portfolio's rebalance.
// POST /api/portfolios/{id}/rebalance
func (h *Handler) HandleRebalance(w http.ResponseWriter, r *http.Request) {
	caller := access.CallerFromContext(r.Context())
	if err := h.gate.Allow(caller, access.ActionTrigger); err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	result, err := h.executor.Rebalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	PortfolioIDs []string `json:"portfolio_ids"`
}

// HandleBatchRebalance triggers rebalances for a list of portfolios with
// per-portfolio failure isolation.
// POST /api/rebalance/batch
func (h *Handler) HandleBatchRebalance(w http.ResponseWriter, r *http.Request) {
	caller := access.CallerFromContext(r.Context())
	if err := h.gate.Allow(caller, access.ActionTrigger); err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.PortfolioIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "portfolio_ids is required")
		return
	}

	results := h.coordinator.Run(r.Context(), req.PortfolioIDs)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSystemPaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrPortfolioNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAllocation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPriceUnavailable), errors.Is(err, domain.ErrStalePrice),
		errors.Is(err, domain.ErrTransferFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
