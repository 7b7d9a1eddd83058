package valuation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tokenfund/rebalancer/internal/domain"
	"github.com/tokenfund/rebalancer/internal/modules/registry"
)

// Handler serves the read-only valuation endpoints.
type Handler struct {
	registry *registry.Service
	engine   *Engine
	log      zerolog.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(registryService *registry.Service, engine *Engine, log zerolog.Logger) *Handler {
	return &Handler{
		registry: registryService,
		engine:   engine,
		log:      log.With().Str("handler", "valuation").Logger(),
	}
}

// HandleGetValue returns the portfolio's current valuation.
// GET /api/portfolios/{id}/value
func (h *Handler) HandleGetValue(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	result, err := h.engine.ValuePortfolio(r.Context(), portfolio)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetDrift returns the weight-drift summary.
// GET /api/portfolios/{id}/drift
func (h *Handler) HandleGetDrift(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	result, err := h.engine.ValuePortfolio(r.Context(), portfolio)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, Drift(result))
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
	case errors.Is(err, domain.ErrPortfolioNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPriceUnavailable), errors.Is(err, domain.ErrStalePrice):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
