package registry

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tokenfund/rebalancer/internal/domain"
	"github.com/tokenfund/rebalancer/internal/modules/access"
)

// Handler handles registry HTTP requests
type Handler struct {
	service *Service
	gate    *access.Gate
	log     zerolog.Logger
}

// NewHandler creates a new registry handler
func NewHandler(service *Service, gate *access.Gate, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		gate:    gate,
		log:     log.With().Str("handler", "registry").Logger(),
	}
}

// addAssetsRequest accepts a single entry or a batch. A batch lands as one
// mutation so a fresh portfolio can satisfy the 10000 bps invariant.
type addAssetsRequest struct {
	Assets []AssetParams `json:"assets"`
}

// HandleAddAssets configures one or more assets on a portfolio.
// POST /api/portfolios/{id}/assets
func (h *Handler) HandleAddAssets(w http.ResponseWriter, r *http.Request) {
	caller := access.CallerFromContext(r.Context())
	if err := h.gate.Allow(caller, access.ActionConfigure); err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	portfolioID := chi.URLParam(r, "id")

	var req addAssetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	portfolio, err := h.service.AddAssets(portfolioID, req.Assets)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, portfolio)
}

// HandleUpdateAssets rewrites several asset entries in one mutation.
// PUT /api/portfolios/{id}/assets
func (h *Handler) HandleUpdateAssets(w http.ResponseWriter, r *http.Request) {
	caller := access.CallerFromContext(r.Context())
	if err := h.gate.Allow(caller, access.ActionConfigure); err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	portfolioID := chi.URLParam(r, "id")

	var req addAssetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	portfolio, err := h.service.UpdateAssets(portfolioID, req.Assets)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, portfolio)
}

// HandleUpdateAsset rewrites one asset entry.
// PUT /api/portfolios/{id}/assets/{ref}
func (h *Handler) HandleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	caller := access.CallerFromContext(r.Context())
	if err := h.gate.Allow(caller, access.ActionConfigure); err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	portfolioID := chi.URLParam(r, "id")
	assetRef := chi.URLParam(r, "ref")

	var param AssetParams
	if err := json.NewDecoder(r.Body).Decode(&param); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	param.AssetRef = assetRef

	portfolio, err := h.service.UpdateAsset(portfolioID, param)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, portfolio)
}

type thresholdRequest struct {
	ThresholdBps int64 `json:"threshold_bps"`
}

// HandleSetThreshold updates the rebalance threshold band.
// PUT /api/portfolios/{id}/threshold
func (h *Handler) HandleSetThreshold(w http.ResponseWriter, r *http.Request) {
	caller := access.CallerFromContext(r.Context())
	if err := h.gate.Allow(caller, access.ActionConfigure); err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	portfolioID := chi.URLParam(r, "id")

	var req thresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SetThreshold(portfolioID, req.ThresholdBps); err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio_id":  portfolioID,
		"threshold_bps": req.ThresholdBps,
	})
}

// HandleGetAssetAllocation returns one asset's configuration.
// GET /api/portfolios/{id}/assets/{ref}
func (h *Handler) HandleGetAssetAllocation(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetAssetAllocation(chi.URLParam(r, "id"), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

// HandleGetPortfolio returns the full portfolio configuration.
// GET /api/portfolios/{id}
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, portfolio)
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
	case errors.Is(err, domain.ErrPortfolioNotFound), errors.Is(err, domain.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAllocation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
