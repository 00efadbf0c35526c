package location

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

// Handler exposes shipping rate endpoints.
type Handler struct {
	Svc *Service
}

// Divisions handles GET /api/v1/locations/divisions.
func (h *Handler) Divisions(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": Divisions})
}

// List handles GET /api/v1/locations?division=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.List(r.Context(), r.URL.Query().Get("division"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Quote handles GET /api/v1/shipping/quote?division&district&upazila.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quote, err := h.Svc.Quote(r.Context(), pricing.Destination{
		Division: q.Get("division"),
		District: q.Get("district"),
		Upazila:  q.Get("upazila"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// Upsert handles PUT /api/v1/admin/locations.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var in UpsertInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	loc, err := h.Svc.Upsert(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": loc})
}

// Delete handles DELETE /api/v1/admin/locations/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrDestinationRequired):
		common.JSONError(w, http.StatusBadRequest, "DESTINATION_REQUIRED", "division, district and upazila are required", nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "location not found", nil)
	case common.WriteAppError(w, err):
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
