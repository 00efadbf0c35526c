package wishlist

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pcnexus-api/internal/common"
)

type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/wishlist.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	cards, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list wishlist", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cards, "count": len(cards)})
}

// Add handles POST /api/v1/wishlist/{productId}.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	if err := h.Svc.Add(r.Context(), userID, chi.URLParam(r, "productId")); err != nil {
		if errors.Is(err, ErrUnknownProduct) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to add to wishlist", nil)
		return
	}
	h.count(w, r, userID, http.StatusCreated)
}

// Remove handles DELETE /api/v1/wishlist/{productId}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	if err := h.Svc.Remove(r.Context(), userID, chi.URLParam(r, "productId")); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to remove from wishlist", nil)
		return
	}
	h.count(w, r, userID, http.StatusOK)
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request, userID string, status int) {
	n, err := h.Svc.Count(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count wishlist", nil)
		return
	}
	common.JSON(w, status, map[string]any{"data": map[string]int{"count": n}})
}
