package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/lock"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc      *Service
	Currency string
}

// Create handles POST /api/v1/carts. Signed-in users get their own cart;
// guests get a cart tied to the anonId they send or a fresh one.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AnonID string `json:"anonId"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	owner := Owner{AnonID: strings.TrimSpace(payload.AnonID)}
	if userID, ok := common.UserID(r.Context()); ok {
		owner = Owner{UserID: userID}
	} else if owner.AnonID == "" {
		owner.AnonID = uuid.NewString()
	}
	c, err := h.Svc.Ensure(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{"cartId": c.ID, "anonId": c.AnonID},
	})
}

// Get handles GET /api/v1/carts/{id}: contents plus the pricing preview.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":     view,
		"currency": h.Currency,
	})
}

// AddItem handles POST /api/v1/carts/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID string      `json:"productId"`
		Qty       json.Number `json:"qty"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.ProductID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	qty := 1
	if payload.Qty != "" {
		var err error
		if qty, err = pricing.ParseQuantity(payload.Qty.String()); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if _, err := h.Svc.AddItem(r.Context(), chi.URLParam(r, "id"), payload.ProductID, qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// UpdateItem handles PATCH /api/v1/carts/{id}/items/{itemId}. qty <= 0 removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Qty json.Number `json:"qty"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil || payload.Qty == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty is required", nil)
		return
	}
	qty, err := pricing.ParseQuantity(payload.Qty.String())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := h.Svc.UpdateQty(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// RemoveItem handles DELETE /api/v1/carts/{id}/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId")); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// Clear handles DELETE /api/v1/carts/{id}.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Svc.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Merge handles POST /api/v1/carts/merge for a signed-in user.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required", nil)
		return
	}
	var payload struct {
		CartID string `json:"cartId"`
	}
	if err := common.DecodeJSON(r, &payload); err != nil || strings.TrimSpace(payload.CartID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cartId is required", nil)
		return
	}
	merged, err := h.Svc.Merge(r.Context(), payload.CartID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"cartId": merged.ID, "itemCount": merged.ItemCount()}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if common.WriteAppError(w, err) {
		return
	}
	var qtyErr *pricing.InvalidQuantityError
	switch {
	case errors.As(err, &qtyErr):
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", qtyErr.Error(), map[string]any{"qty": qtyErr.Qty})
	case errors.Is(err, ErrOutOfStock):
		common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, lock.ErrNotAcquired):
		w.Header().Set("Retry-After", "1")
		common.JSONError(w, http.StatusConflict, "CART_BUSY", "cart is being updated, retry shortly", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
