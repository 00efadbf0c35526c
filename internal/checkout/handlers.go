package checkout

import (
	"errors"
	"net/http"

	"github.com/noah-isme/pcnexus-api/internal/cart"
	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/lock"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

type Handler struct {
	Svc *Service
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload Input
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	o, err := h.Svc.Place(r.Context(), userID, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"orderNumber": o.Number,
			"order":       o,
		},
	})
}

// Quote handles POST /api/v1/checkout/quote and prices a cart for a destination.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CartID string `json:"cartId"`
		pricing.Destination
	}
	if err := common.DecodeJSON(r, &payload); err != nil || payload.CartID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cartId is required", nil)
		return
	}
	quote, err := h.Svc.Quote(r.Context(), payload.CartID, payload.Destination)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

func writeError(w http.ResponseWriter, err error) {
	if common.WriteAppError(w, err) {
		return
	}
	var (
		empty       *pricing.EmptyCartError
		qty         *pricing.InvalidQuantityError
		unavailable *UnavailableError
		short       *InsufficientStockError
	)
	switch {
	case errors.As(err, &empty):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "your cart is empty", nil)
	case errors.As(err, &qty):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_QUANTITY", qty.Error(), nil)
	case errors.As(err, &unavailable):
		common.JSONError(w, http.StatusConflict, "ITEMS_UNAVAILABLE", err.Error(), map[string][]string{"items": unavailable.Names})
	case errors.As(err, &short):
		common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", err.Error(), map[string][]cart.Shortage{"items": short.Items})
	case errors.Is(err, pricing.ErrDestinationRequired):
		common.JSONError(w, http.StatusBadRequest, "DESTINATION_REQUIRED", err.Error(), nil)
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, cart.ErrForbidden):
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, lock.ErrNotAcquired):
		w.Header().Set("Retry-After", "1")
		common.JSONError(w, http.StatusConflict, "CART_BUSY", "cart is being updated, retry shortly", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout failed", nil)
	}
}
