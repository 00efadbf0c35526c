package order

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pcnexus-api/internal/common"
)

type Handler struct {
	Svc *Service
}

// Summary is the list view of an order.
type Summary struct {
	Number        string        `json:"orderNumber"`
	Status        Status        `json:"status"`
	Total         string        `json:"total"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CreatedAt     string        `json:"createdAt"`
}

// Summarize reduces o to its list view.
func Summarize(o Order) Summary {
	return Summary{
		Number:        o.Number,
		Status:        o.Status,
		Total:         o.Total.StringFixed(2),
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 10)
	if perPage > 100 {
		perPage = 100
	}
	orders, total, err := h.Svc.List(r.Context(), userID, perPage, common.Offset(page, perPage))
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]Summary, 0, len(orders))
	for _, o := range orders {
		data = append(data, Summarize(o))
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       data,
		"pagination": common.NewPagination(page, perPage, int64(total)),
	})
}

// Get handles GET /api/v1/orders/{number}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	o, err := h.Svc.Get(r.Context(), userID, numberParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Cancel handles POST /api/v1/orders/{number}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	o, err := h.Svc.Cancel(r.Context(), userID, numberParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// AdminHandler provides administrative order management endpoints.
type AdminHandler struct {
	Svc *Service
}

// PatchStatus handles PATCH /api/v1/admin/orders/{number}/status.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if req.Status == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "status is required", nil)
		return
	}
	o, err := h.Svc.SetStatus(r.Context(), numberParam(r), Status(strings.ToLower(req.Status)))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": Summarize(o)})
}

func numberParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "number")))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, ErrInvalidStatus):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
