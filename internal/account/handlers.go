package account

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pcnexus-api/internal/common"
)

// Handler serves GET /api/v1/account.
type Handler struct {
	Service *Service
	Logger  zerolog.Logger
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	out, err := h.Service.Overview(r.Context(), userID)
	if err != nil {
		if common.WriteAppError(w, err) {
			return
		}
		h.Logger.Error().Err(err).Str("user_id", userID).Msg("account overview failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load account", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}
