package audit

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pcnexus-api/internal/common"
)

// Handler exposes the audit trail to administrators.
type Handler struct {
	Service Service
	Logger  zerolog.Logger
}

// List handles GET /admin/audit-logs.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	entries, pg, err := h.Service.List(r.Context(), page, perPage)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list audit logs")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to fetch audit logs", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entries, "pagination": pg})
}
