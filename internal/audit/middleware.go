package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pcnexus-api/internal/obs"
)

// Recorder writes an entry for every mutating request that passes through it.
type Recorder struct {
	Service Service
	Logger  zerolog.Logger
}

// Middleware records after next has run. ResourceIDParam names the chi URL
// parameter holding the resource id, if any.
func (rec Recorder) Middleware(resourceType, resourceIDParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			sr := obs.NewStatusRecorder(w)
			next.ServeHTTP(sr, r)

			id := ""
			if resourceIDParam != "" {
				id = chi.URLParam(r, resourceIDParam)
			}
			if err := rec.Service.Record(r.Context(), r, resourceType, id, sr.Status()); err != nil {
				rec.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("audit record failed")
			}
		})
	}
}
