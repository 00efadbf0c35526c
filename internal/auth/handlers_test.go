package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pcnexus-api/internal/common"
)

func newTestRouter(t *testing.T) (http.Handler, *Service, *memStore) {
	t.Helper()
	svc, store, _ := newTestService(t)
	h := &Handler{Service: svc, RefreshCookieName: "refresh_token"}
	mw := Middleware{Service: svc}

	r := chi.NewRouter()
	r.Post("/api/v1/auth/register", h.Register)
	r.Post("/api/v1/auth/login", h.Login)
	r.Post("/api/v1/auth/refresh", h.Refresh)
	r.Post("/api/v1/auth/logout", h.Logout)
	r.With(mw.RequireAuth).Get("/api/v1/auth/me", h.Me)
	r.With(mw.RequireAuth, RequireRole(RoleAdmin)).Get("/admin/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(mw.Authenticate).Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		id, _ := common.UserID(r.Context())
		_, _ = w.Write([]byte(id))
	})
	return r, svc, store
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

type sessionEnvelope struct {
	Data Session `json:"data"`
}

func TestAuthFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/auth/register", `{"username":"karim","email":"karim@example.com","password":"password123"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/auth/login", `{"login":"karim","password":"password123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login sessionEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.AccessToken)
	require.Contains(t, rec.Header().Get("Set-Cookie"), "refresh_token=")

	rec = do(t, router, http.MethodGet, "/api/v1/auth/me", "", bearer(login.Data.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"username":"karim"`)

	cookie := http.Header{"Cookie": []string{"refresh_token=" + login.Data.RefreshToken}}
	rec = do(t, router, http.MethodPost, "/api/v1/auth/refresh", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refreshed sessionEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	require.NotEqual(t, login.Data.RefreshToken, refreshed.Data.RefreshToken)

	rec = do(t, router, http.MethodPost, "/api/v1/auth/logout", `{"refreshToken":"`+refreshed.Data.RefreshToken+`"}`, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")

	rec = do(t, router, http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken":"`+refreshed.Data.RefreshToken+`"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginHandlerErrors(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/auth/login", `{"login":"x","password":"y","extra":1}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/auth/login", `{"login":"x","password":"y"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestRequireAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/auth/me", "", bearer("not-a-jwt"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAuthenticateIsOptional(t *testing.T) {
	router, svc, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/whoami", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/whoami", "", bearer("garbage"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())

	u := register(t, svc)
	sess, err := svc.Login(t.Context(), "rahim", "s3cret-pass")
	require.NoError(t, err)
	rec = do(t, router, http.MethodGet, "/whoami", "", bearer(sess.AccessToken))
	require.Equal(t, u.ID, strings.TrimSpace(rec.Body.String()))
}

func TestRequireRole(t *testing.T) {
	router, svc, store := newTestRouter(t)
	u := register(t, svc)

	sess, err := svc.Login(t.Context(), "rahim", "s3cret-pass")
	require.NoError(t, err)
	rec := do(t, router, http.MethodGet, "/admin/ping", "", bearer(sess.AccessToken))
	require.Equal(t, http.StatusForbidden, rec.Code)

	store.promote(u.ID, RoleAdmin)
	sess, err = svc.Login(t.Context(), "rahim", "s3cret-pass")
	require.NoError(t, err)
	rec = do(t, router, http.MethodGet, "/admin/ping", "", bearer(sess.AccessToken))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
