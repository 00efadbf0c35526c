package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/noah-isme/pcnexus-api/internal/common"
)

// CSRF guards the cookie-authenticated auth routes with a double-submit token:
// the value of Cookie must be echoed in Header. Bearer requests are exempt.
type CSRF struct {
	Header string
	Cookie string
	Secure bool
}

func (c CSRF) names() (header, cookie string) {
	header = strings.TrimSpace(c.Header)
	if header == "" {
		header = "X-CSRF-Token"
	}
	cookie = strings.TrimSpace(c.Cookie)
	if cookie == "" {
		cookie = "csrf_token"
	}
	return header, cookie
}

// Middleware enforces the token on unsafe methods.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName, cookieName := c.names()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimSpace(r.Header.Get(headerName))
		cookie, err := r.Cookie(cookieName)
		if token == "" || err != nil || cookie.Value == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_REQUIRED", "missing csrf token", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF_INVALID", "invalid csrf token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Issue handles GET /api/v1/auth/csrf by setting a fresh token cookie and
// returning the same token for the client to echo.
func (c CSRF) Issue(w http.ResponseWriter, _ *http.Request) {
	_, cookieName := c.names()
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not issue csrf token", nil)
		return
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"csrfToken": token}})
}
