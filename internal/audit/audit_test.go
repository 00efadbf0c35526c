package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pcnexus-api/internal/common"
)

type memStore struct {
	entries []Entry
	err     error
}

func (m *memStore) Insert(_ context.Context, e Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) List(_ context.Context, limit, offset int) ([]Entry, int64, error) {
	if offset >= len(m.entries) {
		return []Entry{}, int64(len(m.entries)), nil
	}
	end := offset + limit
	if end > len(m.entries) {
		end = len(m.entries)
	}
	return m.entries[offset:end], int64(len(m.entries)), nil
}

var fixed = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func adminRouter(store *memStore) http.Handler {
	rec := Recorder{Service: Service{Store: store, Now: func() time.Time { return fixed }}, Logger: zerolog.Nop()}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(common.WithUserID(req.Context(), "4b1c2f1e-8f8a-4f0e-9a55-3cbe8a1f2d11")))
		})
	})
	r.Route("/api/v1/admin", func(admin chi.Router) {
		admin.With(rec.Middleware("", "number")).Patch("/orders/{number}/status", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})
		admin.With(rec.Middleware("locations", "")).Get("/locations", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func TestRecorderCapturesAdminChange(t *testing.T) {
	store := &memStore{}
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/AB12CD34/status", nil)
	req.Header.Set("X-Request-ID", "req-1")
	req.RemoteAddr = "10.0.0.2:5000"
	rr := httptest.NewRecorder()

	adminRouter(store).ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, store.entries, 1)
	e := store.entries[0]
	require.Equal(t, "PATCH /api/v1/admin/orders/{number}/status", e.Action)
	require.Equal(t, "admin.orders", e.ResourceType)
	require.Equal(t, "AB12CD34", e.ResourceID)
	require.Equal(t, http.StatusAccepted, e.Status)
	require.Equal(t, "10.0.0.2", e.IP)
	require.Equal(t, "req-1", e.RequestID)
	require.Equal(t, "4b1c2f1e-8f8a-4f0e-9a55-3cbe8a1f2d11", e.ActorUserID)
	require.Equal(t, fixed, e.CreatedAt)
}

func TestRecorderSkipsReads(t *testing.T) {
	store := &memStore{}
	rr := httptest.NewRecorder()
	adminRouter(store).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/locations", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, store.entries)
}

func TestRecorderStoreFailureDoesNotAffectResponse(t *testing.T) {
	store := &memStore{err: errors.New("db down")}
	rr := httptest.NewRecorder()
	adminRouter(store).ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/X/status", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
}

func TestResourceOf(t *testing.T) {
	require.Equal(t, "admin.locations", resourceOf("", "/api/v1/admin/locations/{id}"))
	require.Equal(t, "orders", resourceOf("orders", "/whatever"))
	require.Equal(t, "unknown", resourceOf("", "/"))
}

func TestHandlerListPaginates(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 3; i++ {
		store.entries = append(store.entries, Entry{ID: string(rune('a' + i)), Action: "PATCH /x"})
	}
	h := Handler{Service: Service{Store: store}, Logger: zerolog.Nop()}
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/admin/audit-logs?page=2&limit=2", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data       []Entry           `json:"data"`
		Pagination common.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "c", body.Data[0].ID)
	require.Equal(t, 2, body.Pagination.TotalPages)
}
