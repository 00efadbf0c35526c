package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/lock"
)

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/carts", h.Create)
	r.Post("/carts/merge", h.Merge)
	r.Get("/carts/{id}", h.Get)
	r.Delete("/carts/{id}", h.Clear)
	r.Post("/carts/{id}/items", h.AddItem)
	r.Patch("/carts/{id}/items/{itemId}", h.UpdateItem)
	r.Delete("/carts/{id}/items/{itemId}", h.RemoveItem)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type viewEnvelope struct {
	Data struct {
		ID        string `json:"id"`
		ItemCount int    `json:"itemCount"`
		Items     []struct {
			ID  string `json:"id"`
			Qty int    `json:"qty"`
		} `json:"items"`
		Pricing struct {
			Total string `json:"total"`
		} `json:"pricing"`
	} `json:"data"`
	Currency string `json:"currency"`
}

func createCart(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/carts", `{"anonId":"anon-42"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data struct {
			CartID string `json:"cartId"`
			AnonID string `json:"anonId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "anon-42", resp.Data.AnonID)
	return resp.Data.CartID
}

func TestCartHandlersFlow(t *testing.T) {
	svc, _, _, _ := newTestService()
	router := newTestRouter(&Handler{Svc: svc, Currency: "BDT"})
	id := createCart(t, router)

	rec := do(t, router, http.MethodPost, "/carts/"+id+"/items", `{"productId":"ssd","qty":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var view viewEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, 2, view.Data.ItemCount)
	require.Equal(t, "BDT", view.Currency)
	require.Equal(t, "368", view.Data.Pricing.Total)
	lineID := view.Data.Items[0].ID

	rec = do(t, router, http.MethodPatch, "/carts/"+id+"/items/"+lineID, `{"qty":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Empty(t, view.Data.Items)

	rec = do(t, router, http.MethodDelete, "/carts/"+id, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCartHandlersErrors(t *testing.T) {
	svc, _, _, _ := newTestService()
	router := newTestRouter(&Handler{Svc: svc})
	id := createCart(t, router)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"zero quantity", http.MethodPost, "/carts/" + id + "/items", `{"productId":"ssd","qty":0}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"fractional quantity", http.MethodPost, "/carts/" + id + "/items", `{"productId":"ssd","qty":1.5}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"fractional update", http.MethodPatch, "/carts/" + id + "/items/none", `{"qty":2.5}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"missing product id", http.MethodPost, "/carts/" + id + "/items", `{"qty":1}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown product", http.MethodPost, "/carts/" + id + "/items", `{"productId":"nope"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"over stock", http.MethodPost, "/carts/" + id + "/items", `{"productId":"psu","qty":4}`, http.StatusConflict, "OUT_OF_STOCK"},
		{"unknown cart", http.MethodGet, "/carts/missing", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown line", http.MethodDelete, "/carts/" + id + "/items/none", "", http.StatusNotFound, "NOT_FOUND"},
		{"merge anonymous", http.MethodPost, "/carts/merge", `{"cartId":"` + id + `"}`, http.StatusUnauthorized, "UNAUTHORIZED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code)
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestMergeHandler(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := &Handler{Svc: svc}
	router := newTestRouter(h)
	id := createCart(t, router)
	rec := do(t, router, http.MethodPost, "/carts/"+id+"/items", `{"productId":"ram","qty":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/carts/merge", strings.NewReader(`{"cartId":"`+id+`"}`))
	req = req.WithContext(common.WithUserID(req.Context(), "user-9"))
	out := httptest.NewRecorder()
	router.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)

	var resp struct {
		Data struct {
			CartID    string `json:"cartId"`
			ItemCount int    `json:"itemCount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &resp))
	require.NotEqual(t, id, resp.Data.CartID)
	require.Equal(t, 3, resp.Data.ItemCount)
}

func TestBusyCartAsksClientToRetry(t *testing.T) {
	rec := httptest.NewRecorder()
	(&Handler{}).writeError(rec, lock.ErrNotAcquired)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), `"CART_BUSY"`)
}
