package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pcnexus-api/internal/cart"
	"github.com/noah-isme/pcnexus-api/internal/catalog"
	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/notify"
	"github.com/noah-isme/pcnexus-api/internal/order"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

type memCarts struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

func (m *memCarts) Get(_ context.Context, id string) (cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return cart.Cart{}, cart.ErrNotFound
	}
	c.Lines = append([]cart.Line{}, c.Lines...)
	return c, nil
}

func (m *memCarts) FindActive(context.Context, cart.Owner) (cart.Cart, error) {
	return cart.Cart{}, cart.ErrNotFound
}

func (m *memCarts) Save(_ context.Context, c cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.ID] = c
	return nil
}

func (m *memCarts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, id)
	return nil
}

type products map[string]catalog.Product

func (p products) ProductForCart(_ context.Context, id string) (catalog.Product, error) {
	prod, ok := p[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if !prod.IsAvailable {
		return catalog.Product{}, catalog.ErrUnavailable
	}
	return prod, nil
}

type memPlacer struct {
	carts  *memCarts
	orders map[string]order.Order
	fail   error
	dupes  int
}

func (m *memPlacer) Place(ctx context.Context, o order.Order, cartID string) error {
	if m.fail != nil {
		return m.fail
	}
	if m.dupes > 0 {
		m.dupes--
		return order.ErrDuplicateNumber
	}
	m.orders[o.Number] = o
	return m.carts.Delete(ctx, cartID)
}

type recordingNotifier struct {
	msgs []notify.OrderConfirmation
}

func (r *recordingNotifier) OrderPlaced(_ context.Context, msg notify.OrderConfirmation) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

type rates map[pricing.Destination]pricing.Rate

func (r rates) Lookup(_ context.Context, d pricing.Destination) (pricing.Rate, bool, error) {
	rate, ok := r[d]
	return rate, ok, nil
}

type fixture struct {
	svc      *Service
	carts    *memCarts
	products products
	placer   *memPlacer
	notifier *recordingNotifier
	cartID   string
}

const (
	ssdID = "11111111-1111-1111-1111-111111111111"
	ramID = "22222222-2222-2222-2222-222222222222"
)

func newFixture(t *testing.T, owner string) *fixture {
	t.Helper()
	carts := &memCarts{carts: map[string]cart.Cart{}}
	prods := products{
		ssdID: {ID: ssdID, Name: "Samsung 980 1TB", PriceBDT: decimal.NewFromInt(100), StockQuantity: 10, IsAvailable: true},
		ramID: {ID: ramID, Name: "Corsair 16GB", PriceBDT: decimal.NewFromInt(50), StockQuantity: 10, IsAvailable: true},
	}
	calc := pricing.NewCalculator(decimal.NewFromInt(15), decimal.NewFromInt(120), "3-5 business days", rates{
		{Division: "dhaka", District: "dhaka", Upazila: "gulshan"}: {ShippingCost: decimal.NewFromInt(60), DeliveryTime: "1-2 business days"},
	})
	cartSvc := &cart.Service{Repo: carts, Products: prods, Calculator: calc, TTL: time.Hour}
	placer := &memPlacer{carts: carts, orders: map[string]order.Order{}}
	notifier := &recordingNotifier{}
	svc := NewService(Config{
		Carts:      cartSvc,
		Calculator: calc,
		Store:      placer,
		Notifier:   notifier,
		Logger:     zerolog.Nop(),
		Currency:   "BDT",
	})

	now := time.Now().UTC()
	c := cart.Cart{
		ID:        uuid.NewString(),
		UserID:    owner,
		AnonID:    "anon",
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(time.Hour),
		Lines: []cart.Line{
			{ID: uuid.NewString(), ProductID: ssdID, Name: "Samsung 980 1TB", UnitPrice: decimal.NewFromInt(100), Qty: 2},
			{ID: uuid.NewString(), ProductID: ramID, Name: "Corsair 16GB", UnitPrice: decimal.NewFromInt(50), Qty: 1},
		},
	}
	require.NoError(t, carts.Save(context.Background(), c))
	return &fixture{svc: svc, carts: carts, products: prods, placer: placer, notifier: notifier, cartID: c.ID}
}

func validInput(cartID string) Input {
	return Input{
		CartID:        cartID,
		CustomerName:  "Rahim Uddin",
		CustomerEmail: "Rahim@Example.com",
		CustomerPhone: "01711000000",
		Division:      "Chittagong",
		District:      "Cox's Bazar",
		Upazila:       "Teknaf",
		Address:       "House 4, Main Road",
	}
}

func TestPlaceUsesDefaultShippingForUnknownDestination(t *testing.T) {
	f := newFixture(t, "")
	o, err := f.svc.Place(context.Background(), "user-1", validInput(f.cartID))
	require.NoError(t, err)

	require.Equal(t, "250", o.Subtotal.String())
	require.Equal(t, "120", o.Shipping.String())
	require.Equal(t, "55.5", o.Tax.String())
	require.Equal(t, "425.5", o.Total.String())
	require.Equal(t, "3-5 business days", o.DeliveryTime)
	require.Equal(t, order.PaymentCOD, o.PaymentMethod)
	require.Equal(t, order.StatusPending, o.Status)
	require.Equal(t, "user-1", o.UserID)
	require.Equal(t, "rahim@example.com", o.Customer.Email)
	require.Len(t, o.Number, 8)
	require.Len(t, o.Items, 2)

	_, err = f.carts.Get(context.Background(), f.cartID)
	require.ErrorIs(t, err, cart.ErrNotFound)
	require.Len(t, f.notifier.msgs, 1)
	require.Equal(t, "425.50", f.notifier.msgs[0].Total)
}

func TestPlaceUsesMatchedRate(t *testing.T) {
	f := newFixture(t, "user-1")
	in := validInput(f.cartID)
	in.Division, in.District, in.Upazila = "Dhaka", "Dhaka", "Gulshan"
	in.PaymentMethod = "bKash"

	o, err := f.svc.Place(context.Background(), "user-1", in)
	require.NoError(t, err)
	require.Equal(t, "60", o.Shipping.String())
	require.Equal(t, "46.5", o.Tax.String())
	require.Equal(t, "356.5", o.Total.String())
	require.Equal(t, order.PaymentBKash, o.PaymentMethod)
	require.Equal(t, "1-2 business days", o.DeliveryTime)
}

func TestPlaceSnapshotsCurrentPricesAndKeepsStoredTotals(t *testing.T) {
	f := newFixture(t, "")
	ssd := f.products[ssdID]
	ssd.PriceBDT = decimal.NewFromInt(90)
	f.products[ssdID] = ssd

	o, err := f.svc.Place(context.Background(), "user-1", validInput(f.cartID))
	require.NoError(t, err)
	require.Equal(t, "230", o.Subtotal.String())

	ssd.PriceBDT = decimal.NewFromInt(500)
	f.products[ssdID] = ssd

	stored := f.placer.orders[o.Number]
	require.Equal(t, "230", stored.Subtotal.String())
	require.True(t, stored.Total.Equal(o.Total))
	require.True(t, stored.Items[0].UnitPrice.Equal(decimal.NewFromInt(90)))
}

func TestPlaceRejectsEmptyCart(t *testing.T) {
	f := newFixture(t, "")
	c, err := f.carts.Get(context.Background(), f.cartID)
	require.NoError(t, err)
	c.Lines = nil
	require.NoError(t, f.carts.Save(context.Background(), c))

	_, err = f.svc.Place(context.Background(), "user-1", validInput(f.cartID))
	require.True(t, pricing.IsEmptyCart(err))
	require.Empty(t, f.placer.orders)
	require.Empty(t, f.notifier.msgs)
}

func TestPlaceRejectsOthersCart(t *testing.T) {
	f := newFixture(t, "owner")
	_, err := f.svc.Place(context.Background(), "intruder", validInput(f.cartID))
	require.ErrorIs(t, err, cart.ErrForbidden)
}

func TestPlaceRejectsUnavailableProducts(t *testing.T) {
	f := newFixture(t, "")
	ram := f.products[ramID]
	ram.IsAvailable = false
	f.products[ramID] = ram

	_, err := f.svc.Place(context.Background(), "user-1", validInput(f.cartID))
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, []string{"Corsair 16GB"}, unavailable.Names)
	_, err = f.carts.Get(context.Background(), f.cartID)
	require.NoError(t, err)
}

func TestPlaceRejectsQuantityAboveStock(t *testing.T) {
	f := newFixture(t, "")
	ssd := f.products[ssdID]
	ssd.StockQuantity = 1
	f.products[ssdID] = ssd

	_, err := f.svc.Place(context.Background(), "user-1", validInput(f.cartID))
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	require.ErrorIs(t, err, cart.ErrOutOfStock)
	require.Equal(t, []cart.Shortage{{Name: "Samsung 980 1TB", Requested: 2, Available: 1}}, short.Items)
	require.Empty(t, f.placer.orders)
	_, err = f.carts.Get(context.Background(), f.cartID)
	require.NoError(t, err)
}

func TestPlaceRejectsSoldOutProductStillListed(t *testing.T) {
	f := newFixture(t, "")
	ram := f.products[ramID]
	ram.StockQuantity = 0
	f.products[ramID] = ram

	_, err := f.svc.Place(context.Background(), "user-1", validInput(f.cartID))
	rec := httptest.NewRecorder()
	writeError(rec, err)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), `"OUT_OF_STOCK"`)
	require.Empty(t, f.placer.orders)
}

func TestPlaceValidatesInput(t *testing.T) {
	f := newFixture(t, "")
	in := validInput(f.cartID)
	in.Division = "atlantis"
	in.CustomerEmail = "nope"
	in.PaymentMethod = "paypal"

	_, err := f.svc.Place(context.Background(), "user-1", in)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	require.Equal(t, "failed division", details["division"])
	require.Equal(t, "failed email", details["customerEmail"])
	require.Equal(t, "failed payment", details["paymentMethod"])

	_, err = f.svc.Place(context.Background(), "", validInput(f.cartID))
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestPlaceRetriesDuplicateOrderNumber(t *testing.T) {
	f := newFixture(t, "")
	f.placer.dupes = 2
	o, err := f.svc.Place(context.Background(), "user-1", validInput(f.cartID))
	require.NoError(t, err)
	require.Contains(t, f.placer.orders, o.Number)
}

func TestPlaceStoreFailureKeepsCart(t *testing.T) {
	f := newFixture(t, "")
	f.placer.fail = errors.New("db down")
	_, err := f.svc.Place(context.Background(), "user-1", validInput(f.cartID))
	require.Error(t, err)
	_, err = f.carts.Get(context.Background(), f.cartID)
	require.NoError(t, err)
	require.Empty(t, f.notifier.msgs)
}

func TestQuote(t *testing.T) {
	f := newFixture(t, "")
	q, err := f.svc.Quote(context.Background(), f.cartID, pricing.Destination{Division: "DHAKA", District: "Dhaka", Upazila: "gulshan"})
	require.NoError(t, err)
	require.Equal(t, "356.5", q.Total.String())
	require.False(t, q.DefaultShipping)

	_, err = f.svc.Quote(context.Background(), f.cartID, pricing.Destination{Division: "dhaka"})
	require.ErrorIs(t, err, pricing.ErrDestinationRequired)
}

func TestCheckoutHandler(t *testing.T) {
	f := newFixture(t, "")
	h := &Handler{Svc: f.svc}

	body, err := json.Marshal(validInput(f.cartID))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Checkout(rec, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(string(body))))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(string(body)))
	req = req.WithContext(common.WithUserID(req.Context(), "user-1"))
	rec = httptest.NewRecorder()
	h.Checkout(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data struct {
			OrderNumber string `json:"orderNumber"`
			Order       struct {
				Total string `json:"total"`
			} `json:"order"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.OrderNumber, 8)
	require.Equal(t, "425.5", resp.Data.Order.Total)

	req = httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(string(body)))
	req = req.WithContext(common.WithUserID(req.Context(), "user-1"))
	rec = httptest.NewRecorder()
	h.Checkout(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
