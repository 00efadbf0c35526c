// Package checkout turns a cart into a placed order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pcnexus-api/internal/cart"
	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/location"
	"github.com/noah-isme/pcnexus-api/internal/notify"
	"github.com/noah-isme/pcnexus-api/internal/obs"
	"github.com/noah-isme/pcnexus-api/internal/order"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

// ErrItemsUnavailable is returned when cart products can no longer be sold.
var ErrItemsUnavailable = errors.New("some cart items are no longer available")

// UnavailableError lists the products dropped while repricing the cart.
type UnavailableError struct {
	Names []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrItemsUnavailable, strings.Join(e.Names, ", "))
}

func (e *UnavailableError) Unwrap() error { return ErrItemsUnavailable }

// InsufficientStockError lists cart lines that ask for more than is in stock.
type InsufficientStockError struct {
	Items []cart.Shortage
}

func (e *InsufficientStockError) Error() string {
	names := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		names = append(names, fmt.Sprintf("%s (%d available)", it.Name, it.Available))
	}
	return fmt.Sprintf("%s: %s", cart.ErrOutOfStock, strings.Join(names, ", "))
}

func (e *InsufficientStockError) Unwrap() error { return cart.ErrOutOfStock }

// Input is the checkout form.
type Input struct {
	CartID        string `json:"cartId" validate:"required,uuid"`
	CustomerName  string `json:"customerName" validate:"required,max=200"`
	CustomerEmail string `json:"customerEmail" validate:"required,email,max=254"`
	CustomerPhone string `json:"customerPhone" validate:"required,min=6,max=20"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,payment"`
	Division      string `json:"division" validate:"required,division"`
	District      string `json:"district" validate:"required,max=50"`
	Upazila       string `json:"upazila" validate:"required,max=50"`
	Address       string `json:"address" validate:"required,max=500"`
	PostalCode    string `json:"postalCode" validate:"omitempty,max=10"`
}

func (in Input) destination() pricing.Destination {
	return pricing.Destination{Division: in.Division, District: in.District, Upazila: in.Upazila}
}

func (in *Input) normalize() {
	in.CartID = strings.TrimSpace(in.CartID)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if in.PaymentMethod == "" {
		in.PaymentMethod = string(order.PaymentCOD)
	}
	in.Division = strings.ToLower(strings.TrimSpace(in.Division))
	in.District = strings.TrimSpace(in.District)
	in.Upazila = strings.TrimSpace(in.Upazila)
	in.Address = strings.TrimSpace(in.Address)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
}

// Placer persists a new order and removes the cart it came from in one unit.
type Placer interface {
	Place(ctx context.Context, o order.Order, cartID string) error
}

// Notifier is told about every placed order.
type Notifier interface {
	OrderPlaced(ctx context.Context, msg notify.OrderConfirmation) error
}

// Config wires a Service.
type Config struct {
	Carts      *cart.Service
	Calculator pricing.Calculator
	Store      Placer
	Notifier   Notifier
	Logger     zerolog.Logger
	Currency   string
	Now        func() time.Time
}

// Service places orders.
type Service struct {
	carts    *cart.Service
	calc     pricing.Calculator
	store    Placer
	notifier Notifier
	logger   zerolog.Logger
	currency string
	now      func() time.Time
	validate *validator.Validate
}

// NewService builds a checkout service.
func NewService(cfg Config) *Service {
	v := common.NewValidator()
	_ = v.RegisterValidation("division", location.DivisionRule)
	_ = v.RegisterValidation("payment", func(fl validator.FieldLevel) bool {
		return order.PaymentMethod(fl.Field().String()).Valid()
	})
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		carts:    cfg.Carts,
		calc:     cfg.Calculator,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		currency: cfg.Currency,
		now:      now,
		validate: v,
	}
}

// Quote prices the cart for dest without placing an order.
func (s *Service) Quote(ctx context.Context, cartID string, dest pricing.Destination) (pricing.OrderPricing, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return pricing.OrderPricing{}, err
	}
	if err := cart.Authorize(ctx, c); err != nil {
		return pricing.OrderPricing{}, err
	}
	c, _, err = s.carts.Reprice(ctx, c)
	if err != nil {
		return pricing.OrderPricing{}, err
	}
	if c.Empty() {
		return pricing.OrderPricing{}, &pricing.EmptyCartError{CartID: cartID}
	}
	return s.calc.Price(ctx, c.PricingLines(), dest)
}

// Place validates in, prices the cart against current catalog prices and
// stores the order. The cart is deleted once the order is stored.
func (s *Service) Place(ctx context.Context, userID string, in Input) (order.Order, error) {
	if userID == "" {
		return order.Order{}, common.NewAppError("UNAUTHORIZED", "login required to checkout", http.StatusUnauthorized, nil)
	}
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		obs.RecordCheckout("invalid")
		return order.Order{}, common.ValidationFailed("invalid checkout details", err)
	}
	ctx = common.WithUserID(ctx, userID)

	var placed order.Order
	err := s.carts.WithCartLock(ctx, in.CartID, func(ctx context.Context) error {
		c, err := s.carts.Get(ctx, in.CartID)
		if err != nil {
			return err
		}
		if c.UserID != "" && c.UserID != userID {
			return cart.ErrForbidden
		}
		if c.Empty() {
			return &pricing.EmptyCartError{CartID: c.ID}
		}
		c, avail, err := s.carts.Reprice(ctx, c)
		if err != nil {
			return err
		}
		if len(avail.Unavailable) > 0 {
			return &UnavailableError{Names: avail.Unavailable}
		}
		if len(avail.Short) > 0 {
			return &InsufficientStockError{Items: avail.Short}
		}
		quote, err := s.calc.Price(ctx, c.PricingLines(), in.destination())
		if err != nil {
			return err
		}
		o := s.buildOrder(userID, in, c, quote)
		for attempt := 0; ; attempt++ {
			err = s.store.Place(ctx, o, c.ID)
			if !errors.Is(err, order.ErrDuplicateNumber) || attempt == 2 {
				break
			}
			o.Number = order.NewNumber()
		}
		if err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		placed = o
		return nil
	})
	if err != nil {
		obs.RecordCheckout(outcome(err))
		return order.Order{}, err
	}

	obs.RecordCheckout("placed")
	obs.RecordOrderValue(placed.Total.InexactFloat64())
	s.logger.Info().
		Str("order_number", placed.Number).
		Str("user_id", userID).
		Str("total", placed.Total.StringFixed(2)).
		Str("payment_method", string(placed.PaymentMethod)).
		Msg("order placed")

	if s.notifier != nil {
		msg := notify.OrderConfirmation{
			OrderNumber:   placed.Number,
			CustomerName:  placed.Customer.Name,
			Email:         placed.Customer.Email,
			Total:         placed.Total.StringFixed(2),
			Currency:      s.currency,
			PaymentMethod: string(placed.PaymentMethod),
			DeliveryTime:  placed.DeliveryTime,
			ItemCount:     placed.ItemCount(),
			PlacedAt:      placed.CreatedAt,
		}
		if err := s.notifier.OrderPlaced(ctx, msg); err != nil {
			s.logger.Warn().Err(err).Str("order_number", placed.Number).Msg("enqueue order confirmation")
		}
	}
	return placed, nil
}

func (s *Service) buildOrder(userID string, in Input, c cart.Cart, quote pricing.OrderPricing) order.Order {
	now := s.now().UTC()
	items := make([]order.Item, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, order.Item{
			ID:          uuid.NewString(),
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Qty:         l.Qty,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.Total(),
		})
	}
	return order.Order{
		ID:     uuid.NewString(),
		Number: order.NewNumber(),
		UserID: userID,
		Customer: order.Customer{
			Name:  in.CustomerName,
			Email: in.CustomerEmail,
			Phone: in.CustomerPhone,
		},
		Address: order.Address{
			Division:   in.Division,
			District:   in.District,
			Upazila:    in.Upazila,
			Address:    in.Address,
			PostalCode: in.PostalCode,
		},
		Subtotal:      quote.Subtotal,
		Shipping:      quote.Shipping,
		Tax:           quote.Tax,
		Total:         quote.Total,
		DeliveryTime:  quote.DeliveryTime,
		PaymentMethod: order.PaymentMethod(in.PaymentMethod),
		Status:        order.StatusPending,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func outcome(err error) string {
	switch {
	case pricing.IsEmptyCart(err):
		return "empty_cart"
	case errors.Is(err, ErrItemsUnavailable):
		return "unavailable"
	case errors.Is(err, cart.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, cart.ErrNotFound), errors.Is(err, cart.ErrForbidden):
		return "rejected"
	default:
		return "error"
	}
}
