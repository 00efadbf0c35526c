// Package order holds placed orders. Totals are stored at placement and never
// recomputed from the catalog.
package order

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the order does not exist or belongs to someone else.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("unsupported order status")
	// ErrInvalidTransition is returned when an order cannot move to the requested status.
	ErrInvalidTransition = errors.New("order status transition not allowed")
)

// Status tracks fulfilment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusConfirmed:
		return 1
	case StatusProcessing:
		return 2
	case StatusShipped:
		return 3
	case StatusDelivered:
		return 4
	case StatusCancelled:
		return -1
	default:
		return -2
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s.rank() > -2
}

// CanTransition reports whether an order in from may move to to. Statuses only
// move forward; cancellation is possible until the order is delivered.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() || from == StatusCancelled || from == StatusDelivered {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return to.rank() > from.rank()
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentBKash  PaymentMethod = "bkash"
	PaymentNagad  PaymentMethod = "nagad"
	PaymentRocket PaymentMethod = "rocket"
	PaymentCard   PaymentMethod = "card"
	PaymentBank   PaymentMethod = "bank"
)

// PaymentOption pairs a method with its display label.
type PaymentOption struct {
	Method PaymentMethod `json:"method"`
	Label  string        `json:"label"`
}

// PaymentOptions lists the accepted payment methods in display order.
var PaymentOptions = []PaymentOption{
	{PaymentCOD, "Cash on Delivery"},
	{PaymentBKash, "bKash"},
	{PaymentNagad, "Nagad"},
	{PaymentRocket, "Rocket"},
	{PaymentCard, "Credit/Debit Card"},
	{PaymentBank, "Bank Transfer"},
}

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	for _, opt := range PaymentOptions {
		if opt.Method == m {
			return true
		}
	}
	return false
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Address struct {
	Division   string `json:"division"`
	District   string `json:"district"`
	Upazila    string `json:"upazila"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Item is a product line captured at placement. ProductID is empty once the
// product has been deleted from the catalog.
type Item struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId,omitempty"`
	ProductName string          `json:"productName"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type Order struct {
	ID            string          `json:"id"`
	Number        string          `json:"orderNumber"`
	UserID        string          `json:"userId,omitempty"`
	Customer      Customer        `json:"customer"`
	Address       Address         `json:"shippingAddress"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Shipping      decimal.Decimal `json:"shippingCost"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	DeliveryTime  string          `json:"deliveryTime"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	PaymentStatus bool            `json:"paymentStatus"`
	Status        Status          `json:"status"`
	Items         []Item          `json:"items"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ItemCount sums item quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Qty
	}
	return n
}

// Cancellable reports whether the customer may still cancel the order.
func (o Order) Cancellable() bool {
	return o.Status == StatusPending
}

// NewNumber returns a short human-facing order number.
func NewNumber() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
