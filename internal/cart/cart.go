// Package cart holds shopping carts addressed by explicit cart identifiers.
package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

var (
	// ErrNotFound indicates the requested cart or line could not be located.
	ErrNotFound = errors.New("cart not found")
	// ErrInvalidInput is returned when the provided payload is invalid.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOutOfStock is returned when the requested quantity exceeds stock.
	ErrOutOfStock = errors.New("insufficient stock")
	// ErrOwnerHasCart is returned when saving a second cart for a user.
	ErrOwnerHasCart = errors.New("user already has a cart")
	// ErrForbidden is returned when a cart belongs to another user.
	ErrForbidden = errors.New("cart belongs to another user")
)

// Owner identifies who a cart belongs to. Exactly one field is expected to be set.
type Owner struct {
	UserID string
	AnonID string
}

// Line is one product in a cart with the unit price captured when it was added.
type Line struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Qty       int             `json:"qty"`
	AddedAt   time.Time       `json:"addedAt"`
}

// Total returns UnitPrice × Qty.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart is a set of lines owned by a user or an anonymous visitor.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	AnonID    string    `json:"anonId,omitempty"`
	Lines     []Line    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ItemCount sums line quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Qty
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

// PricingLines converts lines for the pricing calculator.
func (c Cart) PricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, pricing.Line{ProductID: l.ProductID, UnitPrice: l.UnitPrice, Qty: l.Qty})
	}
	return out
}

func (c Cart) lineIndex(lineID string) int {
	for i, l := range c.Lines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}

func (c Cart) productIndex(productID string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
