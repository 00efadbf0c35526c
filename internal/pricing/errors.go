package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDestinationRequired is returned when a shipping destination is incomplete.
var ErrDestinationRequired = errors.New("pricing: shipping destination is required")

// EmptyCartError reports an attempt to price a cart without lines.
type EmptyCartError struct {
	CartID string
}

func (e *EmptyCartError) Error() string {
	if e.CartID == "" {
		return "pricing: cart is empty"
	}
	return fmt.Sprintf("pricing: cart %s is empty", e.CartID)
}

// InvalidQuantityError reports a quantity below one, or a value that is not an
// integer at all (Raw set).
type InvalidQuantityError struct {
	Qty int
	Raw string
}

func (e *InvalidQuantityError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("pricing: quantity must be a positive integer, got %s", e.Raw)
	}
	return fmt.Sprintf("pricing: quantity must be a positive integer, got %d", e.Qty)
}

// IsEmptyCart reports whether err is or wraps an EmptyCartError.
func IsEmptyCart(err error) bool {
	var target *EmptyCartError
	return errors.As(err, &target)
}

// IsInvalidQuantity reports whether err is or wraps an InvalidQuantityError.
func IsInvalidQuantity(err error) bool {
	var target *InvalidQuantityError
	return errors.As(err, &target)
}

// ValidateQuantity rejects quantities below one.
func ValidateQuantity(qty int) error {
	if qty < 1 {
		return &InvalidQuantityError{Qty: qty}
	}
	return nil
}

// ParseQuantity reads an integer quantity such as a decoded JSON number.
// Range is left to ValidateQuantity.
func ParseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	qty, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &InvalidQuantityError{Raw: raw}
	}
	return qty, nil
}
