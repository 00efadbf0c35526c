package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in taka.
type Money = decimal.Decimal

// CurrencyPlaces is the number of minor-unit digits (poisha) kept on stored amounts.
const CurrencyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Line is a single priced cart line.
type Line struct {
	ProductID string
	UnitPrice Money
	Qty       int
}

// Total returns UnitPrice × Qty.
func (l Line) Total() Money {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Destination identifies a shipping destination by division, district and upazila.
type Destination struct {
	Division string `json:"division"`
	District string `json:"district"`
	Upazila  string `json:"upazila"`
}

// Normalize lower-cases and trims every component.
func (d Destination) Normalize() Destination {
	return Destination{
		Division: strings.ToLower(strings.TrimSpace(d.Division)),
		District: strings.ToLower(strings.TrimSpace(d.District)),
		Upazila:  strings.ToLower(strings.TrimSpace(d.Upazila)),
	}
}

// Complete reports whether all three components are present.
func (d Destination) Complete() bool {
	n := d.Normalize()
	return n.Division != "" && n.District != "" && n.Upazila != ""
}

// Rate is a shipping price and delivery estimate for a destination.
type Rate struct {
	ShippingCost Money  `json:"shippingCost"`
	DeliveryTime string `json:"deliveryTime"`
}

// RateTable resolves shipping rates. A miss is reported with ok=false, not an error.
type RateTable interface {
	Lookup(ctx context.Context, dest Destination) (rate Rate, ok bool, err error)
}

// OrderPricing is the computed breakdown attached to an order.
type OrderPricing struct {
	Subtotal        Money  `json:"subtotal"`
	Shipping        Money  `json:"shipping"`
	Tax             Money  `json:"tax"`
	Total           Money  `json:"total"`
	TaxRate         Money  `json:"taxRate"`
	DeliveryTime    string `json:"deliveryTime,omitempty"`
	DefaultShipping bool   `json:"defaultShipping"`
}

// Calculator prices carts against a rate table.
type Calculator struct {
	// TaxRate is a fraction, e.g. 0.15 for 15% VAT.
	TaxRate             Money
	DefaultShipping     Money
	DefaultDeliveryTime string
	Rates               RateTable
}

// NewCalculator builds a Calculator from a VAT percentage and default shipping cost.
func NewCalculator(vatPercent, defaultShipping Money, defaultETA string, rates RateTable) Calculator {
	return Calculator{
		TaxRate:             vatPercent.Div(hundred),
		DefaultShipping:     defaultShipping,
		DefaultDeliveryTime: defaultETA,
		Rates:               rates,
	}
}

// Subtotal sums the line totals.
func Subtotal(lines []Line) Money {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}
	return subtotal
}

// Price computes the order breakdown for lines shipped to dest.
func (c Calculator) Price(ctx context.Context, lines []Line, dest Destination) (OrderPricing, error) {
	if len(lines) == 0 {
		return OrderPricing{}, &EmptyCartError{}
	}
	for _, l := range lines {
		if err := ValidateQuantity(l.Qty); err != nil {
			return OrderPricing{}, err
		}
	}
	if !dest.Complete() {
		return OrderPricing{}, ErrDestinationRequired
	}
	rate, matched, err := c.lookup(ctx, dest)
	if err != nil {
		return OrderPricing{}, fmt.Errorf("lookup shipping rate: %w", err)
	}
	return c.compute(Subtotal(lines), rate, !matched), nil
}

// Preview prices lines with the default shipping rate, as shown on the cart page.
// An empty cart yields a zero subtotal with default shipping rather than an error.
func (c Calculator) Preview(lines []Line) OrderPricing {
	rate := Rate{ShippingCost: c.DefaultShipping, DeliveryTime: c.DefaultDeliveryTime}
	valid := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Qty > 0 {
			valid = append(valid, l)
		}
	}
	return c.compute(Subtotal(valid), rate, true)
}

func (c Calculator) lookup(ctx context.Context, dest Destination) (Rate, bool, error) {
	fallback := Rate{ShippingCost: c.DefaultShipping, DeliveryTime: c.DefaultDeliveryTime}
	if c.Rates == nil {
		return fallback, false, nil
	}
	rate, ok, err := c.Rates.Lookup(ctx, dest.Normalize())
	if err != nil {
		return Rate{}, false, err
	}
	if !ok {
		return fallback, false, nil
	}
	if rate.DeliveryTime == "" {
		rate.DeliveryTime = c.DefaultDeliveryTime
	}
	return rate, true, nil
}

func (c Calculator) compute(subtotal Money, rate Rate, usedDefault bool) OrderPricing {
	shipping := rate.ShippingCost
	tax := c.TaxRate.Mul(subtotal.Add(shipping)).Round(CurrencyPlaces)
	return OrderPricing{
		Subtotal:        subtotal,
		Shipping:        shipping,
		Tax:             tax,
		Total:           subtotal.Add(shipping).Add(tax),
		TaxRate:         c.TaxRate,
		DeliveryTime:    rate.DeliveryTime,
		DefaultShipping: usedDefault,
	}
}
