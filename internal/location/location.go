// Package location manages the Bangladesh shipping rate table keyed by
// division, district and upazila.
package location

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

// ErrNotFound is returned when a location row does not exist.
var ErrNotFound = errors.New("location: not found")

// Division is one of the eight administrative divisions.
type Division struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Divisions lists the divisions accepted for delivery.
var Divisions = []Division{
	{Code: "dhaka", Name: "Dhaka"},
	{Code: "chittagong", Name: "Chittagong"},
	{Code: "khulna", Name: "Khulna"},
	{Code: "rajshahi", Name: "Rajshahi"},
	{Code: "barisal", Name: "Barisal"},
	{Code: "sylhet", Name: "Sylhet"},
	{Code: "rangpur", Name: "Rangpur"},
	{Code: "mymensingh", Name: "Mymensingh"},
}

// IsDivision reports whether code names a known division.
func IsDivision(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, d := range Divisions {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Location is one row of the shipping rate table.
type Location struct {
	ID           string          `json:"id"`
	Division     string          `json:"division"`
	District     string          `json:"district"`
	Upazila      string          `json:"upazila"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	DeliveryTime string          `json:"deliveryTime"`
}

// Destination returns the pricing destination of the row.
func (l Location) Destination() pricing.Destination {
	return pricing.Destination{Division: l.Division, District: l.District, Upazila: l.Upazila}
}

// Rate returns the pricing rate of the row.
func (l Location) Rate() pricing.Rate {
	return pricing.Rate{ShippingCost: l.ShippingCost, DeliveryTime: l.DeliveryTime}
}

// String renders "upazila, district, division".
func (l Location) String() string {
	return l.Upazila + ", " + l.District + ", " + l.Division
}
