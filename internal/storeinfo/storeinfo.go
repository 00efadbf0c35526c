// Package storeinfo serves the static store context the storefront renders on every page.
package storeinfo

import (
	"net/http"

	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/location"
	"github.com/noah-isme/pcnexus-api/internal/order"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

// Info is the body of GET /api/v1/store.
type Info struct {
	Name                string                `json:"name"`
	CurrencyCode        string                `json:"currencyCode"`
	CurrencySymbol      string                `json:"currencySymbol"`
	VATPercent          string                `json:"vatPercent"`
	DefaultShipping     string                `json:"defaultShippingCost"`
	DefaultDeliveryTime string                `json:"defaultDeliveryTime"`
	Divisions           []location.Division   `json:"divisions"`
	PaymentMethods      []order.PaymentOption `json:"paymentMethods"`
	Stores              []Store               `json:"stores"`
}

// Store is a physical branch customers can visit or pick up from.
type Store struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Phone    string   `json:"phone"`
	Hours    string   `json:"hours"`
	Services []string `json:"services"`
}

// Stores lists the physical branches.
var Stores = []Store{
	{
		Name:     "PC Nexus Banani",
		Address:  "Level 5, House 10, Road 12, Block C, Banani, Dhaka",
		Phone:    "+880 9611-111111",
		Hours:    "10:00 AM - 8:00 PM (Sat-Thu)",
		Services: []string{"Pickup", "Service Center", "Demo Unit"},
	},
	{
		Name:     "PC Nexus Dhanmondi",
		Address:  "House 15, Road 8/A, Dhanmondi, Dhaka",
		Phone:    "+880 9611-111112",
		Hours:    "10:00 AM - 8:00 PM (Sat-Thu)",
		Services: []string{"Pickup", "Service Center"},
	},
	{
		Name:     "PC Nexus Chittagong",
		Address:  "Shop 5-6, Tower Plaza, GEC Circle, Chittagong",
		Phone:    "+880 9611-111113",
		Hours:    "10:00 AM - 8:00 PM (Sat-Thu)",
		Services: []string{"Pickup", "Service Center"},
	},
}

// New derives the store context from the calculator so the advertised VAT and
// shipping always match what checkout charges.
func New(name, currencyCode, currencySymbol string, calc pricing.Calculator) Info {
	return Info{
		Name:                name,
		CurrencyCode:        currencyCode,
		CurrencySymbol:      currencySymbol,
		VATPercent:          calc.TaxRate.Shift(2).String(),
		DefaultShipping:     calc.DefaultShipping.StringFixed(2),
		DefaultDeliveryTime: calc.DefaultDeliveryTime,
		Divisions:           location.Divisions,
		PaymentMethods:      order.PaymentOptions,
		Stores:              Stores,
	}
}

// Handler returns an http.HandlerFunc that writes info.
func Handler(info Info) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		common.JSON(w, http.StatusOK, map[string]any{"data": info})
	}
}

// StoresHandler serves the branch list on its own for the store locator page.
func StoresHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	common.JSON(w, http.StatusOK, map[string]any{"data": Stores})
}
