package location

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

// Quote is the shipping price shown before checkout.
type Quote struct {
	Destination     pricing.Destination `json:"destination"`
	ShippingCost    decimal.Decimal     `json:"shippingCost"`
	DeliveryTime    string              `json:"deliveryTime"`
	DefaultShipping bool                `json:"defaultShipping"`
}

// UpsertInput is the admin payload for a rate row.
type UpsertInput struct {
	Division     string          `json:"division" validate:"required,division"`
	District     string          `json:"district" validate:"required,max=50"`
	Upazila      string          `json:"upazila" validate:"required,max=50"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	DeliveryTime string          `json:"deliveryTime" validate:"omitempty,max=50"`
}

// Service exposes rate table reads for shoppers and writes for admins.
type Service struct {
	Store      Store
	Table      *Table
	Calculator pricing.Calculator
	validate   *validator.Validate
}

// DivisionRule is a validator rule accepting the known division codes.
func DivisionRule(fl validator.FieldLevel) bool {
	return IsDivision(fl.Field().String())
}

// NewService wires a Service. The calculator supplies default shipping.
func NewService(store Store, table *Table, calc pricing.Calculator) *Service {
	v := common.NewValidator()
	_ = v.RegisterValidation("division", DivisionRule)
	return &Service{Store: store, Table: table, Calculator: calc, validate: v}
}

// Quote resolves the shipping cost for dest, falling back to the default rate.
func (s *Service) Quote(ctx context.Context, dest pricing.Destination) (Quote, error) {
	if !dest.Complete() {
		return Quote{}, pricing.ErrDestinationRequired
	}
	q := Quote{
		Destination:     dest.Normalize(),
		ShippingCost:    s.Calculator.DefaultShipping,
		DeliveryTime:    s.Calculator.DefaultDeliveryTime,
		DefaultShipping: true,
	}
	rate, ok, err := s.Table.Lookup(ctx, dest)
	if err != nil {
		return Quote{}, err
	}
	if ok {
		q.ShippingCost = rate.ShippingCost
		q.DefaultShipping = false
		if rate.DeliveryTime != "" {
			q.DeliveryTime = rate.DeliveryTime
		}
	}
	return q, nil
}

// List returns rows for a division, or all rows when division is empty.
func (s *Service) List(ctx context.Context, division string) ([]Location, error) {
	division = strings.TrimSpace(division)
	if division != "" && !IsDivision(division) {
		return nil, common.ValidationError("unknown division", map[string]string{"division": division})
	}
	rows, err := s.Store.List(ctx, division)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Location{}
	}
	return rows, nil
}

// Upsert validates and stores a rate row, then invalidates cached rates.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (Location, error) {
	in.Division = strings.ToLower(strings.TrimSpace(in.Division))
	in.District = strings.TrimSpace(in.District)
	in.Upazila = strings.TrimSpace(in.Upazila)
	if err := s.validate.Struct(in); err != nil {
		return Location{}, common.ValidationFailed("invalid location", err)
	}
	if in.ShippingCost.IsNegative() {
		return Location{}, common.ValidationError("invalid location", map[string]string{"shippingCost": "must not be negative"})
	}
	if in.DeliveryTime == "" {
		in.DeliveryTime = s.Calculator.DefaultDeliveryTime
	}
	loc, err := s.Store.Upsert(ctx, Location{
		Division:     in.Division,
		District:     in.District,
		Upazila:      in.Upazila,
		ShippingCost: in.ShippingCost.Round(pricing.CurrencyPlaces),
		DeliveryTime: in.DeliveryTime,
	})
	if err != nil {
		return Location{}, err
	}
	s.Table.Invalidate(ctx)
	return loc, nil
}

// Delete removes a row and invalidates cached rates.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.Table.Invalidate(ctx)
	return nil
}
