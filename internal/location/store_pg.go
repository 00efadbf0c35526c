package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/pcnexus-api/internal/db"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

// Store is the persistence contract for the rate table.
type Store interface {
	Get(ctx context.Context, dest pricing.Destination) (Location, error)
	List(ctx context.Context, division string) ([]Location, error)
	Upsert(ctx context.Context, loc Location) (Location, error)
	Delete(ctx context.Context, id string) error
}

// PGStore implements Store on Postgres.
type PGStore struct {
	DB db.Querier
}

const locationColumns = `id, division, district, upazila, shipping_cost, delivery_time`

func scanLocation(row pgx.Row) (Location, error) {
	var (
		loc Location
		id  uuid.UUID
	)
	if err := row.Scan(&id, &loc.Division, &loc.District, &loc.Upazila, &loc.ShippingCost, &loc.DeliveryTime); err != nil {
		return Location{}, err
	}
	loc.ID = id.String()
	return loc, nil
}

// Get matches a destination case-insensitively.
func (s PGStore) Get(ctx context.Context, dest pricing.Destination) (Location, error) {
	d := dest.Normalize()
	row := s.DB.QueryRow(ctx, `SELECT `+locationColumns+` FROM bangladesh_locations
		WHERE lower(division) = $1 AND lower(district) = $2 AND lower(upazila) = $3`,
		d.Division, d.District, d.Upazila)
	loc, err := scanLocation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, ErrNotFound
	}
	if err != nil {
		return Location{}, fmt.Errorf("get location: %w", err)
	}
	return loc, nil
}

// List returns every row, optionally restricted to one division.
func (s PGStore) List(ctx context.Context, division string) ([]Location, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+locationColumns+` FROM bangladesh_locations
		WHERE ($1 = '' OR lower(division) = lower($1))
		ORDER BY division, district, upazila`, division)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// Upsert inserts a row or updates the rate of an existing destination.
func (s PGStore) Upsert(ctx context.Context, loc Location) (Location, error) {
	id := uuid.New()
	if loc.ID != "" {
		parsed, err := uuid.Parse(loc.ID)
		if err != nil {
			return Location{}, fmt.Errorf("location id: %w", err)
		}
		id = parsed
	}
	row := s.DB.QueryRow(ctx, `INSERT INTO bangladesh_locations (id, division, district, upazila, shipping_cost, delivery_time)
		VALUES ($1, lower($2), $3, $4, $5, $6)
		ON CONFLICT ((lower(division)), (lower(district)), (lower(upazila)))
		DO UPDATE SET shipping_cost = EXCLUDED.shipping_cost, delivery_time = EXCLUDED.delivery_time
		RETURNING `+locationColumns,
		id, loc.Division, loc.District, loc.Upazila, loc.ShippingCost, loc.DeliveryTime)
	saved, err := scanLocation(row)
	if err != nil {
		return Location{}, fmt.Errorf("upsert location: %w", err)
	}
	return saved, nil
}

// Delete removes a row by id.
func (s PGStore) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.DB.Exec(ctx, `DELETE FROM bangladesh_locations WHERE id = $1`, parsed)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
