package order

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Service exposes order history and status changes.
type Service struct {
	Repo   Repository
	Logger zerolog.Logger
}

// List returns a page of the user's orders and the total count.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Order, int, error) {
	total, err := s.Repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Order{}, 0, nil
	}
	orders, err := s.Repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Recent returns the user's latest orders.
func (s *Service) Recent(ctx context.Context, userID string, n int) ([]Order, error) {
	return s.Repo.ListByUser(ctx, userID, n, 0)
}

// Get loads one of the user's orders.
func (s *Service) Get(ctx context.Context, userID, number string) (Order, error) {
	if userID == "" {
		return Order{}, ErrNotFound
	}
	return s.Repo.GetByNumber(ctx, userID, number)
}

// Cancel cancels a pending order placed by the user.
func (s *Service) Cancel(ctx context.Context, userID, number string) (Order, error) {
	o, err := s.Get(ctx, userID, number)
	if err != nil {
		return Order{}, err
	}
	if !o.Cancellable() {
		return Order{}, ErrInvalidTransition
	}
	if err := s.Repo.UpdateStatus(ctx, number, o.Status, StatusCancelled); err != nil {
		return Order{}, err
	}
	s.Logger.Info().Str("order_number", number).Str("user_id", userID).Msg("order cancelled by customer")
	o.Status = StatusCancelled
	return o, nil
}

// SetStatus moves any order forward, or to cancelled, on behalf of staff.
func (s *Service) SetStatus(ctx context.Context, number string, to Status) (Order, error) {
	if !to.Valid() {
		return Order{}, ErrInvalidStatus
	}
	o, err := s.Repo.GetByNumber(ctx, "", number)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(o.Status, to) {
		return Order{}, ErrInvalidTransition
	}
	if err := s.Repo.UpdateStatus(ctx, number, o.Status, to); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			s.Logger.Warn().Str("order_number", number).Msg("order status changed concurrently")
		}
		return Order{}, err
	}
	s.Logger.Info().Str("order_number", number).Str("from", string(o.Status)).Str("to", string(to)).Msg("order status updated")
	o.Status = to
	return o, nil
}
