package service

import (
	"context"

	"tableside/internal/domain"
	"tableside/internal/microservices/ordering/session"
)

const (
	defaultTimelineLimit = 50
	maxTimelineLimit     = 500
)

// GetOpenOrder returns the bound table's open order with its lines.
func (s *OrderService) GetOpenOrder(ctx context.Context, caller session.Caller) (domain.Order, error) {
	b, err := s.sessions.Require(caller.SessionID)
	if err != nil {
		return domain.Order{}, err
	}
	o, found, err := s.orders.FindOpenOrder(ctx, b.TableID)
	if err != nil {
		return domain.Order{}, err
	}
	if !found {
		return domain.Order{}, domain.NewError(domain.KindNotFound, "table %d has no open order", b.TableID)
	}
	return o, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

func (s *OrderService) Timeline(ctx context.Context, orderID int64, limit, offset int) ([]domain.StatusLogEntry, error) {
	if limit <= 0 {
		limit = defaultTimelineLimit
	}
	if limit > maxTimelineLimit {
		limit = maxTimelineLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.orders.Timeline(ctx, orderID, limit, offset)
}
