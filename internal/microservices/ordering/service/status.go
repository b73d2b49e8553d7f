package service

import (
	"context"

	"tableside/internal/domain"
	"tableside/internal/microservices/ordering/session"
)

// PayOrder closes an open order. Its lines keep their statuses.
func (s *OrderService) PayOrder(ctx context.Context, caller session.Caller, orderID int64) (domain.Order, error) {
	by, at := actor(caller), s.now()
	o, err := s.orders.PayOrderTx(ctx, orderID, by, at)
	if err != nil {
		return domain.Order{}, err
	}
	s.lg.Info("order_paid", map[string]any{
		"order_id": o.ID,
		"table_id": o.TableID,
		"total":    o.TotalPrice.StringFixed(2),
	})
	s.publish(domain.NewOrderEvent(domain.EventOrderPaid, o, nil, by, at))
	return o, nil
}

func (s *OrderService) ServeLine(ctx context.Context, caller session.Caller, lineID int64) (domain.Order, domain.OrderLine, error) {
	return s.transitionLine(ctx, caller, lineID, domain.LineServed, domain.EventLineServed)
}

func (s *OrderService) PayLine(ctx context.Context, caller session.Caller, lineID int64) (domain.Order, domain.OrderLine, error) {
	return s.transitionLine(ctx, caller, lineID, domain.LinePaid, domain.EventLinePaid)
}

func (s *OrderService) transitionLine(ctx context.Context, caller session.Caller, lineID int64,
	to domain.LineStatus, event string) (domain.Order, domain.OrderLine, error) {

	by, at := actor(caller), s.now()
	o, l, err := s.orders.TransitionLineTx(ctx, lineID, to, by, at)
	if err != nil {
		return domain.Order{}, domain.OrderLine{}, err
	}
	s.lg.Debug("line_"+string(to), map[string]any{"order_id": o.ID, "line_id": l.ID})
	s.publish(domain.NewOrderEvent(event, o, []domain.OrderLine{l}, by, at))
	return o, l, nil
}
