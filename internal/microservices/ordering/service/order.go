package service

import (
	"context"

	"tableside/internal/domain"
	"tableside/internal/microservices/ordering/cart"
	"tableside/internal/microservices/ordering/repository"
	"tableside/internal/microservices/ordering/session"
)

// SubmitOrder merges the bound table's cart into the table's open order,
// opening one when there is none. Every cart entry becomes a new order line
// at the product's current price; existing lines are never extended.
// merged reports whether any line was written: an empty cart returns the
// open order unchanged with merged false.
func (s *OrderService) SubmitOrder(ctx context.Context, caller session.Caller) (o domain.Order, merged bool, err error) {
	b, err := s.sessions.Require(caller.SessionID)
	if err != nil {
		return domain.Order{}, false, err
	}
	employeeID, err := s.actingEmployee(ctx, caller)
	if err != nil {
		return domain.Order{}, false, err
	}

	unlock := s.tableLocks.Lock(b.TableID)
	defer unlock()

	snap := s.carts.Snapshot(b.TableID)
	if snap.IsEmpty() {
		open, found, err := s.orders.FindOpenOrder(ctx, b.TableID)
		if err != nil {
			return domain.Order{}, false, err
		}
		if !found {
			return domain.Order{}, false, domain.NewError(domain.KindNoActiveCart, domain.ErrMsgEmptyCart)
		}
		return open, false, nil
	}

	lines, err := s.resolveLines(ctx, snap)
	if err != nil {
		return domain.Order{}, false, err
	}

	in := repository.MergeInput{
		TableID:    b.TableID,
		EmployeeID: employeeID,
		Lines:      lines,
		ChangedBy:  actor(caller),
		At:         s.now(),
	}
	var res repository.MergeResult
	err = s.withRetry(ctx, "submit_order", func() error {
		var mergeErr error
		res, mergeErr = s.orders.MergeLinesTx(ctx, in)
		return mergeErr
	})
	if err != nil {
		s.lg.Error("submit_order_failed", err, map[string]any{"table_id": b.TableID})
		return domain.Order{}, false, err
	}

	s.carts.Consume(b.TableID, snap)

	s.lg.Info("order_submitted", map[string]any{
		"order_id":    res.Order.ID,
		"table_id":    b.TableID,
		"created":     res.Created,
		"lines_added": len(res.Added),
		"total":       res.Order.TotalPrice.StringFixed(2),
	})
	s.publish(domain.NewOrderEvent(domain.EventOrderSubmitted, res.Order, res.Added, in.ChangedBy, in.At))
	return res.Order, true, nil
}

// resolveLines prices every snapshot entry before anything is written, so an
// unknown product aborts the whole submission.
func (s *OrderService) resolveLines(ctx context.Context, snap cart.Snapshot) ([]repository.NewLine, error) {
	lines := make([]repository.NewLine, 0, len(snap))
	for _, e := range snap {
		p, err := s.catalog.GetProduct(ctx, e.ProductID)
		if err != nil {
			if domain.IsKind(err, domain.KindNotFound) {
				return nil, domain.NewError(domain.KindInvalidProduct, "product %d: %s", e.ProductID, domain.ErrMsgProductNotFound)
			}
			return nil, err
		}
		lines = append(lines, repository.NewLine{
			ProductID: p.ID,
			Quantity:  e.Quantity,
			UnitPrice: p.Price,
		})
	}
	return lines, nil
}
