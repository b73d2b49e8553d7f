package service

import (
	"context"

	dto "tableside/internal/microservices/ordering/domain/dto"
	"tableside/internal/microservices/ordering/session"
)

func (s *OrderService) Cart(ctx context.Context, caller session.Caller) (dto.CartView, error) {
	b, err := s.sessions.Require(caller.SessionID)
	if err != nil {
		return dto.CartView{}, err
	}
	return s.cartView(ctx, b)
}

func (s *OrderService) CartAdd(ctx context.Context, caller session.Caller, productID int64) (dto.CartView, error) {
	b, err := s.sessions.Require(caller.SessionID)
	if err != nil {
		return dto.CartView{}, err
	}
	if _, err := s.carts.Add(ctx, b.TableID, productID); err != nil {
		return dto.CartView{}, err
	}
	return s.cartView(ctx, b)
}

func (s *OrderService) CartRemove(ctx context.Context, caller session.Caller, productID int64) (dto.CartView, error) {
	b, err := s.sessions.Require(caller.SessionID)
	if err != nil {
		return dto.CartView{}, err
	}
	s.carts.Remove(b.TableID, productID)
	return s.cartView(ctx, b)
}

func (s *OrderService) CartClear(_ context.Context, caller session.Caller) error {
	b, err := s.sessions.Require(caller.SessionID)
	if err != nil {
		return err
	}
	s.carts.Clear(b.TableID)
	return nil
}

func (s *OrderService) cartView(ctx context.Context, b session.Binding) (dto.CartView, error) {
	priced, err := s.carts.Priced(ctx, b.TableID)
	if err != nil {
		return dto.CartView{}, err
	}
	view := dto.CartView{
		TableID:   b.TableID,
		TableName: b.TableName,
		Items:     make([]dto.CartItem, 0, len(priced.Entries)),
		Total:     priced.Total,
	}
	for _, e := range priced.Entries {
		view.Items = append(view.Items, dto.CartItem{
			ProductID:   e.ProductID,
			ProductName: e.Product.Name,
			Quantity:    e.Quantity,
			UnitPrice:   e.Product.Price,
			Subtotal:    e.Subtotal,
			Unavailable: e.Unavailable,
		})
	}
	return view, nil
}
