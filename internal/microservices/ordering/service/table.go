package service

import (
	"context"

	"tableside/internal/domain"
	"tableside/internal/microservices/ordering/session"
)

func (s *OrderService) BindTable(ctx context.Context, sessionID string, tableID int64) (session.Binding, error) {
	b, err := s.sessions.Bind(ctx, sessionID, tableID)
	if err != nil {
		return session.Binding{}, err
	}
	s.lg.Debug("table_bound", map[string]any{"table_id": b.TableID})
	return b, nil
}

// Unbind releases the session's table and empties its cart.
func (s *OrderService) Unbind(sessionID string) {
	s.sessions.Unbind(sessionID)
}

func (s *OrderService) ListTables(ctx context.Context) ([]domain.Table, error) {
	return s.catalog.ListTables(ctx)
}

func (s *OrderService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.catalog.ListProducts(ctx)
}
