package handlers

import (
	"context"

	"tableside/internal/microservices/ordering/service"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BrokerPinger reports whether the event broker connection is still open.
type BrokerPinger interface {
	Ping() error
}

type Handler struct {
	TableHandler  *TableHandler
	CartHandler   *CartHandler
	OrderHandler  *OrderHandler
	HealthHandler *HealthHandler
}

// New wires the handlers. broker is nil when events are disabled.
func New(s *service.Service, db Pinger, broker BrokerPinger) *Handler {
	return &Handler{
		TableHandler:  NewTableHandler(s.OrderService),
		CartHandler:   NewCartHandler(s.OrderService),
		OrderHandler:  NewOrderHandler(s.OrderService),
		HealthHandler: &HealthHandler{db: db, broker: broker},
	}
}
