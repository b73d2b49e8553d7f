package ordering

import (
	"context"
	"fmt"
	"strconv"

	"tableside/internal/common/httpx"
	"tableside/internal/common/logger"
	"tableside/internal/config"
	"tableside/internal/connections/database"
	"tableside/internal/connections/rabbitmq"
	"tableside/internal/microservices/ordering/cart"
	"tableside/internal/microservices/ordering/handlers"
	"tableside/internal/microservices/ordering/repository"
	"tableside/internal/microservices/ordering/service"
	"tableside/internal/microservices/ordering/session"
)

// Run serves the ordering API until ctx is cancelled. rmq may be nil, in
// which case events are dropped.
func Run(ctx context.Context, cfg *config.Config, db *database.DB, rmq *rabbitmq.Client, lg *logger.Logger) error {
	repo := repository.New(db)
	carts := cart.NewStore(repo.CatalogRepo)
	sessions := session.NewManager(repo.CatalogRepo, carts)

	var (
		events service.EventPublisher = service.NopPublisher{}
		broker handlers.BrokerPinger
	)
	if rmq != nil {
		if err := rmq.DeclareTopology(cfg.RabbitMQ.Exchange, "", ""); err != nil {
			return fmt.Errorf("declare exchange: %w", err)
		}
		events = service.NewRabbitPublisher(rmq, cfg.RabbitMQ.Exchange)
		broker = rmq
	}

	svc, err := service.New(ctx, repo, carts, sessions, events, cfg.Ordering, lg)
	if err != nil {
		return err
	}
	router := handlers.Router(handlers.New(svc, db, broker), lg, cfg.HTTP.RequestTimeout)

	lg.Info("service_started", map[string]any{
		"port":      cfg.HTTP.Port,
		"db_driver": db.Driver,
		"events_on": rmq != nil,
		"guest_id":  cfg.Ordering.GuestEmployeeID,
	})
	return httpx.New(":"+strconv.Itoa(cfg.HTTP.Port), router).Run(ctx)
}
