package service

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"tableside/internal/connections/rabbitmq"
	"tableside/internal/domain"
)

// EventPublisher delivers committed order transitions to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.OrderEvent) error
}

// RoutingKey is tableside.<event>.<table_id>, e.g. tableside.order.paid.4.
func RoutingKey(ev domain.OrderEvent) string {
	return fmt.Sprintf("tableside.%s.%d", ev.Event, ev.TableID)
}

type RabbitPublisher struct {
	client   *rabbitmq.Client
	exchange string
}

func NewRabbitPublisher(client *rabbitmq.Client, exchange string) *RabbitPublisher {
	return &RabbitPublisher{client: client, exchange: exchange}
}

func (p *RabbitPublisher) Publish(ctx context.Context, ev domain.OrderEvent) error {
	return p.client.PublishJSON(ctx, p.exchange, RoutingKey(ev), ev, amqp.Table{
		"x-source": "ordering-service",
		"x-event":  ev.Event,
	})
}

// NopPublisher drops events; used when RabbitMQ is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.OrderEvent) error { return nil }
