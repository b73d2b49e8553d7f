package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"tableside/internal/common/logger"
	"tableside/internal/domain"
)

// ErrDLQ marks a delivery that can never be processed: nack without requeue.
// Any other error nacks with requeue.
var ErrDLQ = errors.New("dead_letter")

// BindingKey matches every order event of every table.
const BindingKey = "tableside.#"

// Consumer is the part of the RabbitMQ client the kitchen needs.
type Consumer interface {
	DeclareTopology(exchange, queue, bindingKey string) error
	Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error)
}

type KitchenServiceInterface interface {
	Run(ctx context.Context) error
	Board() *Board
}

var _ KitchenServiceInterface = (*KitchenService)(nil)

type KitchenService struct {
	client Consumer
	board  *Board
	lg     *logger.Logger

	Exchange   string
	Queue      string
	WorkerName string
	Prefetch   int
}

func NewKitchenService(client Consumer, exchange, queue, workerName string, prefetch int, lg *logger.Logger) *KitchenService {
	if prefetch <= 0 {
		prefetch = 1
	}
	return &KitchenService{
		client:     client,
		board:      NewBoard(),
		lg:         lg,
		Exchange:   exchange,
		Queue:      queue,
		WorkerName: workerName,
		Prefetch:   prefetch,
	}
}

func (ks *KitchenService) Board() *Board { return ks.board }

// Run consumes order events until ctx is cancelled or the delivery channel
// closes.
func (ks *KitchenService) Run(ctx context.Context) error {
	if strings.TrimSpace(ks.WorkerName) == "" {
		return fmt.Errorf("worker name is empty: pass --worker-name")
	}
	if err := ks.client.DeclareTopology(ks.Exchange, ks.Queue, BindingKey); err != nil {
		return err
	}
	msgs, err := ks.client.Consume(ks.Queue, ks.WorkerName, ks.Prefetch)
	if err != nil {
		return fmt.Errorf("consume %s: %w", ks.Queue, err)
	}
	ks.lg.Info("kitchen_consuming", map[string]any{"queue": ks.Queue, "worker": ks.WorkerName, "prefetch": ks.Prefetch})

	for {
		select {
		case <-ctx.Done():
			ks.lg.Info("graceful_shutdown", map[string]any{"worker": ks.WorkerName})
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			ks.settle(d, ks.processOne(d.Body))
		}
	}
}

func (ks *KitchenService) settle(d amqp.Delivery, err error) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrDLQ):
		ks.lg.Warn("event_rejected", err, map[string]any{"message_id": d.MessageId})
		_ = d.Nack(false, false)
	default:
		_ = d.Nack(false, true)
	}
}

func (ks *KitchenService) processOne(body []byte) error {
	var ev domain.OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrDLQ, err)
	}
	if ev.OrderID == 0 {
		return fmt.Errorf("%w: event without order id", ErrDLQ)
	}
	switch ev.Event {
	case domain.EventOrderSubmitted, domain.EventOrderPaid, domain.EventLineServed, domain.EventLinePaid:
	default:
		return fmt.Errorf("%w: unknown event %q", ErrDLQ, ev.Event)
	}

	pending := ks.board.Apply(ev)
	ks.lg.Debug("ticket_updated", map[string]any{
		"event":    ev.Event,
		"order_id": ev.OrderID,
		"table":    ev.TableName,
		"pending":  pending,
	})
	return nil
}
