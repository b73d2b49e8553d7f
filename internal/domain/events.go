package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderSubmitted = "order.submitted"
	EventOrderPaid      = "order.paid"
	EventLineServed     = "line.served"
	EventLinePaid       = "line.paid"
)

type OrderLineMsg struct {
	LineID      int64           `json:"order_line_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Status      LineStatus      `json:"line_status"`
}

// OrderEvent is published after a transition commits.
type OrderEvent struct {
	Event      string          `json:"event"`
	OrderID    int64           `json:"order_id"`
	TableID    int64           `json:"table_id"`
	TableName  string          `json:"table_name"`
	Status     OrderStatus     `json:"order_status"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Lines      []OrderLineMsg  `json:"lines,omitempty"`
	ChangedBy  string          `json:"changed_by"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func LineMessages(lines []OrderLine) []OrderLineMsg {
	out := make([]OrderLineMsg, 0, len(lines))
	for _, l := range lines {
		out = append(out, OrderLineMsg{
			LineID:      l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Status:      l.Status,
		})
	}
	return out
}

func NewOrderEvent(event string, o Order, lines []OrderLine, changedBy string, at time.Time) OrderEvent {
	return OrderEvent{
		Event:      event,
		OrderID:    o.ID,
		TableID:    o.TableID,
		TableName:  o.TableName,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		Lines:      LineMessages(lines),
		ChangedBy:  changedBy,
		OccurredAt: at,
	}
}
