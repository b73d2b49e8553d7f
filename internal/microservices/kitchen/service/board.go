package service

import (
	"sort"
	"sync"

	"tableside/internal/domain"
)

// Ticket is what the kitchen still has to send out for one order.
type Ticket struct {
	OrderID   int64                 `json:"order_id"`
	TableID   int64                 `json:"table_id"`
	TableName string                `json:"table_name"`
	Pending   []domain.OrderLineMsg `json:"pending"`
}

// Board tracks unserved lines per open order. Events may be redelivered, so
// every update is keyed by line id and idempotent.
type Board struct {
	mu      sync.Mutex
	tickets map[int64]*ticket
}

type ticket struct {
	tableID   int64
	tableName string
	pending   map[int64]domain.OrderLineMsg
}

func NewBoard() *Board {
	return &Board{tickets: make(map[int64]*ticket)}
}

// Apply folds one event into the board and returns the number of lines still
// pending for that order.
func (b *Board) Apply(ev domain.OrderEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev.Event {
	case domain.EventOrderSubmitted:
		t, ok := b.tickets[ev.OrderID]
		if !ok {
			t = &ticket{tableID: ev.TableID, tableName: ev.TableName, pending: make(map[int64]domain.OrderLineMsg)}
			b.tickets[ev.OrderID] = t
		}
		for _, l := range ev.Lines {
			if l.Status == domain.LineOrdered {
				t.pending[l.LineID] = l
			}
		}
		return len(t.pending)
	case domain.EventLineServed, domain.EventLinePaid:
		t, ok := b.tickets[ev.OrderID]
		if !ok {
			return 0
		}
		for _, l := range ev.Lines {
			delete(t.pending, l.LineID)
		}
		if len(t.pending) == 0 {
			delete(b.tickets, ev.OrderID)
			return 0
		}
		return len(t.pending)
	case domain.EventOrderPaid:
		delete(b.tickets, ev.OrderID)
	}
	return 0
}

func (b *Board) Tickets() []Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Ticket, 0, len(b.tickets))
	for id, t := range b.tickets {
		tk := Ticket{OrderID: id, TableID: t.tableID, TableName: t.tableName}
		for _, l := range t.pending {
			tk.Pending = append(tk.Pending, l)
		}
		sort.Slice(tk.Pending, func(i, j int) bool { return tk.Pending[i].LineID < tk.Pending[j].LineID })
		out = append(out, tk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}
