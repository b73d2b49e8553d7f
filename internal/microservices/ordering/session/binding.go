// Package session binds request sessions to tables. A binding is the gate for
// every cart and order operation of a table.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tableside/internal/domain"
)

type Binding struct {
	SessionID string    `json:"-"`
	TableID   int64     `json:"table_id"`
	TableName string    `json:"table_name"`
	BoundAt   time.Time `json:"bound_at"`
}

// Caller identifies who is invoking an operation: the session cookie and, when
// an upstream authenticator vouched for one, the employee id.
type Caller struct {
	SessionID  string
	EmployeeID int64
}

type TableFinder interface {
	GetTable(ctx context.Context, id int64) (domain.Table, error)
}

type CartClearer interface {
	Clear(tableID int64)
}

type Manager struct {
	mu       sync.RWMutex
	bindings map[string]Binding
	tables   TableFinder
	carts    CartClearer
	now      func() time.Time
}

func NewManager(tables TableFinder, carts CartClearer) *Manager {
	return &Manager{
		bindings: make(map[string]Binding),
		tables:   tables,
		carts:    carts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func NewSessionID() string { return uuid.NewString() }

// Bind verifies the table exists and binds it to sessionID, replacing any
// previous binding of that session. Moving to another table clears the old
// table's cart.
func (m *Manager) Bind(ctx context.Context, sessionID string, tableID int64) (Binding, error) {
	if sessionID == "" {
		return Binding{}, domain.NewError(domain.KindUnauthorized, "missing session")
	}
	t, err := m.tables.GetTable(ctx, tableID)
	if err != nil {
		return Binding{}, err
	}
	b := Binding{SessionID: sessionID, TableID: t.ID, TableName: t.Name, BoundAt: m.now()}
	m.mu.Lock()
	prev, had := m.bindings[sessionID]
	m.bindings[sessionID] = b
	m.mu.Unlock()
	if had && prev.TableID != b.TableID {
		m.carts.Clear(prev.TableID)
	}
	return b, nil
}

// Unbind forgets the session's table and clears that table's cart.
func (m *Manager) Unbind(sessionID string) {
	m.mu.Lock()
	b, ok := m.bindings[sessionID]
	delete(m.bindings, sessionID)
	m.mu.Unlock()
	if ok {
		m.carts.Clear(b.TableID)
	}
}

func (m *Manager) Require(sessionID string) (Binding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bindings[sessionID]
	if !ok || sessionID == "" {
		return Binding{}, domain.NewError(domain.KindUnauthorized, domain.ErrMsgNoBinding)
	}
	return b, nil
}
