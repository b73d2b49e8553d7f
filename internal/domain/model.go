package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Table struct {
	ID   int64  `json:"table_id"`
	Name string `json:"table_name"`
}

type Employee struct {
	ID           int64     `json:"employee_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Product struct {
	ID          int64           `json:"product_id"`
	Name        string          `json:"product_name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// Order is the persisted order of a table. TotalPrice is maintained by the
// merge and always equals the sum of its lines' subtotals.
type Order struct {
	ID           int64           `json:"order_id"`
	TableID      int64           `json:"table_id"`
	TableName    string          `json:"table_name"`
	EmployeeID   int64           `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	Status       OrderStatus     `json:"order_status"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CreatedAt    time.Time       `json:"order_date"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	Lines        []OrderLine     `json:"order_lines"`
}

// LinesTotal recomputes the total from the lines.
func (o Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

type OrderLine struct {
	ID          int64           `json:"order_line_id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Remark      string          `json:"line_remark,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Status      LineStatus      `json:"line_status"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StatusLogEntry is one row of an order's timeline.
type StatusLogEntry struct {
	OrderID   int64     `json:"order_id"`
	LineID    *int64    `json:"order_line_id,omitempty"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Notes     string    `json:"notes,omitempty"`
}
