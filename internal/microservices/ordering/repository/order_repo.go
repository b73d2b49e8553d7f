package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tableside/internal/connections/database"
	"tableside/internal/domain"
)

type OrderRepositoryInterface interface {
	FindOpenOrder(ctx context.Context, tableID int64) (domain.Order, bool, error)
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	MergeLinesTx(ctx context.Context, in MergeInput) (MergeResult, error)
	PayOrderTx(ctx context.Context, orderID int64, changedBy string, at time.Time) (domain.Order, error)
	TransitionLineTx(ctx context.Context, lineID int64, to domain.LineStatus, changedBy string, at time.Time) (domain.Order, domain.OrderLine, error)
	Timeline(ctx context.Context, orderID int64, limit, offset int) ([]domain.StatusLogEntry, error)
}

type NewLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Remark    string
}

// MergeInput describes lines to append to the table's open order, which is
// created for EmployeeID when the table has none.
type MergeInput struct {
	TableID    int64
	EmployeeID int64
	Lines      []NewLine
	ChangedBy  string
	At         time.Time
}

type MergeResult struct {
	Order   domain.Order
	Added   []domain.OrderLine
	Created bool
}

type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) OrderRepositoryInterface {
	return &OrderRepository{db: db}
}

type openOrder struct {
	id    int64
	total decimal.Decimal
}

// openOrders returns up to two open orders of a table; two means the
// one-open-order invariant is broken.
func (r *OrderRepository) openOrders(ctx context.Context, q queryer, tableID int64, lock bool) ([]openOrder, error) {
	query := `SELECT id, total_price FROM orders WHERE table_id = $1 AND status = $2 ORDER BY id LIMIT 2`
	if lock {
		query += r.db.ForUpdate()
	}
	rows, err := q.QueryContext(ctx, query, tableID, domain.OrderOrdered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []openOrder
	for rows.Next() {
		var o openOrder
		if err := rows.Scan(&o.id, &o.total); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) > 1 {
		return nil, domain.NewError(domain.KindCorruption, "%s %d (orders %d, %d)", domain.ErrMsgManyOpenOrders, tableID, out[0].id, out[1].id)
	}
	return out, nil
}

func (r *OrderRepository) FindOpenOrder(ctx context.Context, tableID int64) (domain.Order, bool, error) {
	open, err := r.openOrders(ctx, r.db, tableID, false)
	if err != nil {
		return domain.Order{}, false, classify(err, "find open order")
	}
	if len(open) == 0 {
		return domain.Order{}, false, nil
	}
	o, err := loadOrder(ctx, r.db, open[0].id)
	if err != nil {
		return domain.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	return loadOrder(ctx, r.db, id)
}

// MergeLinesTx finds or creates the table's open order and appends the lines
// in one transaction. The table row is locked first so concurrent merges for
// the same table queue up behind each other.
func (r *OrderRepository) MergeLinesTx(ctx context.Context, in MergeInput) (MergeResult, error) {
	if len(in.Lines) == 0 {
		return MergeResult{}, errors.New("merge requires at least one line")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return MergeResult{}, classify(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var tableID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM dining_tables WHERE id = $1`+r.db.ForUpdate(), in.TableID).Scan(&tableID)
	if errors.Is(err, sql.ErrNoRows) {
		return MergeResult{}, domain.NewError(domain.KindNotFound, "table %d: %s", in.TableID, domain.ErrMsgTableNotFound)
	}
	if err != nil {
		return MergeResult{}, classify(err, "lock table")
	}

	open, err := r.openOrders(ctx, tx, in.TableID, true)
	if err != nil {
		return MergeResult{}, classify(err, "find open order")
	}

	var (
		orderID int64
		total   = decimal.Zero
		created bool
	)
	if len(open) == 1 {
		orderID, total = open[0].id, open[0].total
	} else {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (table_id, employee_id, status, total_price, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, in.TableID, in.EmployeeID, domain.OrderOrdered, decimal.Zero, in.At).Scan(&orderID)
		if err != nil {
			return MergeResult{}, classify(err, "insert order")
		}
		created = true
		if err := insertLog(ctx, tx, orderID, nil, string(domain.OrderOrdered), in.ChangedBy, in.At, "order opened"); err != nil {
			return MergeResult{}, err
		}
	}

	added := make(map[int64]bool, len(in.Lines))
	for _, l := range in.Lines {
		var lineID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_lines (order_id, product_id, quantity, remark, unit_price, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, orderID, l.ProductID, l.Quantity, l.Remark, l.UnitPrice, domain.LineOrdered, in.At).Scan(&lineID)
		if err != nil {
			return MergeResult{}, classify(err, fmt.Sprintf("insert order line for product %d", l.ProductID))
		}
		added[lineID] = true
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	res, err := tx.ExecContext(ctx, `UPDATE orders SET total_price = $1 WHERE id = $2 AND status = $3`,
		total, orderID, domain.OrderOrdered)
	if err != nil {
		return MergeResult{}, classify(err, "update order total")
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return MergeResult{}, domain.NewError(domain.KindConflict, "order %d is no longer open", orderID)
	}

	if err := insertLog(ctx, tx, orderID, nil, string(domain.OrderOrdered), in.ChangedBy, in.At,
		fmt.Sprintf("merged %d lines", len(in.Lines))); err != nil {
		return MergeResult{}, err
	}

	order, err := loadOrder(ctx, tx, orderID)
	if err != nil {
		return MergeResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return MergeResult{}, classify(err, "commit transaction")
	}

	out := MergeResult{Order: order, Created: created}
	for _, l := range order.Lines {
		if added[l.ID] {
			out.Added = append(out.Added, l)
		}
	}
	return out, nil
}

func (r *OrderRepository) PayOrderTx(ctx context.Context, orderID int64, changedBy string, at time.Time) (domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, classify(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var status domain.OrderStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`+r.db.ForUpdate(), orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.NewError(domain.KindNotFound, "order %d: %s", orderID, domain.ErrMsgOrderNotFound)
	}
	if err != nil {
		return domain.Order{}, classify(err, "lock order")
	}
	if err := status.Next(domain.OrderPaid); err != nil {
		return domain.Order{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = $1, paid_at = $2 WHERE id = $3`,
		domain.OrderPaid, at, orderID); err != nil {
		return domain.Order{}, classify(err, "update order status")
	}
	if err := insertLog(ctx, tx, orderID, nil, string(domain.OrderPaid), changedBy, at, ""); err != nil {
		return domain.Order{}, err
	}

	order, err := loadOrder(ctx, tx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, classify(err, "commit transaction")
	}
	return order, nil
}

func (r *OrderRepository) TransitionLineTx(ctx context.Context, lineID int64, to domain.LineStatus, changedBy string, at time.Time) (domain.Order, domain.OrderLine, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, domain.OrderLine{}, classify(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var (
		orderID     int64
		lineStatus  domain.LineStatus
		orderStatus domain.OrderStatus
	)
	err = tx.QueryRowContext(ctx, `
		SELECT l.order_id, l.status, o.status
		FROM order_lines l JOIN orders o ON o.id = l.order_id
		WHERE l.id = $1`+r.db.ForUpdate(), lineID).Scan(&orderID, &lineStatus, &orderStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.OrderLine{}, domain.NewError(domain.KindNotFound, "order line %d: %s", lineID, domain.ErrMsgLineNotFound)
	}
	if err != nil {
		return domain.Order{}, domain.OrderLine{}, classify(err, "lock order line")
	}
	if orderStatus.IsTerminal() {
		return domain.Order{}, domain.OrderLine{}, domain.NewError(domain.KindInvalidTransition, domain.ErrMsgOrderClosed)
	}
	if err := lineStatus.Next(to); err != nil {
		return domain.Order{}, domain.OrderLine{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE order_lines SET status = $1 WHERE id = $2`, to, lineID); err != nil {
		return domain.Order{}, domain.OrderLine{}, classify(err, "update line status")
	}
	if err := insertLog(ctx, tx, orderID, &lineID, string(to), changedBy, at, ""); err != nil {
		return domain.Order{}, domain.OrderLine{}, err
	}

	order, err := loadOrder(ctx, tx, orderID)
	if err != nil {
		return domain.Order{}, domain.OrderLine{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, domain.OrderLine{}, classify(err, "commit transaction")
	}
	for _, l := range order.Lines {
		if l.ID == lineID {
			return order, l, nil
		}
	}
	return order, domain.OrderLine{}, fmt.Errorf("line %d missing from order %d after update", lineID, orderID)
}

func (r *OrderRepository) Timeline(ctx context.Context, orderID int64, limit, offset int) ([]domain.StatusLogEntry, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = $1`, orderID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewError(domain.KindNotFound, "order %d: %s", orderID, domain.ErrMsgOrderNotFound)
	}
	if err != nil {
		return nil, classify(err, "get order")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, line_id, status, changed_by, changed_at, notes
		FROM order_status_log WHERE order_id = $1
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`, orderID, limit, offset)
	if err != nil {
		return nil, classify(err, "get timeline")
	}
	defer rows.Close()

	out := make([]domain.StatusLogEntry, 0)
	for rows.Next() {
		var (
			e      domain.StatusLogEntry
			lineID sql.NullInt64
		)
		if err := rows.Scan(&e.OrderID, &lineID, &e.Status, &e.ChangedBy, &e.ChangedAt, &e.Notes); err != nil {
			return nil, classify(err, "scan timeline")
		}
		if lineID.Valid {
			id := lineID.Int64
			e.LineID = &id
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func insertLog(ctx context.Context, q queryer, orderID int64, lineID *int64, status, changedBy string, at time.Time, notes string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO order_status_log (order_id, line_id, status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, orderID, lineID, status, changedBy, at, notes)
	return classify(err, "insert order status log")
}

func loadOrder(ctx context.Context, q queryer, id int64) (domain.Order, error) {
	var (
		o      domain.Order
		paidAt sql.NullTime
	)
	err := q.QueryRowContext(ctx, `
		SELECT o.id, o.table_id, t.name, o.employee_id, e.first_name, o.status, o.total_price, o.created_at, o.paid_at
		FROM orders o
		JOIN dining_tables t ON t.id = o.table_id
		JOIN employees e ON e.id = o.employee_id
		WHERE o.id = $1
	`, id).Scan(&o.ID, &o.TableID, &o.TableName, &o.EmployeeID, &o.EmployeeName, &o.Status, &o.TotalPrice, &o.CreatedAt, &paidAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.NewError(domain.KindNotFound, "order %d: %s", id, domain.ErrMsgOrderNotFound)
	}
	if err != nil {
		return domain.Order{}, classify(err, "get order")
	}
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}

	rows, err := q.QueryContext(ctx, `
		SELECT l.id, l.order_id, l.product_id, p.name, l.quantity, l.remark, l.unit_price, l.status, l.created_at
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.order_id = $1
		ORDER BY l.id
	`, id)
	if err != nil {
		return domain.Order{}, classify(err, "get order lines")
	}
	defer rows.Close()

	o.Lines = make([]domain.OrderLine, 0)
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.Remark, &l.UnitPrice, &l.Status, &l.CreatedAt); err != nil {
			return domain.Order{}, classify(err, "scan order line")
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, classify(err, "get order lines")
	}
	return o, nil
}
