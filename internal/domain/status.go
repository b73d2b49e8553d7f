package domain

type OrderStatus string

const (
	OrderOrdered OrderStatus = "ordered"
	OrderPaid    OrderStatus = "paid"
)

func (s OrderStatus) Valid() bool {
	return s == OrderOrdered || s == OrderPaid
}

func (s OrderStatus) IsTerminal() bool { return s == OrderPaid }

// Next validates the transition s -> to. Orders only move forward and are
// never reopened.
func (s OrderStatus) Next(to OrderStatus) error {
	switch {
	case !s.Valid() || !to.Valid():
		return NewError(KindInvalidTransition, "unknown order status %q -> %q", s, to)
	case s == OrderPaid && to == OrderPaid:
		return NewError(KindAlreadyPaid, ErrMsgOrderAlreadyPaid)
	case s == OrderOrdered && to == OrderPaid:
		return nil
	default:
		return NewError(KindInvalidTransition, "order cannot move from %s to %s", s, to)
	}
}

type LineStatus string

const (
	LineOrdered LineStatus = "ordered"
	LineServed  LineStatus = "served"
	LinePaid    LineStatus = "paid"
)

func (s LineStatus) Valid() bool {
	switch s {
	case LineOrdered, LineServed, LinePaid:
		return true
	}
	return false
}

func (s LineStatus) rank() int {
	switch s {
	case LineOrdered:
		return 0
	case LineServed:
		return 1
	case LinePaid:
		return 2
	}
	return -1
}

// Next validates the transition s -> to. Lines move ordered -> served -> paid;
// served may be skipped, nothing moves backwards and nothing leaves paid.
func (s LineStatus) Next(to LineStatus) error {
	if !s.Valid() || !to.Valid() {
		return NewError(KindInvalidTransition, "unknown line status %q -> %q", s, to)
	}
	if s == LinePaid {
		return NewError(KindInvalidTransition, ErrMsgLineAlreadyPaid)
	}
	if to.rank() <= s.rank() {
		return NewError(KindInvalidTransition, "line cannot move from %s to %s", s, to)
	}
	return nil
}
