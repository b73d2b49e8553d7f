package domain

import (
	"errors"
	"fmt"
)

// Kind classifies errors returned across the ordering boundary.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindInvalidProduct    Kind = "INVALID_PRODUCT"
	KindNoActiveCart      Kind = "NO_ACTIVE_CART"
	KindAlreadyPaid       Kind = "ALREADY_PAID"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindConflict          Kind = "CONFLICT"
	KindCorruption        Kind = "CORRUPTION"
)

const (
	ErrMsgTableNotFound    = "table does not exist"
	ErrMsgOrderNotFound    = "order does not exist"
	ErrMsgLineNotFound     = "order line does not exist"
	ErrMsgProductNotFound  = "product does not exist"
	ErrMsgNoBinding        = "no table bound to this session"
	ErrMsgUnknownEmployee  = "employee is not known"
	ErrMsgEmptyCart        = "cart is empty and the table has no open order"
	ErrMsgOrderAlreadyPaid = "order is already paid"
	ErrMsgLineAlreadyPaid  = "order line is already paid"
	ErrMsgOrderClosed      = "order is paid, its lines can no longer change"
	ErrMsgManyOpenOrders   = "more than one open order for table"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Message: msg}
}

// WrapError attaches a kind to an underlying cause.
func WrapError(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or "" for errors outside the taxonomy.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
