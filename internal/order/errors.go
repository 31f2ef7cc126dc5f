package order

import (
	"errors"
	"fmt"
	"strings"
)

// Stable failure taxonomy. HTTP handlers map these to response codes so API
// consumers never have to match on message strings.
var (
	ErrNotFound            = errors.New("order not found")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrCartUnreachable     = errors.New("cart service unreachable")
	ErrOrderPersistence    = errors.New("failed to persist order")
	ErrLineItemPersistence = errors.New("failed to persist order items")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// ValidationError reports every violated field of a request, not just the first.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Fields, "; ")
}

// TransitionError carries the rejected from/to pair of a status update.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
