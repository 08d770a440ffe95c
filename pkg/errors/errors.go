package errors

import "fmt"

// ErrNotFound indicates a requested entity does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates a failed authentication attempt.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrValidation indicates malformed or out-of-range input. Nothing is
// mutated when this is returned.
type ErrValidation struct {
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Message
}

// ErrBusinessRule indicates a request that is well-formed but violates a
// business constraint (empty cart, insufficient stock, out of stock).
type ErrBusinessRule struct {
	Message string
}

func (e *ErrBusinessRule) Error() string {
	return e.Message
}

// ErrInvalidPrice indicates a product whose resolved sale price is zero,
// negative, or unparsable at the moment a line is about to be committed.
type ErrInvalidPrice struct {
	Product string
}

func (e *ErrInvalidPrice) Error() string {
	if e.Product == "" {
		return "invalid product price"
	}
	return fmt.Sprintf("invalid product price for product %s", e.Product)
}

// ErrInvalidStateTransition indicates an order status change that the
// state machine does not permit.
type ErrInvalidStateTransition struct {
	From string
	To   string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrGateway indicates a payment gateway failure or timeout. The checkout
// that triggered it must leave no partial state behind.
type ErrGateway struct {
	Message string
}

func (e *ErrGateway) Error() string {
	if e.Message == "" {
		return "payment gateway error"
	}
	return fmt.Sprintf("payment failed: %s", e.Message)
}
