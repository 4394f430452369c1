package errors

import "fmt"

// ErrNotFound indicates a requested resource does not exist. For orders this
// is a normal outcome, not a fault: a payment notification can race ahead of
// the checkout write that creates the order row.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrInvalidStateTransition indicates an order status change that the state
// machine does not allow.
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ErrUnauthorized indicates a failed authentication attempt
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrGatewayUnavailable wraps a failure while talking to the payment gateway.
// The webhook endpoint answers 500 for this error and nothing else, so the
// gateway re-delivers the notification.
type ErrGatewayUnavailable struct {
	Op  string
	Err error
}

func (e *ErrGatewayUnavailable) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *ErrGatewayUnavailable) Unwrap() error {
	return e.Err
}
