package api

import (
	"errors"
	"fmt"
)

// InvocationError indicates a model call failed for a transient remote reason
// such as a network error, timeout, or quota condition.
type InvocationError struct {
	// Model is the model id that was being invoked.
	Model string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Model, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// EmptyResponseError indicates the model returned no usable text or tool
// calls. It is treated as a failed attempt, eligible for retry the same way
// an InvocationError is.
type EmptyResponseError struct {
	// Model is the model id that was invoked.
	Model string
}

// Error implements the error interface.
func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("invoke %s: model returned no usable content", e.Model)
}

// Retryable reports whether err is worth retrying at the point of call.
// Invocation failures and empty responses are transient; everything else
// (including structural validation errors from higher layers) is not.
func Retryable(err error) bool {
	var invErr *InvocationError
	var emptyErr *EmptyResponseError
	return errors.As(err, &invErr) || errors.As(err, &emptyErr)
}
