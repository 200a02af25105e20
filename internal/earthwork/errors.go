package earthwork

import (
	"errors"
	"fmt"
)

// InputError reports a problem with the caller's payload: too few vertices or
// samples, a self-intersecting boundary, an unsupported method or an invalid
// parameter. It is safe to show to clients.
type InputError struct {
	Op      string
	Message string
}

func (e *InputError) Error() string {
	if e.Op == "" {
		return "earthwork: " + e.Message
	}
	return fmt.Sprintf("earthwork: %s: %s", e.Op, e.Message)
}

// ComputationError reports a failure inside the engine on input that passed
// validation, such as a degenerate triangulation or projection.
type ComputationError struct {
	Op      string
	Message string
	Err     error
}

func (e *ComputationError) Error() string {
	msg := fmt.Sprintf("earthwork: %s: %s", e.Op, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

func inputErrorf(op, format string, args ...any) error {
	return &InputError{Op: op, Message: fmt.Sprintf(format, args...)}
}

func computationError(op, message string, err error) error {
	return &ComputationError{Op: op, Message: message, Err: err}
}

// IsInputError returns true if err (or any error in its chain) is an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsComputationError returns true if err (or any error in its chain) is a ComputationError.
func IsComputationError(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce)
}
