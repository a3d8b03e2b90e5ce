package engine

import (
	"fmt"
	"strings"
)

// UnknownOperationError means the job named an operation with no descriptor.
type UnknownOperationError struct {
	Operation string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Operation)
}

// ValidationError reports required payload fields missing from a job. It is
// raised before any network call.
type ValidationError struct {
	Operation string
	Missing   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Operation, strings.Join(e.Missing, ", "))
}

// ExecutionError is the single failure shape engine callers see. It wraps
// whatever went wrong during an operation without losing the original
// message text.
type ExecutionError struct {
	Operation string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Err.Error())
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
