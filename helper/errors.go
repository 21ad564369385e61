package helper

import "fmt"

// Error wraps an underlying error with the operation that produced it.
type Error struct {
	Context string
	Err     error
}

// NewError creates a new wrapped error for the given operation context.
func NewError(context string, err error) error {
	return &Error{Context: context, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("error %s: %v", e.Context, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}
