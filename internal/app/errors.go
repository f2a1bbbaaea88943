package app

import "fmt"

// InitError indicates a component failed to initialize during startup.
type InitError struct {
	Component string
	Err       error
}

// Error returns the error message.
func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %v", e.Component, e.Err)
}

// Unwrap returns the underlying error.
func (e *InitError) Unwrap() error {
	return e.Err
}
