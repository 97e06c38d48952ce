package daemon

import (
	"errors"
	"fmt"
)

// ErrorCollector accumulates errors from a sequence of independent steps,
// such as closing every switch.
type ErrorCollector struct {
	errors []error
}

// NewErrorCollector creates a new ErrorCollector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// Add records err, prefixed with context when context is not empty. Nil
// errors are ignored.
func (ec *ErrorCollector) Add(context string, err error) {
	if err == nil {
		return
	}
	if context != "" {
		err = fmt.Errorf("%s: %w", context, err)
	}
	ec.errors = append(ec.errors, err)
}

// HasErrors returns true if any errors have been collected
func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

// Count returns the number of errors collected
func (ec *ErrorCollector) Count() int {
	return len(ec.errors)
}

// Result returns nil if nothing was collected, otherwise an error wrapping
// sentinel and every collected error.
func (ec *ErrorCollector) Result(sentinel error) error {
	if len(ec.errors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, errors.Join(ec.errors...))
}
