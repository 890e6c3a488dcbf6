package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrAbstractStructure is returned when a structure is requested for an
	// io tag that is neither input nor output.
	ErrAbstractStructure = errors.New("cannot instantiate abstract structure: io must be input or output")

	// ErrNoLoader is reported to observers when a Source has no loader.
	ErrNoLoader = errors.New("no loader configured")

	// ErrNoControl is returned by InputStructure.Select before a builder
	// has installed a control.
	ErrNoControl = errors.New("input has no control")
)

// SelectError reports a selection value the input's control rejected.
type SelectError struct {
	Structure string
	Value     string
	Message   string
}

// Error implements the error interface.
func (e *SelectError) Error() string {
	return fmt.Sprintf("select %q on %s: %s", e.Value, e.Structure, e.Message)
}

// IsSelectError returns true if err is, or wraps, a SelectError.
func IsSelectError(err error) bool {
	var se *SelectError
	return errors.As(err, &se)
}
