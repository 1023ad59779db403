package graph

import (
	"errors"
	"strconv"

	"github.com/sghaida/objectgraph/keys"
)

// ErrInvalidInstance is returned by Inject for anything but a non-nil
// pointer to a struct.
var ErrInvalidInstance = errors.New("objectgraph: instance must be a non-nil pointer to a struct")

// DuplicateBindingError is returned when two ordinary modules, or two
// override modules, bind the same key.
type DuplicateBindingError struct {
	Key keys.Key
	// First and Second describe the conflicting bindings.
	First, Second string
}

// Error implements the error interface.
func (e DuplicateBindingError) Error() string {
	// Example: objectgraph: duplicate binding for "*app.Pump"
	msg := "objectgraph: duplicate binding for " + strconv.Quote(string(e.Key))
	if e.First != "" && e.Second != "" {
		msg += " (" + e.First + " and " + e.Second + ")"
	}
	return msg
}

// MissingEntryPointError is returned by Inject for a type no module
// declared as an entry point.
type MissingEntryPointError struct{ Type string }

// Error implements the error interface.
func (e MissingEntryPointError) Error() string {
	return "objectgraph: no entry point for " + e.Type +
		"; you must explicitly add an entry point to one of your modules"
}
