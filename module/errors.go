package module

import "errors"

// ErrNilModule is returned when a nil module is assembled.
var ErrNilModule = errors.New("objectgraph: nil module")

// InvalidEntryPointError is returned when a module declares an entry point
// that is not a struct type.
type InvalidEntryPointError struct {
	Module string
	Type   string
}

// Error implements the error interface.
func (e InvalidEntryPointError) Error() string {
	// Example: objectgraph: module app.ProdModule declares entry point int, want a struct type
	return "objectgraph: module " + e.Module + " declares entry point " + e.Type + ", want a struct type"
}

// InvalidInstanceError is returned when a module binds a nil instance.
type InvalidInstanceError struct{ Module string }

// Error implements the error interface.
func (e InvalidInstanceError) Error() string {
	return "objectgraph: module " + e.Module + " binds a nil instance"
}
