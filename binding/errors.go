package binding

import (
	"strconv"

	"github.com/sghaida/objectgraph/keys"
)

// UnresolvedError is returned when no binding can satisfy a key.
type UnresolvedError struct {
	Key        keys.Key
	RequiredBy string
	// Reason optionally explains why the key could not be synthesized.
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e UnresolvedError) Error() string {
	// Example: objectgraph: no binding for "*app.Bar" required by members/app.Foo
	msg := "objectgraph: no binding for " + strconv.Quote(string(e.Key))
	if e.RequiredBy != "" {
		msg += " required by " + e.RequiredBy
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Unwrap returns the error that prevented synthesizing a binding, if any.
func (e UnresolvedError) Unwrap() error { return e.Cause }

// NotLinkedError is returned when a binding is used before its dependency
// for Key was attached.
type NotLinkedError struct{ Key keys.Key }

// Error implements the error interface.
func (e NotLinkedError) Error() string {
	return "objectgraph: dependency " + strconv.Quote(string(e.Key)) + " is not linked"
}

// UnsupportedError is returned when a binding is asked for an operation it
// does not offer, e.g. member injection from a provider function.
type UnsupportedError struct {
	Key keys.Key
	Op  string
}

// Error implements the error interface.
func (e UnsupportedError) Error() string {
	return "objectgraph: binding for " + strconv.Quote(string(e.Key)) + " cannot " + e.Op
}

// InvalidProviderError is returned for provider functions with an unusable signature.
type InvalidProviderError struct {
	Func   string
	Reason string
}

// Error implements the error interface.
func (e InvalidProviderError) Error() string {
	return "objectgraph: invalid provider " + e.Func + ": " + e.Reason
}

// InvalidTargetError is returned when a value cannot be injected.
type InvalidTargetError struct {
	Type   string
	Reason string
}

// Error implements the error interface.
func (e InvalidTargetError) Error() string {
	return "objectgraph: cannot inject " + e.Type + ": " + e.Reason
}

// UnexportedFieldError is returned when an inject tag is placed on a field
// reflection cannot set.
type UnexportedFieldError struct {
	Type  string
	Field string
}

// Error implements the error interface.
func (e UnexportedFieldError) Error() string {
	return "objectgraph: field " + e.Type + "." + e.Field + " is tagged for injection but unexported"
}

// ProvisionError wraps an error returned by a provider function.
type ProvisionError struct {
	Key   keys.Key
	Cause error
}

// Error implements the error interface.
func (e ProvisionError) Error() string {
	return "objectgraph: providing " + strconv.Quote(string(e.Key)) + ": " + e.Cause.Error()
}

// Unwrap returns the provider's error.
func (e ProvisionError) Unwrap() error { return e.Cause }

// ReentrantError is returned when creating a singleton requests the same
// singleton again.
type ReentrantError struct{ Key keys.Key }

// Error implements the error interface.
func (e ReentrantError) Error() string {
	return "objectgraph: singleton " + strconv.Quote(string(e.Key)) + " requested while it is being created"
}
