// Package binding implements the units an object graph is made of.
//
// A Binding provides values for one key, injects members for one struct type,
// or both. Bindings start unlinked; the linker attaches each one to the
// bindings of its dependencies and then marks it linked. Linked never reverts.
package binding

import (
	"fmt"
	"reflect"

	"github.com/sghaida/objectgraph/keys"
)

// Requester hands out bindings for dependency keys. It returns nil when the
// key has no binding yet; the request is remembered and satisfied by the next
// link pass.
type Requester interface {
	RequestBinding(key keys.Key, requiredBy any) Binding
}

// Binding is a resolvable provider for one key.
type Binding interface {
	fmt.Stringer

	// ProvideKey is the key this binding provides values for, or "".
	ProvideKey() keys.Key
	// MembersKey is the members key this binding injects, or "".
	MembersKey() keys.Key
	// RequiredBy is whatever first asked for this binding.
	RequiredBy() any
	Singleton() bool
	Linked() bool
	SetLinked()

	// Attach requests the bindings of every dependency. It may be called
	// repeatedly; each call replaces the previously attached dependencies.
	Attach(r Requester)
	Get() (any, error)
	InjectMembers(target any) error

	// Dependencies returns the directly attached dependency bindings.
	// Deferred Provider and MembersInjector bindings report none.
	Dependencies() []Binding
}

// Base carries the bookkeeping every binding shares. Embed it and override
// what the concrete binding supports.
type Base struct {
	provideKey keys.Key
	membersKey keys.Key
	requiredBy any
	singleton  bool
	linked     bool
}

// NewBase returns the shared state of a binding.
func NewBase(provideKey, membersKey keys.Key, requiredBy any, singleton bool) Base {
	return Base{
		provideKey: provideKey,
		membersKey: membersKey,
		requiredBy: requiredBy,
		singleton:  singleton,
	}
}

func (b *Base) ProvideKey() keys.Key { return b.provideKey }
func (b *Base) MembersKey() keys.Key { return b.membersKey }
func (b *Base) RequiredBy() any { return b.requiredBy }
func (b *Base) Singleton() bool { return b.singleton }
func (b *Base) Linked() bool { return b.linked }
func (b *Base) SetLinked() { b.linked = true }

// Attach is a no-op for bindings without dependencies.
func (b *Base) Attach(Requester) {}

func (b *Base) Get() (any, error) {
	return nil, UnsupportedError{Key: b.key(), Op: "provide values"}
}

func (b *Base) InjectMembers(any) error {
	return UnsupportedError{Key: b.key(), Op: "inject members"}
}

func (b *Base) Dependencies() []Binding { return nil }

func (b *Base) String() string { return string(b.key()) }

func (b *Base) key() keys.Key {
	if b.provideKey != "" {
		return b.provideKey
	}
	return b.membersKey
}

// Describe renders a requiredBy value for diagnostics.
func Describe(requiredBy any) string {
	switch v := requiredBy.(type) {
	case nil:
		return "<graph>"
	case reflect.Type:
		return keys.TypeName(v)
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	default:
		return keys.TypeName(reflect.TypeOf(v))
	}
}

// valueOf converts a resolved value for assignment to t. A nil value becomes
// the zero value of t.
func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}
