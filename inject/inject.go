// Package inject defines the vocabulary injectable types share with an object
// graph: deferred Provider and MembersInjector handles, scope markers and the
// struct tag that marks injected fields.
//
// A field is injected when it is exported and carries the inject tag:
//
//	type CoffeeMaker struct {
//		inject.Singleton
//
//		Heater Heater                `inject:""`
//		Pump   inject.Provider[Pump] `inject:""`
//		Brand  string                `inject:"brand"` // qualified by name
//	}
//
// Embedding Singleton scopes a struct binding to one instance per graph.
// Embedding Injectable lets a struct without tagged fields be constructed by
// the graph on demand.
package inject

import (
	"errors"
	"fmt"
	"reflect"
)

// Tag is the struct tag key that marks injected fields. Its value is the
// field's qualifier; an empty value means unqualified.
const Tag = "inject"

// Singleton marks a struct type as singleton scoped when embedded.
type Singleton struct{}

// Injectable marks a struct type as constructible by the graph when embedded,
// even if it declares no injected fields.
type Injectable struct{}

// ErrUnbound is returned by handles that were not produced by a graph.
var ErrUnbound = errors.New("inject: handle is not bound to a graph")

// Kind tells which deferred handle a type is.
type Kind uint8

const (
	KindNone Kind = iota
	KindProvider
	KindMembersInjector
)

// Provider defers resolution of a T until Get is called. Each call resolves
// through the graph, so unscoped bindings yield a fresh value per call.
type Provider[T any] struct {
	get func() (any, error)
}

// Get resolves the provided value.
func (p Provider[T]) Get() (T, error) {
	var zero T
	if p.get == nil {
		return zero, ErrUnbound
	}
	v, err := p.get()
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("inject: provider produced %T, want %s", v, reflect.TypeFor[T]())
	}
	return t, nil
}

// MustGet is Get that panics on error.
func (p Provider[T]) MustGet() T {
	v, err := p.Get()
	if err != nil {
		panic(err)
	}
	return v
}

func (Provider[T]) providedType() reflect.Type { return reflect.TypeFor[T]() }

func (Provider[T]) withGetter(get func() (any, error)) any { return Provider[T]{get: get} }

// MembersInjector injects the members of existing *T values.
type MembersInjector[T any] struct {
	inject func(any) error
}

// InjectMembers populates the injected fields of instance.
func (m MembersInjector[T]) InjectMembers(instance *T) error {
	if m.inject == nil {
		return ErrUnbound
	}
	return m.inject(instance)
}

func (MembersInjector[T]) injectedType() reflect.Type { return reflect.TypeFor[T]() }

func (MembersInjector[T]) withInjector(fn func(any) error) any { return MembersInjector[T]{inject: fn} }

type provider interface {
	providedType() reflect.Type
	withGetter(get func() (any, error)) any
}

type membersInjector interface {
	injectedType() reflect.Type
	withInjector(fn func(any) error) any
}

// Deferred reports whether t is a Provider or MembersInjector instantiation
// and returns the type it defers.
func Deferred(t reflect.Type) (Kind, reflect.Type) {
	if t == nil || t.Kind() != reflect.Struct {
		return KindNone, nil
	}
	switch d := reflect.Zero(t).Interface().(type) {
	case provider:
		return KindProvider, d.providedType()
	case membersInjector:
		return KindMembersInjector, d.injectedType()
	default:
		return KindNone, nil
	}
}

// NewProvider returns a value of the Provider type t backed by get.
func NewProvider(t reflect.Type, get func() (any, error)) (any, error) {
	p, ok := zeroOf(t).(provider)
	if !ok {
		return nil, fmt.Errorf("inject: %v is not a Provider type", t)
	}
	return p.withGetter(get), nil
}

// NewMembersInjector returns a value of the MembersInjector type t backed by fn.
func NewMembersInjector(t reflect.Type, fn func(any) error) (any, error) {
	m, ok := zeroOf(t).(membersInjector)
	if !ok {
		return nil, fmt.Errorf("inject: %v is not a MembersInjector type", t)
	}
	return m.withInjector(fn), nil
}

func zeroOf(t reflect.Type) any {
	if t == nil {
		return nil
	}
	return reflect.Zero(t).Interface()
}
