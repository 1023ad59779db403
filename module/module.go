// Package module is how callers describe an object graph.
//
// A module declares provider functions, the struct types that may receive
// member injection (entry points), and package-level targets for static
// injection:
//
//	type DripCoffeeModule struct{}
//
//	func (DripCoffeeModule) Configure(b *module.Binder) {
//		b.EntryPoints((*CoffeeApp)(nil))
//		b.Provides(NewElectricHeater, module.Singleton())
//		b.Provides(func(p *Thermosiphon) Pump { return p })
//	}
//
// Modules that call Overrides replace same-key bindings of ordinary modules;
// that is how tests swap in fakes.
package module

import (
	"reflect"

	"github.com/sghaida/objectgraph/binding"
	"github.com/sghaida/objectgraph/keys"
)

// Module declares bindings, entry points and static injections.
type Module interface {
	Configure(b *Binder)
}

// Func adapts a plain function to Module.
type Func func(b *Binder)

// Configure implements Module.
func (f Func) Configure(b *Binder) { f(b) }

// Binder collects the declarations of one module.
type Binder struct {
	module      Module
	overrides   bool
	entryPoints []keys.Key
	statics     []any
	includes    []Module
	bindings    []binding.Binding
	errs        []error
}

// Overrides marks the module as an override module.
func (b *Binder) Overrides() { b.overrides = true }

// EntryPoints authorizes member injection into the given struct types.
// Samples may be typed nil pointers, struct values or reflect.Type values.
func (b *Binder) EntryPoints(samples ...any) {
	for _, s := range samples {
		t, ok := s.(reflect.Type)
		if !ok {
			t = reflect.TypeOf(s)
		}
		for t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t == nil || t.Kind() != reflect.Struct {
			b.errs = append(b.errs, InvalidEntryPointError{Module: describe(b.module), Type: keys.TypeName(t)})
			continue
		}
		b.entryPoints = append(b.entryPoints, keys.Members(t))
	}
}

// StaticInjections declares package-level targets whose tagged fields are
// injected by the graph's InjectStatics. Each target must be a pointer to a
// struct; it is inspected when the graph first links static injections.
func (b *Binder) StaticInjections(targets ...any) {
	b.statics = append(b.statics, targets...)
}

// Include adds modules whose declarations are assembled alongside this one.
func (b *Binder) Include(modules ...Module) {
	b.includes = append(b.includes, modules...)
}

// Provides binds the result type of fn. fn must have the shape
// func(deps...) T or func(deps...) (T, error).
func (b *Binder) Provides(fn any, opts ...ProvideOption) {
	o := collect(opts)
	pb, err := binding.Provides(fn, o.name, o.params, o.singleton, b.module)
	if err != nil {
		b.errs = append(b.errs, err)
		return
	}
	b.bindings = append(b.bindings, pb)
}

// Instance binds value under its dynamic type.
func (b *Binder) Instance(value any, opts ...ProvideOption) {
	if value == nil {
		b.errs = append(b.errs, InvalidInstanceError{Module: describe(b.module)})
		return
	}
	o := collect(opts)
	key := keys.Qualified(reflect.TypeOf(value), o.name)
	b.bindings = append(b.bindings, binding.Instance(key, value, b.module))
}

// Error records a declaration error; the module fails to load.
func (b *Binder) Error(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

// ProvideOption adjusts a Provides or Instance declaration.
type ProvideOption func(*provideOptions)

type provideOptions struct {
	name      string
	params    []string
	singleton bool
}

// Named qualifies the provided key.
func Named(name string) ProvideOption {
	return func(o *provideOptions) { o.name = name }
}

// Singleton scopes the binding to one value per graph.
func Singleton() ProvideOption {
	return func(o *provideOptions) { o.singleton = true }
}

// Params qualifies the provider's parameters positionally; "" leaves a
// parameter unqualified.
func Params(qualifiers ...string) ProvideOption {
	return func(o *provideOptions) { o.params = qualifiers }
}

func collect(opts []ProvideOption) provideOptions {
	var o provideOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func describe(m Module) string {
	if m == nil {
		return "<nil>"
	}
	return keys.TypeName(reflect.TypeOf(m))
}
