package module

import (
	"reflect"

	"go.uber.org/multierr"

	"github.com/sghaida/objectgraph/binding"
	"github.com/sghaida/objectgraph/keys"
)

// Adapter is everything one module declared.
type Adapter struct {
	Module           Module
	Type             reflect.Type
	Overrides        bool
	EntryPoints      []keys.Key
	StaticInjections []any
	Includes         []Module

	bindings []binding.Binding
}

// ForModule runs m's declarations. Every call builds fresh bindings, so
// singletons are never shared between graphs.
func ForModule(m Module) (*Adapter, error) {
	if m == nil || isNilPointer(m) {
		return nil, ErrNilModule
	}
	b := &Binder{module: m}
	m.Configure(b)
	if len(b.errs) > 0 {
		return nil, multierr.Combine(b.errs...)
	}
	return &Adapter{
		Module:           m,
		Type:             reflect.TypeOf(m),
		Overrides:        b.overrides,
		EntryPoints:      b.entryPoints,
		StaticInjections: b.statics,
		Includes:         b.includes,
		bindings:         b.bindings,
	}, nil
}

// Bindings returns the module's bindings in declaration order.
func (a *Adapter) Bindings() []binding.Binding { return a.bindings }

// ForModules adapts modules in order, each followed depth first by the
// modules it includes. A comparable module value seen before is skipped, so
// a module included from several places is assembled once.
func ForModules(modules []Module) ([]*Adapter, error) {
	var (
		out  []*Adapter
		seen = make(map[any]bool)
		walk func(ms []Module) error
	)
	walk = func(ms []Module) error {
		for _, m := range ms {
			if m != nil && reflect.ValueOf(m).Comparable() {
				if seen[m] {
					continue
				}
				seen[m] = true
			}
			a, err := ForModule(m)
			if err != nil {
				return err
			}
			out = append(out, a)
			if err := walk(a.Includes); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(modules); err != nil {
		return nil, err
	}
	return out, nil
}

func isNilPointer(m Module) bool {
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
