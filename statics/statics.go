// Package statics injects package-level variables.
//
// Go has no static fields, so a static injection target is a pointer to a
// package-level struct whose tagged fields are injected:
//
//	var Settings struct {
//		Endpoint string `inject:"endpoint"`
//	}
//
//	b.StaticInjections(&Settings)
package statics

import (
	"reflect"

	"github.com/sghaida/objectgraph/binding"
	"github.com/sghaida/objectgraph/keys"
)

// StaticInjection injects the tagged fields of one target.
type StaticInjection struct {
	target   any
	value    reflect.Value
	fields   []binding.Field
	bindings []binding.Binding
}

// ForTarget inspects target, which must be a non-nil pointer to a struct.
func ForTarget(target any) (*StaticInjection, error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, binding.InvalidTargetError{Type: Describe(target), Reason: "static injection target must be a non-nil pointer to a struct"}
	}
	fields, err := binding.Fields(v.Elem().Type())
	if err != nil {
		return nil, err
	}
	return &StaticInjection{target: target, value: v.Elem(), fields: fields}, nil
}

// Target returns the pointer this injection writes through.
func (s *StaticInjection) Target() any { return s.target }

// Attach requests the binding of every field from r. Fields whose keys have
// no binding yet get nil until a later Attach after a link pass.
func (s *StaticInjection) Attach(r binding.Requester) {
	bindings := make([]binding.Binding, len(s.fields))
	for i, f := range s.fields {
		bindings[i] = r.RequestBinding(f.Key, s)
	}
	s.bindings = bindings
}

// Bindings returns the bindings attached by the last Attach.
func (s *StaticInjection) Bindings() []binding.Binding { return s.bindings }

// Inject writes the resolved value of every field. Nothing is written unless
// every field resolves.
func (s *StaticInjection) Inject() error {
	if len(s.bindings) != len(s.fields) {
		return binding.NotLinkedError{Key: keys.Members(s.value.Type())}
	}
	values := make([]reflect.Value, len(s.fields))
	for i, f := range s.fields {
		b := s.bindings[i]
		if b == nil {
			return binding.NotLinkedError{Key: f.Key}
		}
		v, err := b.Get()
		if err != nil {
			return err
		}
		if v == nil {
			values[i] = reflect.Zero(f.Type)
		} else {
			values[i] = reflect.ValueOf(v)
		}
	}
	for i, f := range s.fields {
		s.value.FieldByIndex(f.Index).Set(values[i])
	}
	return nil
}

func (s *StaticInjection) String() string {
	return "static " + Describe(s.target)
}

// Describe names a static injection target.
func Describe(target any) string {
	if target == nil {
		return "<nil>"
	}
	return keys.TypeName(reflect.TypeOf(target))
}
