package binding

import (
	"reflect"

	"github.com/sghaida/objectgraph/inject"
	"github.com/sghaida/objectgraph/keys"
)

var (
	singletonType  = reflect.TypeFor[inject.Singleton]()
	injectableType = reflect.TypeFor[inject.Injectable]()
)

// Field is one injected field of a struct type.
type Field struct {
	Name  string
	Index []int
	Type  reflect.Type
	Key   keys.Key
}

// Fields returns the injected fields of the struct type t, including those
// of embedded (non-pointer) structs, in declaration order.
func Fields(t reflect.Type) ([]Field, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, InvalidTargetError{Type: keys.TypeName(t), Reason: "not a struct"}
	}
	var out []Field
	if err := collectFields(t, t, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectFields(root, t reflect.Type, prefix []int, out *[]Field) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		tag, tagged := f.Tag.Lookup(inject.Tag)
		if !tagged {
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				if err := collectFields(root, f.Type, index, out); err != nil {
					return err
				}
			}
			continue
		}
		if !f.IsExported() {
			return UnexportedFieldError{Type: keys.TypeName(root), Field: f.Name}
		}
		*out = append(*out, Field{
			Name:  f.Name,
			Index: index,
			Type:  f.Type,
			Key:   keys.Qualified(f.Type, tag),
		})
	}
	return nil
}

// IsSingleton reports whether the struct type t embeds inject.Singleton.
func IsSingleton(t reflect.Type) bool { return embeds(t, singletonType) }

// IsInjectable reports whether the graph may construct t on demand: it
// declares injected fields or embeds one of the inject markers.
func IsInjectable(t reflect.Type) bool {
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	if embeds(t, singletonType) || embeds(t, injectableType) {
		return true
	}
	// A malformed struct counts as injectable so Struct can report why.
	fields, err := Fields(t)
	return err != nil || len(fields) > 0
}

func embeds(t, marker reflect.Type) bool {
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.Anonymous && f.Type == marker {
			return true
		}
	}
	return false
}

// StructBinding constructs *T values and injects the members of existing
// ones through T's injected fields.
type StructBinding struct {
	Base
	typ    reflect.Type
	fields []Field
	deps   []Binding
}

// Struct builds the binding for struct type t (or the struct a pointer type
// points to). It provides *T and injects members of T.
func Struct(t reflect.Type, requiredBy any) (*StructBinding, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	fields, err := Fields(t)
	if err != nil {
		return nil, err
	}
	return &StructBinding{
		Base:   NewBase(keys.Of(reflect.PointerTo(t)), keys.Members(t), requiredBy, IsSingleton(t)),
		typ:    t,
		fields: fields,
	}, nil
}

// Type returns the struct type this binding injects.
func (b *StructBinding) Type() reflect.Type { return b.typ }

func (b *StructBinding) Attach(r Requester) {
	deps := make([]Binding, len(b.fields))
	for i, f := range b.fields {
		deps[i] = r.RequestBinding(f.Key, b)
	}
	b.deps = deps
}

func (b *StructBinding) Get() (any, error) {
	p := reflect.New(b.typ)
	if err := b.injectInto(p.Elem()); err != nil {
		return nil, err
	}
	return p.Interface(), nil
}

func (b *StructBinding) InjectMembers(target any) error {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Type() != b.typ {
		return InvalidTargetError{Type: describeValue(target), Reason: "want non-nil *" + keys.TypeName(b.typ)}
	}
	return b.injectInto(v.Elem())
}

func (b *StructBinding) Dependencies() []Binding { return b.deps }

func (b *StructBinding) injectInto(s reflect.Value) error {
	if len(b.deps) != len(b.fields) {
		return NotLinkedError{Key: b.MembersKey()}
	}
	// Resolve everything first so a failure leaves the target untouched.
	values := make([]reflect.Value, len(b.fields))
	for i, f := range b.fields {
		d := b.deps[i]
		if d == nil {
			return NotLinkedError{Key: f.Key}
		}
		v, err := d.Get()
		if err != nil {
			return err
		}
		values[i] = valueOf(v, f.Type)
	}
	for i, f := range b.fields {
		s.FieldByIndex(f.Index).Set(values[i])
	}
	return nil
}

func describeValue(v any) string {
	if v == nil {
		return "<nil>"
	}
	return keys.TypeName(reflect.TypeOf(v))
}
