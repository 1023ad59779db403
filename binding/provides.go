package binding

import (
	"reflect"
	"strconv"

	"github.com/sghaida/objectgraph/keys"
)

var errorType = reflect.TypeFor[error]()

// ProvidesBinding provides values by calling a provider function. Every
// parameter of the function is a dependency.
type ProvidesBinding struct {
	Base
	fn     reflect.Value
	params []keys.Key
	deps   []Binding
	errOut bool
}

// Provides builds a binding from fn, which must have the shape
// func(deps...) T or func(deps...) (T, error). qualifier qualifies the
// provided key; paramQualifiers qualify the parameters positionally.
func Provides(fn any, qualifier string, paramQualifiers []string, singleton bool, requiredBy any) (*ProvidesBinding, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, InvalidProviderError{Func: describeFunc(fn), Reason: "not a function"}
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, InvalidProviderError{Func: t.String(), Reason: "variadic providers are not supported"}
	}

	var errOut bool
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
		errOut = true
	default:
		return nil, InvalidProviderError{Func: t.String(), Reason: "must return T or (T, error)"}
	}
	if len(paramQualifiers) > t.NumIn() {
		return nil, InvalidProviderError{
			Func:   t.String(),
			Reason: strconv.Itoa(len(paramQualifiers)) + " parameter qualifiers for " + strconv.Itoa(t.NumIn()) + " parameters",
		}
	}

	key := keys.Qualified(t.Out(0), qualifier)
	if keys.RoleOf(key) != keys.RoleValue {
		return nil, InvalidProviderError{Func: t.String(), Reason: "cannot provide a Provider or MembersInjector"}
	}

	params := make([]keys.Key, t.NumIn())
	for i := range params {
		var q string
		if i < len(paramQualifiers) {
			q = paramQualifiers[i]
		}
		params[i] = keys.Qualified(t.In(i), q)
	}

	return &ProvidesBinding{
		Base:   NewBase(key, "", requiredBy, singleton),
		fn:     v,
		params: params,
		errOut: errOut,
	}, nil
}

// Params returns the dependency keys in parameter order.
func (b *ProvidesBinding) Params() []keys.Key { return b.params }

func (b *ProvidesBinding) Attach(r Requester) {
	deps := make([]Binding, len(b.params))
	for i, k := range b.params {
		deps[i] = r.RequestBinding(k, b)
	}
	b.deps = deps
}

func (b *ProvidesBinding) Get() (any, error) {
	if len(b.deps) != len(b.params) {
		return nil, NotLinkedError{Key: b.ProvideKey()}
	}
	t := b.fn.Type()
	args := make([]reflect.Value, len(b.deps))
	for i, d := range b.deps {
		if d == nil {
			return nil, NotLinkedError{Key: b.params[i]}
		}
		v, err := d.Get()
		if err != nil {
			return nil, err
		}
		args[i] = valueOf(v, t.In(i))
	}

	out := b.fn.Call(args)
	if b.errOut && !out[1].IsNil() {
		return nil, ProvisionError{Key: b.ProvideKey(), Cause: out[1].Interface().(error)}
	}
	return out[0].Interface(), nil
}

func (b *ProvidesBinding) Dependencies() []Binding { return b.deps }

func describeFunc(fn any) string {
	if fn == nil {
		return "<nil>"
	}
	return reflect.TypeOf(fn).String()
}
