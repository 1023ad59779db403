package binding

import (
	"reflect"

	"github.com/sghaida/objectgraph/inject"
	"github.com/sghaida/objectgraph/keys"
)

// BuiltinBinding provides inject.Provider and inject.MembersInjector handles.
// The handle resolves through its delegate only when used, so the delegate is
// not reported as a direct dependency. That is what lets a Provider break a
// dependency cycle.
type BuiltinBinding struct {
	Base
	typ      reflect.Type
	kind     inject.Kind
	elemKey  keys.Key
	delegate Binding
}

// Builtin builds the binding for a provider or members-injector key.
func Builtin(key keys.Key, requiredBy any) (*BuiltinBinding, error) {
	elemKey, ok := keys.Element(key)
	if !ok {
		return nil, UnresolvedError{Key: key, RequiredBy: Describe(requiredBy), Reason: "not a deferred key"}
	}
	t, ok := keys.TypeOf(key)
	if !ok {
		return nil, UnresolvedError{Key: key, RequiredBy: Describe(requiredBy), Reason: "unknown type"}
	}
	kind, _ := inject.Deferred(t)
	if kind == inject.KindNone {
		return nil, UnresolvedError{Key: key, RequiredBy: Describe(requiredBy), Reason: "not a deferred type"}
	}
	return &BuiltinBinding{
		Base:    NewBase(key, "", requiredBy, false),
		typ:     t,
		kind:    kind,
		elemKey: elemKey,
	}, nil
}

// ElementKey returns the key the handle resolves.
func (b *BuiltinBinding) ElementKey() keys.Key { return b.elemKey }

func (b *BuiltinBinding) Attach(r Requester) {
	b.delegate = r.RequestBinding(b.elemKey, b)
}

func (b *BuiltinBinding) Get() (any, error) {
	d := b.delegate
	if d == nil {
		return nil, NotLinkedError{Key: b.elemKey}
	}
	if b.kind == inject.KindProvider {
		return inject.NewProvider(b.typ, d.Get)
	}
	return inject.NewMembersInjector(b.typ, d.InjectMembers)
}
