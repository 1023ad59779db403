package graph

import (
	"github.com/sghaida/objectgraph/binding"
	"github.com/sghaida/objectgraph/keys"
)

// uniqueMap is a binding table that refuses a second binding for a key.
type uniqueMap struct {
	bindings map[keys.Key]binding.Binding
}

func newUniqueMap() *uniqueMap {
	return &uniqueMap{bindings: make(map[keys.Key]binding.Binding)}
}

func (u *uniqueMap) put(b binding.Binding) error {
	k := b.ProvideKey()
	if k == "" {
		k = b.MembersKey()
	}
	if prev, ok := u.bindings[k]; ok {
		return DuplicateBindingError{
			Key:    k,
			First:  binding.Describe(prev.RequiredBy()),
			Second: binding.Describe(b.RequiredBy()),
		}
	}
	u.bindings[k] = b
	return nil
}
