package binding

import "github.com/sghaida/objectgraph/keys"

// InstanceBinding always provides the same value.
type InstanceBinding struct {
	Base
	value any
}

// Instance binds key to value.
func Instance(key keys.Key, value any, requiredBy any) *InstanceBinding {
	return &InstanceBinding{Base: NewBase(key, "", requiredBy, false), value: value}
}

func (b *InstanceBinding) Get() (any, error) { return b.value, nil }
