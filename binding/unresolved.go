package binding

import "github.com/sghaida/objectgraph/keys"

// UnresolvedBinding stands in for a key that could not be satisfied. It keeps
// later link passes from retrying the key; every use fails.
type UnresolvedBinding struct {
	Base
	reason string
}

// Unresolved returns the stand-in for key.
func Unresolved(key keys.Key, requiredBy any, reason string) *UnresolvedBinding {
	return &UnresolvedBinding{Base: NewBase(key, "", requiredBy, false), reason: reason}
}

// Err returns the failure every use of this binding reports.
func (b *UnresolvedBinding) Err() UnresolvedError {
	return UnresolvedError{Key: b.ProvideKey(), RequiredBy: Describe(b.RequiredBy()), Reason: b.reason}
}

func (b *UnresolvedBinding) Get() (any, error) { return nil, b.Err() }
func (b *UnresolvedBinding) InjectMembers(any) error { return b.Err() }
