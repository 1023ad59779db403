// Package keys derives the canonical string identity of everything an object
// graph can resolve.
//
// A key names a type, optionally qualified, in one of four roles:
//
//	string                                   value
//	@"brand"/string                          qualified value
//	provider<github.com/acme/coffee.Pump>    deferred provider of a value
//	members-injector<github.com/acme/app.UI> deferred members injector
//	members/github.com/acme/app.UI           members of a struct type
//
// Keys are derived from reflect.Type values and remember the type they were
// derived from, so the linker can synthesize bindings for keys nobody
// installed.
package keys

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/sghaida/objectgraph/inject"
)

// Key is the canonical identity of a resolution target.
type Key string

func (k Key) String() string { return string(k) }

// Role is the part a key plays in resolution.
type Role uint8

const (
	RoleValue Role = iota
	RoleProvider
	RoleMembersInjector
	RoleMembers
)

func (r Role) String() string {
	switch r {
	case RoleProvider:
		return "provider"
	case RoleMembersInjector:
		return "members-injector"
	case RoleMembers:
		return "members"
	default:
		return "value"
	}
}

const (
	membersPrefix  = "members/"
	providerPrefix = "provider<"
	injectorPrefix = "members-injector<"
)

// types maps every derived key back to its type.
var types sync.Map

// Of returns the unqualified key for t.
func Of(t reflect.Type) Key { return Qualified(t, "") }

// For returns the unqualified key for T.
func For[T any]() Key { return Of(reflect.TypeFor[T]()) }

// Named returns the key for T qualified by name.
func Named[T any](name string) Key { return Qualified(reflect.TypeFor[T](), name) }

// Qualified returns the key for t qualified by qualifier. Provider types
// produce provider keys carrying the qualifier of the provided value;
// MembersInjector types ignore the qualifier.
func Qualified(t reflect.Type, qualifier string) Key {
	var k Key
	switch kind, elem := inject.Deferred(t); kind {
	case inject.KindProvider:
		k = qualify(qualifier, providerPrefix+TypeName(elem)+">")
		remember(qualify(qualifier, TypeName(elem)), elem)
	case inject.KindMembersInjector:
		k = Key(injectorPrefix + TypeName(elem) + ">")
		Members(elem)
	default:
		k = qualify(qualifier, TypeName(t))
	}
	remember(k, t)
	return k
}

// Members returns the members key of the struct type t. Pointer types are
// dereferenced, so Members(*T) == Members(T).
func Members(t reflect.Type) Key {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	k := Key(membersPrefix + TypeName(t))
	remember(k, t)
	return k
}

// TypeOf returns the type k was derived from.
func TypeOf(k Key) (reflect.Type, bool) {
	v, ok := types.Load(k)
	if !ok {
		return nil, false
	}
	return v.(reflect.Type), true
}

// Split separates the qualifier from the rest of the key. The qualifier is
// empty for unqualified keys.
func Split(k Key) (qualifier string, rest string) {
	s := string(k)
	if !strings.HasPrefix(s, "@") {
		return "", s
	}
	quoted, err := strconv.QuotedPrefix(s[1:])
	if err != nil {
		return "", s
	}
	q, err := strconv.Unquote(quoted)
	if err != nil {
		return "", s
	}
	return q, strings.TrimPrefix(s[1+len(quoted):], "/")
}

// IsQualified reports whether k carries a qualifier.
func IsQualified(k Key) bool {
	q, _ := Split(k)
	return q != ""
}

// RoleOf returns the role k plays.
func RoleOf(k Key) Role {
	_, rest := Split(k)
	switch {
	case strings.HasPrefix(rest, providerPrefix):
		return RoleProvider
	case strings.HasPrefix(rest, injectorPrefix):
		return RoleMembersInjector
	case strings.HasPrefix(rest, membersPrefix):
		return RoleMembers
	default:
		return RoleValue
	}
}

// Element returns the key a deferred key delegates to: the qualified value
// key for providers and the members key for members injectors.
func Element(k Key) (Key, bool) {
	q, rest := Split(k)
	switch RoleOf(k) {
	case RoleProvider:
		return qualify(q, strings.TrimSuffix(strings.TrimPrefix(rest, providerPrefix), ">")), true
	case RoleMembersInjector:
		return Key(membersPrefix + strings.TrimSuffix(strings.TrimPrefix(rest, injectorPrefix), ">")), true
	default:
		return "", false
	}
}

// TypeName renders t with full package paths so that equally named types
// from different packages never share a key.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() != "" {
		if t.PkgPath() != "" {
			return t.PkgPath() + "." + t.Name()
		}
		return t.Name()
	}
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + TypeName(t.Elem())
	case reflect.Slice:
		return "[]" + TypeName(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + TypeName(t.Elem())
	case reflect.Map:
		return "map[" + TypeName(t.Key()) + "]" + TypeName(t.Elem())
	case reflect.Chan:
		return chanName(t)
	case reflect.Func:
		return "func" + signature(t)
	case reflect.Interface:
		return interfaceName(t)
	case reflect.Struct:
		return structName(t)
	default:
		return t.String()
	}
}

func chanName(t reflect.Type) string {
	elem := TypeName(t.Elem())
	switch t.ChanDir() {
	case reflect.RecvDir:
		return "<-chan " + elem
	case reflect.SendDir:
		return "chan<- " + elem
	}
	if t.Elem().Kind() == reflect.Chan && t.Elem().ChanDir() == reflect.RecvDir {
		elem = "(" + elem + ")"
	}
	return "chan " + elem
}

// signature renders the parameters and results of the func type t.
func signature(t reflect.Type) string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < t.NumIn(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if t.IsVariadic() && i == t.NumIn()-1 {
			b.WriteString("..." + TypeName(t.In(i).Elem()))
			continue
		}
		b.WriteString(TypeName(t.In(i)))
	}
	b.WriteByte(')')
	switch t.NumOut() {
	case 0:
	case 1:
		b.WriteString(" " + TypeName(t.Out(0)))
	default:
		b.WriteString(" (")
		for i := 0; i < t.NumOut(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(TypeName(t.Out(i)))
		}
		b.WriteByte(')')
	}
	return b.String()
}

func interfaceName(t reflect.Type) string {
	if t.NumMethod() == 0 {
		return "interface {}"
	}
	parts := make([]string, t.NumMethod())
	for i := range parts {
		m := t.Method(i)
		parts[i] = memberName(m.PkgPath, m.Name) + signature(m.Type)
	}
	return "interface { " + strings.Join(parts, "; ") + " }"
}

func structName(t reflect.Type) string {
	if t.NumField() == 0 {
		return "struct {}"
	}
	parts := make([]string, t.NumField())
	for i := range parts {
		f := t.Field(i)
		part := TypeName(f.Type)
		if !f.Anonymous {
			part = memberName(f.PkgPath, f.Name) + " " + part
		}
		if f.Tag != "" {
			part += " " + strconv.Quote(string(f.Tag))
		}
		parts[i] = part
	}
	return "struct { " + strings.Join(parts, "; ") + " }"
}

// memberName qualifies unexported names, which are distinct per package.
func memberName(pkgPath, name string) string {
	if pkgPath == "" {
		return name
	}
	return pkgPath + "." + name
}

func qualify(qualifier, rest string) Key {
	if qualifier == "" {
		return Key(rest)
	}
	return Key("@" + strconv.Quote(qualifier) + "/" + rest)
}

func remember(k Key, t reflect.Type) {
	if t != nil {
		types.LoadOrStore(k, t)
	}
}
