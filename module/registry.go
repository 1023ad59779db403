package module

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry supplies named values to a graph through RegistryModule.
//
// It is intentionally:
// - read-only
// - side effect free
// - consulted once, while the module is configured
type Registry interface {
	Resolve(key string) (val any, ok bool, err error)
	Keys() []string
}

// ErrRegistryPanic is returned if a registry implementation panics internally.
var ErrRegistryPanic = errors.New("registry: panic during Resolve")

// MapRegistry is a simple in-memory registry.
type MapRegistry struct {
	items map[string]any
}

func NewMapRegistry() *MapRegistry {
	return &MapRegistry{items: map[string]any{}}
}

// Provide stores a value under a key and returns the registry for chaining.
func (r *MapRegistry) Provide(key string, val any) *MapRegistry {
	r.items[key] = val
	return r
}

// Resolve implements Registry and converts panics into errors.
func (r *MapRegistry) Resolve(key string) (val any, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			ok = false
			err = fmt.Errorf("%w: %v", ErrRegistryPanic, rec)
		}
	}()

	v, ok := r.items[key]
	return v, ok, nil
}

// Keys returns the stored keys in sorted order.
func (r *MapRegistry) Keys() []string {
	out := make([]string, 0, len(r.items))
	for k := range r.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LoadRegistry decodes a YAML mapping into a registry. Nested mappings are
// flattened into dotted keys:
//
//	coffee:
//	  brand: Kona   # coffee.brand
//	  cups: 2       # coffee.cups
func LoadRegistry(r io.Reader) (*MapRegistry, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("registry: decode yaml: %w", err)
	}
	reg := NewMapRegistry()
	flatten("", doc, reg)
	return reg, nil
}

// LoadRegistryFile reads a YAML registry from path.
func LoadRegistryFile(path string) (*MapRegistry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	defer f.Close()
	return LoadRegistry(f)
}

func flatten(prefix string, m map[string]any, reg *MapRegistry) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, reg)
			continue
		}
		reg.Provide(key, v)
	}
}

// RegistryModule binds every registry entry as an instance of its dynamic
// type, qualified by its key. Entries with nil values are skipped.
type RegistryModule struct {
	Registry Registry
	Override bool
}

// Configure implements Module.
func (m RegistryModule) Configure(b *Binder) {
	if m.Override {
		b.Overrides()
	}
	if m.Registry == nil {
		return
	}
	for _, k := range m.Registry.Keys() {
		v, ok, err := m.Registry.Resolve(k)
		if err != nil {
			b.Error(err)
			continue
		}
		if !ok || v == nil {
			continue
		}
		b.Instance(v, Named(k))
	}
}
