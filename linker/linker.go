package linker

import (
	"errors"
	"reflect"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sghaida/objectgraph/binding"
	"github.com/sghaida/objectgraph/keys"
)

// Linker links bindings to their dependencies.
type Linker struct {
	bindings map[keys.Key]binding.Binding
	toLink   []binding.Binding
	errs     []error
	metrics  *Metrics

	// attachSuccess is cleared by RequestBinding when the binding currently
	// being attached asks for a key that has no binding yet.
	attachSuccess bool
}

// New returns an empty linker.
func New() *Linker {
	return &Linker{bindings: make(map[keys.Key]binding.Binding)}
}

// SetMetrics makes the linker count its activity in m.
func (l *Linker) SetMetrics(m *Metrics) { l.metrics = m }

// InstallBindings adds toInstall to the table, replacing existing bindings
// for the same keys. Singleton bindings are scoped on the way in.
func (l *Linker) InstallBindings(toInstall map[keys.Key]binding.Binding) {
	for k, b := range toInstall {
		l.bindings[k] = binding.Scope(b)
	}
	l.metrics.addInstalled(len(toInstall))
	Logger().Debug("installed bindings", zap.Int("count", len(toInstall)))
}

// RequestBinding returns the binding for key. If there is none yet, the key
// is queued for the next link pass and nil is returned. Unlinked bindings are
// queued too, so a pass links them before anyone relies on them.
func (l *Linker) RequestBinding(key keys.Key, requiredBy any) binding.Binding {
	b, ok := l.bindings[key]
	if !ok {
		l.toLink = append(l.toLink, &deferredBinding{Base: binding.NewBase(key, "", requiredBy, false)})
		l.attachSuccess = false
		return nil
	}
	if !b.Linked() {
		l.toLink = append(l.toLink, b)
	}
	return b
}

// LinkRequested links everything queued by RequestBinding. It returns the
// combined errors of every key that could not be satisfied; those keys are
// bound to an unresolved stand-in so the pass still completes.
func (l *Linker) LinkRequested() error {
	l.metrics.incPasses()
	linked := 0
	for len(l.toLink) > 0 {
		b := l.toLink[0]
		l.toLink = l.toLink[1:]

		if d, ok := b.(*deferredBinding); ok {
			key := d.ProvideKey()
			if _, exists := l.bindings[key]; exists {
				// Bound since the request was made.
				continue
			}
			jit, err := l.createJitBinding(key, d.RequiredBy())
			if err != nil {
				l.fail(key, d.RequiredBy(), err)
				continue
			}
			l.toLink = append(l.toLink, jit)
			continue
		}

		l.attachSuccess = true
		b.Attach(l)
		if !l.attachSuccess {
			l.toLink = append(l.toLink, b)
			continue
		}
		if !b.Linked() {
			b.SetLinked()
			l.metrics.incLinked()
			linked++
		}
	}

	errs := l.errs
	l.errs = nil
	Logger().Debug("linked requested bindings",
		zap.Int("linked", linked),
		zap.Int("errors", len(errs)))
	return multierr.Combine(errs...)
}

// LinkAll links every installed and requested binding and returns the
// complete, de-duplicated set ordered by key.
func (l *Linker) LinkAll() ([]binding.Binding, error) {
	for _, k := range l.sortedKeys() {
		if b := l.bindings[k]; !b.Linked() {
			l.toLink = append(l.toLink, b)
		}
	}
	err := l.LinkRequested()
	return l.Bindings(), err
}

// Bindings returns every binding in the table once, ordered by key.
func (l *Linker) Bindings() []binding.Binding {
	seen := make(map[binding.Binding]bool, len(l.bindings))
	out := make([]binding.Binding, 0, len(l.bindings))
	for _, k := range l.sortedKeys() {
		b := l.bindings[k]
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}

// createJitBinding synthesizes and registers a binding for a key nothing was
// installed for.
func (l *Linker) createJitBinding(key keys.Key, requiredBy any) (binding.Binding, error) {
	var (
		b   binding.Binding
		err error
	)
	switch keys.RoleOf(key) {
	case keys.RoleProvider, keys.RoleMembersInjector:
		b, err = binding.Builtin(key, requiredBy)
	case keys.RoleMembers:
		t, ok := keys.TypeOf(key)
		if !ok {
			return nil, unresolved(key, requiredBy, "unknown type")
		}
		b, err = binding.Struct(t, requiredBy)
	default:
		b, err = l.createStructBinding(key, requiredBy)
	}
	if err != nil {
		return nil, err
	}

	b = binding.Scope(b)
	l.putBinding(b)
	if _, ok := l.bindings[key]; !ok {
		return nil, unresolved(key, requiredBy, "synthesized binding does not provide the key")
	}
	l.metrics.incSynthesized()
	Logger().Debug("synthesized binding",
		zap.Stringer("key", key),
		zap.String("required_by", binding.Describe(requiredBy)))
	return b, nil
}

func (l *Linker) createStructBinding(key keys.Key, requiredBy any) (binding.Binding, error) {
	if keys.IsQualified(key) {
		return nil, unresolved(key, requiredBy, "qualified keys need an explicit binding")
	}
	t, ok := keys.TypeOf(key)
	if !ok {
		return nil, unresolved(key, requiredBy, "unknown type")
	}
	if t.Kind() != reflect.Pointer || !binding.IsInjectable(t.Elem()) {
		return nil, unresolved(key, requiredBy, "")
	}
	return binding.Struct(t.Elem(), requiredBy)
}

// putBinding registers b under each of its keys that is still free.
func (l *Linker) putBinding(b binding.Binding) {
	if k := b.ProvideKey(); k != "" {
		if _, exists := l.bindings[k]; !exists {
			l.bindings[k] = b
		}
	}
	if k := b.MembersKey(); k != "" {
		if _, exists := l.bindings[k]; !exists {
			l.bindings[k] = b
		}
	}
}

func (l *Linker) fail(key keys.Key, requiredBy any, err error) {
	var ue binding.UnresolvedError
	if !errors.As(err, &ue) {
		ue = binding.UnresolvedError{
			Key:        key,
			RequiredBy: binding.Describe(requiredBy),
			Reason:     err.Error(),
			Cause:      err,
		}
	}
	l.errs = append(l.errs, ue)
	l.bindings[key] = binding.Unresolved(key, requiredBy, ue.Reason)
	l.metrics.incFailures()
	Logger().Debug("unresolved key",
		zap.Stringer("key", key),
		zap.String("required_by", ue.RequiredBy),
		zap.String("reason", ue.Reason))
}

func (l *Linker) sortedKeys() []keys.Key {
	out := make([]keys.Key, 0, len(l.bindings))
	for k := range l.bindings {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func unresolved(key keys.Key, requiredBy any, reason string) binding.UnresolvedError {
	return binding.UnresolvedError{Key: key, RequiredBy: binding.Describe(requiredBy), Reason: reason}
}

// deferredBinding is the queue entry for a key that had no binding when it
// was requested.
type deferredBinding struct {
	binding.Base
}
