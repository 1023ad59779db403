// Package problems inspects a linked set of bindings and reports everything
// wrong with it at once: keys nothing could satisfy, bindings that never
// linked, and dependency cycles.
//
// Only direct edges count towards cycles. A dependency on a Provider or
// MembersInjector handle is resolved when the handle is used, so it is how a
// cycle is legitimately broken.
package problems

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sghaida/objectgraph/binding"
	"github.com/sghaida/objectgraph/keys"
)

// Kind categorizes a problem.
type Kind string

const (
	KindUnresolved Kind = "unresolved"
	KindUnlinked   Kind = "unlinked"
	KindCycle      Kind = "cycle"
)

// Problem is one defect of a graph. It implements error so a report can be
// combined and unpacked with multierr.
type Problem struct {
	Kind       Kind
	Key        keys.Key
	RequiredBy string
	Detail     string
	// Path lists the keys of a cycle, starting and ending with Key.
	Path []keys.Key
}

// Error implements the error interface.
func (p Problem) Error() string {
	var b strings.Builder
	b.WriteString("objectgraph: ")
	switch p.Kind {
	case KindCycle:
		b.WriteString("dependency cycle ")
		for i, k := range p.Path {
			if i > 0 {
				b.WriteString(" -> ")
			}
			b.WriteString(string(k))
		}
	case KindUnlinked:
		b.WriteString("binding " + strconv.Quote(string(p.Key)) + " is not linked")
	default:
		b.WriteString("no binding for " + strconv.Quote(string(p.Key)))
		if p.RequiredBy != "" {
			b.WriteString(" required by " + p.RequiredBy)
		}
	}
	if p.Detail != "" {
		b.WriteString(" (" + p.Detail + ")")
	}
	return b.String()
}

// Detector finds problems in a set of bindings.
type Detector struct{}

// Detect reports every problem in bindings. It never fails; an empty result
// means the graph is sound. An unresolved key is reported once for every
// binding that depends on it, plus once for its first requirer when that is
// not a binding (an entry point's module, a static injection).
func (Detector) Detect(bindings []binding.Binding) []Problem {
	requirers := make(map[*binding.UnresolvedBinding][]string)
	for _, b := range bindings {
		for _, d := range b.Dependencies() {
			if u, ok := d.(*binding.UnresolvedBinding); ok {
				requirers[u] = append(requirers[u], binding.Describe(unwrap(b)))
			}
		}
	}

	var out []Problem
	for _, b := range bindings {
		if u, ok := b.(*binding.UnresolvedBinding); ok {
			e := u.Err()
			seen := make(map[string]bool)
			for _, by := range append([]string{e.RequiredBy}, requirers[u]...) {
				if seen[by] {
					continue
				}
				seen[by] = true
				out = append(out, Problem{
					Kind:       KindUnresolved,
					Key:        e.Key,
					RequiredBy: by,
					Detail:     e.Reason,
				})
			}
			continue
		}
		if !b.Linked() {
			out = append(out, Problem{Kind: KindUnlinked, Key: keyOf(b)})
		}
	}
	return append(out, Cycles(bindings)...)
}

// Cycles reports each dependency cycle reachable from roots once.
func Cycles(roots []binding.Binding) []Problem {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[binding.Binding]int)
	reported := make(map[string]bool)
	var (
		stack []binding.Binding
		out   []Problem
		visit func(b binding.Binding)
	)
	visit = func(b binding.Binding) {
		state[b] = visiting
		stack = append(stack, b)
		for _, d := range b.Dependencies() {
			if d == nil {
				continue
			}
			switch state[d] {
			case unvisited:
				visit(d)
			case visiting:
				if p, sig := cycleFrom(stack, d); !reported[sig] {
					reported[sig] = true
					out = append(out, p)
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[b] = done
	}
	for _, r := range roots {
		if r != nil && state[r] == unvisited {
			visit(r)
		}
	}
	return out
}

// cycleFrom builds the problem for the cycle closing at d, plus a signature
// that is the same for every rotation of the cycle.
func cycleFrom(stack []binding.Binding, d binding.Binding) (Problem, string) {
	start := 0
	for i, b := range stack {
		if b == d {
			start = i
			break
		}
	}
	members := stack[start:]
	path := make([]keys.Key, 0, len(members)+1)
	for _, b := range members {
		path = append(path, keyOf(b))
	}
	path = append(path, keyOf(d))

	sorted := make([]string, len(members))
	for i, k := range path[:len(members)] {
		sorted[i] = string(k)
	}
	sort.Strings(sorted)
	return Problem{Kind: KindCycle, Key: keyOf(d), Path: path}, strings.Join(sorted, "|")
}

// unwrap returns the binding a singleton scope wraps; dependencies are
// attached on behalf of the delegate.
func unwrap(b binding.Binding) binding.Binding {
	if s, ok := b.(*binding.SingletonBinding); ok {
		return s.Delegate()
	}
	return b
}

func keyOf(b binding.Binding) keys.Key {
	if k := b.ProvideKey(); k != "" {
		return k
	}
	return b.MembersKey()
}
