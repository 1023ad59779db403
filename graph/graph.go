package graph

import (
	"errors"
	"reflect"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sghaida/objectgraph/binding"
	"github.com/sghaida/objectgraph/config"
	"github.com/sghaida/objectgraph/keys"
	"github.com/sghaida/objectgraph/linker"
	"github.com/sghaida/objectgraph/module"
	"github.com/sghaida/objectgraph/problems"
	"github.com/sghaida/objectgraph/statics"
)

// Graph is an assembled object graph.
type Graph struct {
	id     uuid.UUID
	lazy   bool
	linker *linker.Linker
	log    *zap.Logger

	// statics keeps declaration order; a nil injection has not been
	// materialized yet.
	statics     []staticEntry
	staticIndex map[any]int

	entryPoints []entryPoint
	entryIndex  map[keys.Key]int
}

type staticEntry struct {
	target    any
	injection *statics.StaticInjection
}

type entryPoint struct {
	key    keys.Key
	module reflect.Type
}

// Get assembles an eagerly linked graph.
func Get(modules ...module.Module) (*Graph, error) {
	return Assemble(false, modules...)
}

// GetLazy assembles a graph that links on first use.
func GetLazy(modules ...module.Module) (*Graph, error) {
	return Assemble(true, modules...)
}

// Assemble merges modules, in order, into a graph. Unless lazy, the graph is
// linked completely before Assemble returns.
func Assemble(lazy bool, modules ...module.Module) (*Graph, error) {
	return assemble(lazy, nil, modules)
}

// New assembles a graph as opts direct: linking mode, optional metrics,
// an optional YAML registry and an optional problem check. Registry file
// entries are bound by an override module, so they replace same-named
// values of ordinary modules.
func New(opts config.Options, modules ...module.Module) (*Graph, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var m *linker.Metrics
	if opts.Metrics {
		reg := opts.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		var err error
		if m, err = linker.NewMetrics(reg); err != nil {
			return nil, err
		}
	}

	if opts.RegistryFile != "" {
		reg, err := module.LoadRegistryFile(opts.RegistryFile)
		if err != nil {
			return nil, err
		}
		modules = append(modules[:len(modules):len(modules)], module.RegistryModule{Registry: reg, Override: true})
	}

	g, err := assemble(opts.Lazy, m, modules)
	if err != nil {
		return nil, err
	}
	if opts.DetectProblems {
		if err := g.DetectProblems(); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func assemble(lazy bool, m *linker.Metrics, modules []module.Module) (*Graph, error) {
	adapters, err := module.ForModules(modules)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		id:          uuid.New(),
		lazy:        lazy,
		linker:      linker.New(),
		staticIndex: make(map[any]int),
		entryIndex:  make(map[keys.Key]int),
	}
	g.log = linker.Logger().With(zap.String("graph_id", g.id.String()))
	g.linker.SetMetrics(m)

	base, overrides := newUniqueMap(), newUniqueMap()
	for _, a := range adapters {
		for _, k := range a.EntryPoints {
			g.addEntryPoint(k, a.Type)
		}
		for _, target := range a.StaticInjections {
			var si *statics.StaticInjection
			if !lazy {
				if si, err = statics.ForTarget(target); err != nil {
					return nil, err
				}
			}
			g.addStatic(target, si)
		}
		into := base
		if a.Overrides {
			into = overrides
		}
		for _, b := range a.Bindings() {
			if err := into.put(b); err != nil {
				return nil, err
			}
		}
	}

	g.linker.InstallBindings(base.bindings)
	g.linker.InstallBindings(overrides.bindings)
	g.log.Debug("assembled graph",
		zap.Bool("lazy", lazy),
		zap.Int("modules", len(adapters)),
		zap.Int("entry_points", len(g.entryPoints)),
		zap.Int("static_injections", len(g.statics)))

	if !lazy {
		if err := g.linkStaticInjections(); err != nil {
			return nil, err
		}
		g.linkEntryPoints()
		bindings, err := g.linker.LinkAll()
		if err != nil {
			return nil, err
		}
		if err := combine(problems.Cycles(bindings)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ID identifies the graph in logs.
func (g *Graph) ID() string { return g.id.String() }

// Lazy reports whether the graph links on first use.
func (g *Graph) Lazy() bool { return g.lazy }

// DetectProblems links every declaration and reports all problems of the
// graph at once. The error unpacks with multierr.Errors into
// problems.Problem values. It does not inject anything and may be called
// repeatedly.
func (g *Graph) DetectProblems() error {
	var errs []error
	if err := g.linkStaticInjections(); err != nil {
		errs = append(errs, err)
	}
	g.linkEntryPoints()
	bindings, err := g.linker.LinkAll()
	for _, e := range multierr.Errors(err) {
		// Unresolved keys are reported by the detector.
		var ue binding.UnresolvedError
		if !errors.As(e, &ue) {
			errs = append(errs, e)
		}
	}
	for _, p := range (problems.Detector{}).Detect(bindings) {
		errs = append(errs, p)
	}
	if len(errs) > 0 {
		g.log.Debug("detected problems", zap.Int("count", len(errs)))
	}
	return multierr.Combine(errs...)
}

// InjectStatics injects every static injection target, in declaration
// order. Each call resolves and writes the values again.
func (g *Graph) InjectStatics() error {
	if err := g.linkStaticInjections(); err != nil {
		return err
	}
	if err := g.linker.LinkRequested(); err != nil {
		return err
	}
	// Attach again, now that the requested bindings are linked.
	if err := g.linkStaticInjections(); err != nil {
		return err
	}

	var roots []binding.Binding
	for _, e := range g.statics {
		roots = append(roots, e.injection.Bindings()...)
	}
	if err := combine(problems.Cycles(roots)); err != nil {
		return err
	}

	for _, e := range g.statics {
		if err := e.injection.Inject(); err != nil {
			return err
		}
	}
	g.log.Debug("injected statics", zap.Int("count", len(g.statics)))
	return nil
}

// Inject injects the tagged fields of instance, which must be a pointer to a
// struct some module declared as an entry point.
func (g *Graph) Inject(instance any) error {
	v := reflect.ValueOf(instance)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrInvalidInstance
	}
	key := keys.Members(v.Type())
	i, ok := g.entryIndex[key]
	if !ok {
		return MissingEntryPointError{Type: keys.TypeName(v.Type().Elem())}
	}
	requiredBy := g.entryPoints[i].module

	b := g.linker.RequestBinding(key, requiredBy)
	if b == nil || !b.Linked() {
		if err := g.linker.LinkRequested(); err != nil {
			return err
		}
		if b = g.linker.RequestBinding(key, requiredBy); b == nil {
			return binding.NotLinkedError{Key: key}
		}
	}
	// Checked on every call: an earlier pass may have linked b unchecked.
	if err := combine(problems.Cycles([]binding.Binding{b})); err != nil {
		return err
	}
	if err := b.InjectMembers(instance); err != nil {
		return err
	}
	g.log.Debug("injected members", zap.Stringer("key", key))
	return nil
}

// linkStaticInjections materializes pending static injections and attaches
// every one of them. It is safe to run any number of times.
func (g *Graph) linkStaticInjections() error {
	var errs []error
	for i := range g.statics {
		e := &g.statics[i]
		if e.injection == nil {
			si, err := statics.ForTarget(e.target)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			e.injection = si
		}
		e.injection.Attach(g.linker)
	}
	return multierr.Combine(errs...)
}

// linkEntryPoints requests the binding of every entry point on behalf of
// the module that declared it.
func (g *Graph) linkEntryPoints() {
	for _, ep := range g.entryPoints {
		g.linker.RequestBinding(ep.key, ep.module)
	}
}

// addEntryPoint records key for module; the last module to declare a key
// wins.
func (g *Graph) addEntryPoint(key keys.Key, module reflect.Type) {
	if i, ok := g.entryIndex[key]; ok {
		g.entryPoints[i].module = module
		return
	}
	g.entryIndex[key] = len(g.entryPoints)
	g.entryPoints = append(g.entryPoints, entryPoint{key: key, module: module})
}

func (g *Graph) addStatic(target any, si *statics.StaticInjection) {
	if target == nil || !reflect.ValueOf(target).Comparable() {
		g.statics = append(g.statics, staticEntry{target: target, injection: si})
		return
	}
	if i, ok := g.staticIndex[target]; ok {
		g.statics[i].injection = si
		return
	}
	g.staticIndex[target] = len(g.statics)
	g.statics = append(g.statics, staticEntry{target: target, injection: si})
}

func combine(ps []problems.Problem) error {
	errs := make([]error, len(ps))
	for i, p := range ps {
		errs[i] = p
	}
	return multierr.Combine(errs...)
}
