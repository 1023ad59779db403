package linker_test

import (
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sghaida/objectgraph/binding"
	"github.com/sghaida/objectgraph/inject"
	"github.com/sghaida/objectgraph/keys"
	"github.com/sghaida/objectgraph/linker"
)

type Heater interface{ Heat() string }

type electric struct{}

func (electric) Heat() string { return "hot" }

type Thermosiphon struct {
	Heater Heater `inject:""`
}

type Plain struct{ N int }

type Kettle struct {
	inject.Singleton
	Heater inject.Provider[Heater] `inject:""`
}

func provides(t *testing.T, fn any, name string) binding.Binding {
	t.Helper()
	b, err := binding.Provides(fn, name, nil, false, "test")
	require.NoError(t, err)
	return b
}

func install(l *linker.Linker, bs ...binding.Binding) {
	m := map[keys.Key]binding.Binding{}
	for _, b := range bs {
		m[b.ProvideKey()] = b
	}
	l.InstallBindings(m)
}

//
// -----------------------------------------------------------------------------
// InstallBindings / RequestBinding
// -----------------------------------------------------------------------------

// TestInstallBindings_LaterInstallReplaces verifies installation order decides which binding wins.
func TestInstallBindings_LaterInstallReplaces(t *testing.T) {
	t.Parallel()

	l := linker.New()
	base := provides(t, func() string { return "base" }, "")
	override := provides(t, func() string { return "override" }, "")
	install(l, base)
	install(l, override)

	got := l.RequestBinding(keys.For[string](), nil)
	require.NotNil(t, got)
	require.NoError(t, l.LinkRequested())

	v, err := got.Get()
	require.NoError(t, err)
	assert.Equal(t, "override", v)
}

// TestRequestBinding_MissingKeyIsDeferred verifies unknown keys return nil and link on the next pass.
func TestRequestBinding_MissingKeyIsDeferred(t *testing.T) {
	t.Parallel()

	l := linker.New()
	install(l, provides(t, func() Heater { return electric{} }, ""))

	key := keys.For[*Thermosiphon]()
	assert.Nil(t, l.RequestBinding(key, "test"))
	require.NoError(t, l.LinkRequested())

	b := l.RequestBinding(key, "test")
	require.NotNil(t, b)
	assert.True(t, b.Linked())

	v, err := b.Get()
	require.NoError(t, err)
	assert.Equal(t, "hot", v.(*Thermosiphon).Heater.Heat())

	// The synthesized binding also serves the members key.
	assert.Same(t, b, l.RequestBinding(keys.Members(reflect.TypeFor[Thermosiphon]()), "test"))
}

//
// -----------------------------------------------------------------------------
// LinkRequested
// -----------------------------------------------------------------------------

// TestLinkRequested_ForwardReferences verifies a binding whose dependency is requested later still links.
func TestLinkRequested_ForwardReferences(t *testing.T) {
	t.Parallel()

	l := linker.New()
	consumer := provides(t, func(t *Thermosiphon) string { return t.Heater.Heat() }, "")
	install(l, consumer, provides(t, func() Heater { return electric{} }, ""))

	b := l.RequestBinding(keys.For[string](), nil)
	require.NotNil(t, b)
	assert.False(t, b.Linked())
	require.NoError(t, l.LinkRequested())
	assert.True(t, b.Linked())

	v, err := b.Get()
	require.NoError(t, err)
	assert.Equal(t, "hot", v)
}

// TestLinkRequested_Unresolvable verifies every unsatisfiable key is reported and bound to a stand-in.
func TestLinkRequested_Unresolvable(t *testing.T) {
	t.Parallel()

	l := linker.New()
	install(l, provides(t, func(Heater, *Plain, int) string { return "" }, ""))
	l.RequestBinding(keys.For[string](), nil)

	err := l.LinkRequested()
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 3)

	var missing []keys.Key
	for _, e := range errs {
		var ue binding.UnresolvedError
		require.ErrorAs(t, e, &ue)
		missing = append(missing, ue.Key)
	}
	assert.ElementsMatch(t, []keys.Key{keys.For[Heater](), keys.For[*Plain](), keys.For[int]()}, missing)

	_, isStandIn := l.RequestBinding(keys.For[Heater](), nil).(*binding.UnresolvedBinding)
	assert.True(t, isStandIn)

	// Errors belong to the pass that found them.
	require.NoError(t, l.LinkRequested())
}

// TestLinkRequested_QualifiedKeysAreNotSynthesized verifies a name requires an explicit binding.
func TestLinkRequested_QualifiedKeysAreNotSynthesized(t *testing.T) {
	t.Parallel()

	l := linker.New()
	install(l, provides(t, func() Heater { return electric{} }, ""))
	l.RequestBinding(keys.Named[*Thermosiphon]("backup"), "test")

	err := l.LinkRequested()
	var ue binding.UnresolvedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "qualified keys need an explicit binding", ue.Reason)
	assert.Equal(t, "test", ue.RequiredBy)
}

// TestLinkRequested_ProviderIsSynthesized verifies Provider keys get a builtin binding.
func TestLinkRequested_ProviderIsSynthesized(t *testing.T) {
	t.Parallel()

	l := linker.New()
	install(l, provides(t, func() Heater { return electric{} }, ""))
	l.RequestBinding(keys.For[*Kettle](), nil)
	require.NoError(t, l.LinkRequested())

	b := l.RequestBinding(keys.For[*Kettle](), nil)
	_, isSingleton := b.(*binding.SingletonBinding)
	assert.True(t, isSingleton)

	v1, err := b.Get()
	require.NoError(t, err)
	v2, err := b.Get()
	require.NoError(t, err)
	assert.Same(t, v1, v2)
	assert.Equal(t, "hot", v1.(*Kettle).Heater.MustGet().Heat())
}

// TestLinkRequested_MalformedStruct verifies synthesis errors keep their type.
func TestLinkRequested_MalformedStruct(t *testing.T) {
	t.Parallel()

	type hidden struct {
		heater Heater `inject:""`
	}
	l := linker.New()
	l.RequestBinding(keys.Members(reflect.TypeFor[hidden]()), nil)

	err := l.LinkRequested()
	var ufe binding.UnexportedFieldError
	require.ErrorAs(t, err, &ufe)
	var ue binding.UnresolvedError
	require.ErrorAs(t, err, &ue)
}

//
// -----------------------------------------------------------------------------
// LinkAll
// -----------------------------------------------------------------------------

// TestLinkAll_LinksEverythingOnce verifies every binding is linked and listed once, by key.
func TestLinkAll_LinksEverythingOnce(t *testing.T) {
	t.Parallel()

	l := linker.New()
	install(l,
		provides(t, func() Heater { return electric{} }, ""),
		provides(t, func(t *Thermosiphon) int { return 1 }, ""),
	)

	bindings, err := l.LinkAll()
	require.NoError(t, err)
	require.Len(t, bindings, 3, "heater, int and the synthesized thermosiphon")

	var got []keys.Key
	for _, b := range bindings {
		assert.True(t, b.Linked(), b.String())
		got = append(got, b.ProvideKey())
	}
	assert.IsIncreasing(t, got)
}

//
// -----------------------------------------------------------------------------
// Metrics / logging
// -----------------------------------------------------------------------------

func counter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return sum(mf)
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func sum(mf *dto.MetricFamily) float64 {
	var total float64
	for _, m := range mf.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}

// TestMetrics_CountLinkerActivity verifies the counters track installs, passes, synthesis and failures.
func TestMetrics_CountLinkerActivity(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := linker.NewMetrics(reg)
	require.NoError(t, err)

	l := linker.New()
	l.SetMetrics(m)
	install(l,
		provides(t, func() Heater { return electric{} }, ""),
		provides(t, func(*Thermosiphon, *Plain) int { return 1 }, ""),
	)
	_, err = l.LinkAll()
	require.Error(t, err)

	assert.Equal(t, 2.0, counter(t, reg, "objectgraph_linker_bindings_installed_total"))
	assert.Equal(t, 1.0, counter(t, reg, "objectgraph_linker_link_passes_total"))
	assert.Equal(t, 1.0, counter(t, reg, "objectgraph_linker_bindings_synthesized_total"))
	assert.Equal(t, 1.0, counter(t, reg, "objectgraph_linker_unresolved_keys_total"))
	// heater, int, the synthesized thermosiphon and the stand-in for *Plain
	assert.Equal(t, 4.0, counter(t, reg, "objectgraph_linker_bindings_linked_total"))

	// A second graph on the same registry shares the counters.
	again, err := linker.NewMetrics(reg)
	require.NoError(t, err)
	require.NotNil(t, again)
}

// TestLogger_SynthesisIsLogged verifies JIT synthesis and failures are logged at debug.
// Not parallel: it swaps the package logger.
func TestLogger_SynthesisIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	linker.SetLogger(zap.New(core))
	t.Cleanup(func() { linker.SetLogger(nil) })

	l := linker.New()
	l.RequestBinding(keys.For[*Plain](), "test")
	require.Error(t, l.LinkRequested())

	entries := logs.FilterMessage("unresolved key").All()
	require.Len(t, entries, 1)
	assert.Equal(t, keys.For[*Plain]().String(), entries[0].ContextMap()["key"])
	assert.Equal(t, "test", entries[0].ContextMap()["required_by"])
}
