package module_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/objectgraph/binding"
	"github.com/sghaida/objectgraph/keys"
	"github.com/sghaida/objectgraph/module"
)

type Widget struct {
	Name string `inject:"name"`
}

type ProdModule struct{}

func (ProdModule) Configure(b *module.Binder) {
	b.EntryPoints((*Widget)(nil))
	b.Provides(func() string { return "prod" }, module.Named("name"))
}

type TestModule struct{}

func (TestModule) Configure(b *module.Binder) {
	b.Overrides()
	b.Provides(func() string { return "test" }, module.Named("name"))
}

type AppModule struct{}

func (AppModule) Configure(b *module.Binder) {
	b.Include(ProdModule{}, ProdModule{})
	b.Instance(42)
}

//
// -----------------------------------------------------------------------------
// ForModule
// -----------------------------------------------------------------------------

// TestForModule_CollectsDeclarations verifies a module's declarations end up on its adapter.
func TestForModule_CollectsDeclarations(t *testing.T) {
	t.Parallel()

	a, err := module.ForModule(ProdModule{})
	require.NoError(t, err)

	assert.Equal(t, reflect.TypeFor[ProdModule](), a.Type)
	assert.False(t, a.Overrides)
	assert.Equal(t, []keys.Key{keys.Members(reflect.TypeFor[Widget]())}, a.EntryPoints)
	require.Len(t, a.Bindings(), 1)
	assert.Equal(t, keys.Named[string]("name"), a.Bindings()[0].ProvideKey())

	o, err := module.ForModule(TestModule{})
	require.NoError(t, err)
	assert.True(t, o.Overrides)
}

// TestForModule_FreshBindingsPerCall verifies two adapters never share bindings.
func TestForModule_FreshBindingsPerCall(t *testing.T) {
	t.Parallel()

	a1, err := module.ForModule(ProdModule{})
	require.NoError(t, err)
	a2, err := module.ForModule(ProdModule{})
	require.NoError(t, err)
	assert.NotSame(t, a1.Bindings()[0], a2.Bindings()[0])
}

// TestForModule_Errors verifies declaration mistakes fail the module.
func TestForModule_Errors(t *testing.T) {
	t.Parallel()

	var nilPtr *ProdModule

	tests := []struct {
		name   string
		module module.Module
		check  func(t *testing.T, err error)
	}{
		{
			name:   "nil module",
			module: nil,
			check:  func(t *testing.T, err error) { require.ErrorIs(t, err, module.ErrNilModule) },
		},
		{
			name:   "nil pointer module",
			module: nilPtr,
			check:  func(t *testing.T, err error) { require.ErrorIs(t, err, module.ErrNilModule) },
		},
		{
			name:   "bad provider",
			module: module.Func(func(b *module.Binder) { b.Provides(func() {}) }),
			check: func(t *testing.T, err error) {
				var pe binding.InvalidProviderError
				require.ErrorAs(t, err, &pe)
			},
		},
		{
			name:   "non-struct entry point",
			module: module.Func(func(b *module.Binder) { b.EntryPoints(3) }),
			check: func(t *testing.T, err error) {
				var ee module.InvalidEntryPointError
				require.ErrorAs(t, err, &ee)
				assert.Equal(t, "int", ee.Type)
			},
		},
		{
			name:   "nil instance",
			module: module.Func(func(b *module.Binder) { b.Instance(nil) }),
			check: func(t *testing.T, err error) {
				var ie module.InvalidInstanceError
				require.ErrorAs(t, err, &ie)
			},
		},
		{
			name:   "recorded error",
			module: module.Func(func(b *module.Binder) { b.Error(errors.New("boom")) }),
			check:  func(t *testing.T, err error) { require.EqualError(t, err, "boom") },
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a, err := module.ForModule(tc.module)
			assert.Nil(t, a)
			tc.check(t, err)
		})
	}
}

// TestEntryPoints_AcceptsSampleForms verifies pointers, values and reflect.Type all name the same struct.
func TestEntryPoints_AcceptsSampleForms(t *testing.T) {
	t.Parallel()

	a, err := module.ForModule(module.Func(func(b *module.Binder) {
		b.EntryPoints((*Widget)(nil), Widget{}, reflect.TypeFor[Widget]())
	}))
	require.NoError(t, err)

	want := keys.Members(reflect.TypeFor[Widget]())
	assert.Equal(t, []keys.Key{want, want, want}, a.EntryPoints)
}

// TestProvides_Options verifies Named, Params and Singleton shape the binding.
func TestProvides_Options(t *testing.T) {
	t.Parallel()

	a, err := module.ForModule(module.Func(func(b *module.Binder) {
		b.Provides(func(host string, port int) string { return host },
			module.Named("addr"), module.Params("host"), module.Singleton())
	}))
	require.NoError(t, err)
	require.Len(t, a.Bindings(), 1)

	pb, ok := a.Bindings()[0].(*binding.ProvidesBinding)
	require.True(t, ok)
	assert.Equal(t, keys.Named[string]("addr"), pb.ProvideKey())
	assert.True(t, pb.Singleton())
	assert.Equal(t, []keys.Key{keys.Named[string]("host"), keys.For[int]()}, pb.Params())
}

//
// -----------------------------------------------------------------------------
// ForModules
// -----------------------------------------------------------------------------

// TestForModules_IncludesDepthFirstOnce verifies includes follow their parent and repeats are skipped.
func TestForModules_IncludesDepthFirstOnce(t *testing.T) {
	t.Parallel()

	adapters, err := module.ForModules([]module.Module{AppModule{}, TestModule{}, ProdModule{}})
	require.NoError(t, err)

	var got []reflect.Type
	for _, a := range adapters {
		got = append(got, a.Type)
	}
	assert.Equal(t, []reflect.Type{
		reflect.TypeFor[AppModule](),
		reflect.TypeFor[ProdModule](),
		reflect.TypeFor[TestModule](),
	}, got)
}

// TestForModules_PropagatesErrors verifies an included module's error fails the set.
func TestForModules_PropagatesErrors(t *testing.T) {
	t.Parallel()

	bad := module.Func(func(b *module.Binder) { b.Include(nil) })
	_, err := module.ForModules([]module.Module{bad})
	require.ErrorIs(t, err, module.ErrNilModule)
}
