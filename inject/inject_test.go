package inject_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/objectgraph/inject"
)

type Pump interface{ Pump() string }

type pump struct{}

func (pump) Pump() string { return "pumping" }

type Target struct{ Name string }

// TestDeferred verifies Provider and MembersInjector instantiations are recognized.
func TestDeferred(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  reflect.Type
		kind inject.Kind
		elem reflect.Type
	}{
		{"provider", reflect.TypeFor[inject.Provider[Pump]](), inject.KindProvider, reflect.TypeFor[Pump]()},
		{"members injector", reflect.TypeFor[inject.MembersInjector[Target]](), inject.KindMembersInjector, reflect.TypeFor[Target]()},
		{"plain struct", reflect.TypeFor[Target](), inject.KindNone, nil},
		{"pointer to provider", reflect.TypeFor[*inject.Provider[Pump]](), inject.KindNone, nil},
		{"nil", nil, inject.KindNone, nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			kind, elem := inject.Deferred(tc.typ)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.elem, elem)
		})
	}
}

// TestProvider_ZeroValueIsUnbound verifies handles not made by a graph fail cleanly.
func TestProvider_ZeroValueIsUnbound(t *testing.T) {
	t.Parallel()

	var p inject.Provider[Pump]
	_, err := p.Get()
	require.ErrorIs(t, err, inject.ErrUnbound)
	assert.Panics(t, func() { p.MustGet() })

	var m inject.MembersInjector[Target]
	require.ErrorIs(t, m.InjectMembers(&Target{}), inject.ErrUnbound)
}

// TestNewProvider verifies a provider built at runtime resolves through its getter on every Get.
func TestNewProvider(t *testing.T) {
	t.Parallel()

	calls := 0
	raw, err := inject.NewProvider(reflect.TypeFor[inject.Provider[Pump]](), func() (any, error) {
		calls++
		return pump{}, nil
	})
	require.NoError(t, err)

	p, ok := raw.(inject.Provider[Pump])
	require.True(t, ok)
	assert.Equal(t, "pumping", p.MustGet().Pump())
	assert.Equal(t, "pumping", p.MustGet().Pump())
	assert.Equal(t, 2, calls)

	_, err = inject.NewProvider(reflect.TypeFor[Target](), nil)
	require.Error(t, err)
}

// TestProvider_Errors verifies getter errors and wrong types surface from Get.
func TestProvider_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	raw, err := inject.NewProvider(reflect.TypeFor[inject.Provider[Pump]](), func() (any, error) { return nil, boom })
	require.NoError(t, err)
	_, err = raw.(inject.Provider[Pump]).Get()
	require.ErrorIs(t, err, boom)

	raw, err = inject.NewProvider(reflect.TypeFor[inject.Provider[Pump]](), func() (any, error) { return 7, nil })
	require.NoError(t, err)
	_, err = raw.(inject.Provider[Pump]).Get()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider produced int")

	raw, err = inject.NewProvider(reflect.TypeFor[inject.Provider[Pump]](), func() (any, error) { return nil, nil })
	require.NoError(t, err)
	v, err := raw.(inject.Provider[Pump]).Get()
	require.NoError(t, err)
	assert.Nil(t, v)
}

// TestNewMembersInjector verifies the injector passes the instance through.
func TestNewMembersInjector(t *testing.T) {
	t.Parallel()

	raw, err := inject.NewMembersInjector(reflect.TypeFor[inject.MembersInjector[Target]](), func(v any) error {
		v.(*Target).Name = "injected"
		return nil
	})
	require.NoError(t, err)

	target := &Target{}
	require.NoError(t, raw.(inject.MembersInjector[Target]).InjectMembers(target))
	assert.Equal(t, "injected", target.Name)

	_, err = inject.NewMembersInjector(reflect.TypeFor[inject.Provider[Pump]](), nil)
	require.Error(t, err)
}
