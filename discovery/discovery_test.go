package discovery

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/modscan/assembly"
	"github.com/GoCodeAlone/modscan/scan"
)

type plugin interface{ Name() string }

type m1 struct{ loads int }

func (*m1) Name() string { return "m1" }

type m2 struct{}

func (*m2) Name() string { return "m2" }

type m3 struct{}

func (*m3) Name() string { return "m3" }

type unrelated struct{}

type abstractPlugin struct{}

func (*abstractPlugin) Name() string { return "abstract" }

type recordingLogger struct{ msgs []string }

func (l *recordingLogger) Debug(msg string, _ ...any) { l.msgs = append(l.msgs, msg) }

func names(ps []plugin) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name())
	}
	return out
}

func TestDiscoverPreservesAssemblyAndDeclarationOrder(t *testing.T) {
	a := assembly.New("a",
		assembly.Of[*m1](),
		assembly.Of[*unrelated](),
		assembly.Of[*abstractPlugin](assembly.Abstract()),
		assembly.Of[*m2](),
	)
	b := assembly.New("b", assembly.Of[*m3]())
	logger := &recordingLogger{}
	d := New(scan.NewCache(), WithLogger(logger))

	found, err := DiscoverOf[plugin](d, a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, names(found))
	assert.Len(t, logger.msgs, 2)

	found, err = DiscoverOf[plugin](d, b, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"m3", "m1", "m2"}, names(found))
}

func TestDiscoverReturnsFreshInstances(t *testing.T) {
	d := New(scan.NewCache())
	a := []assembly.Assembly{assembly.New("fresh", assembly.Of[*m1]())}

	first, err := d.Discover(reflect.TypeFor[plugin](), a)
	require.NoError(t, err)
	second, err := d.Discover(reflect.TypeFor[plugin](), a)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	a1, a2 := first[0].(*m1), second[0].(*m1)
	assert.NotSame(t, a1, a2)
	a1.loads++
	assert.Zero(t, a2.loads, "instances do not share state")
}

func TestDiscoverEmptyAssemblyList(t *testing.T) {
	d := New(nil)
	assert.Same(t, scan.Shared(), d.Cache())

	found, err := d.Discover(reflect.TypeFor[plugin](), nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDiscoverConcreteContract(t *testing.T) {
	d := New(scan.NewCache())
	a := assembly.New("concrete", assembly.Of[*m1](), assembly.Of[*m2]())

	found, err := DiscoverOf[*m2](d, a)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "m2", found[0].Name())
}

func TestDiscoverRejectsBadInput(t *testing.T) {
	d := New(scan.NewCache())
	valid := assembly.New("valid", assembly.Of[*m1]())

	_, err := d.Discover(nil, []assembly.Assembly{valid})
	assert.ErrorIs(t, err, ErrContract)

	for _, contract := range []reflect.Type{
		reflect.TypeFor[func()](),
		reflect.TypeFor[map[string]int](),
		reflect.TypeFor[[]plugin](),
		reflect.TypeFor[struct{ X int }](),
		reflect.TypeFor[*int](),
	} {
		_, err := d.Discover(contract, []assembly.Assembly{valid})
		assert.ErrorIs(t, err, ErrContract, contract.String())
	}

	var typedNil *assembly.Static
	_, err = d.Discover(reflect.TypeFor[plugin](), []assembly.Assembly{valid, nil})
	assert.ErrorIs(t, err, ErrArgument)
	_, err = d.Discover(reflect.TypeFor[plugin](), []assembly.Assembly{typedNil})
	assert.ErrorIs(t, err, ErrArgument)
	assert.ErrorIs(t, err, assembly.ErrInvalidAssembly)
	assert.False(t, d.Cache().Contains("valid"), "validation happens before any scan")
}

func TestDiscoverToleratesPartialLoads(t *testing.T) {
	d := New(scan.NewCache())
	a := assembly.New("partial",
		assembly.Unloadable("partial.Missing", nil),
		assembly.Of[*m1](),
		assembly.Unloadable("partial.Broken", errors.New("bad image")),
		assembly.Of[*m2](),
	)

	found, err := DiscoverOf[plugin](d, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, names(found))
}

func TestDiscoverInstantiationFailure(t *testing.T) {
	d := New(scan.NewCache())
	boom := errors.New("constructor failed")
	a := assembly.New("failing",
		assembly.Of[*m1](),
		assembly.Of[*m2](assembly.WithFactory(func() (any, error) { return nil, boom })),
	)

	_, err := d.Discover(reflect.TypeFor[plugin](), []assembly.Assembly{a})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "m2")
}

func TestDiscoverConstructorPanicPropagates(t *testing.T) {
	d := New(scan.NewCache())
	a := assembly.New("panicking",
		assembly.Of[*m1](assembly.WithFactory(func() (any, error) { panic("no wiring") })),
	)

	assert.PanicsWithValue(t, "no wiring", func() {
		_, _ = d.Discover(reflect.TypeFor[plugin](), []assembly.Assembly{a})
	})
}

func TestDiscoverTypesDoesNotInstantiate(t *testing.T) {
	d := New(scan.NewCache())
	calls := 0
	a := assembly.New("lazy",
		assembly.Of[*m1](assembly.WithFactory(func() (any, error) {
			calls++
			return &m1{}, nil
		})),
	)

	types, err := d.DiscoverTypes(reflect.TypeFor[plugin](), []assembly.Assembly{a})
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, reflect.TypeFor[*m1](), types[0].Type())
	assert.Zero(t, calls)
}

func TestValidateContract(t *testing.T) {
	assert.NoError(t, ValidateContract(reflect.TypeFor[plugin]()))
	assert.NoError(t, ValidateContract(reflect.TypeFor[any]()))
	assert.NoError(t, ValidateContract(reflect.TypeFor[m1]()))
	assert.NoError(t, ValidateContract(reflect.TypeFor[*m1]()))
	assert.ErrorIs(t, ValidateContract(reflect.TypeFor[chan int]()), ErrContract)
}
