package msc_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	msc "github.com/maeste/jboss-msc"
)

func newTestBuilder() *msc.ServiceBuilder {
	return msc.NewServiceBuilder(msc.NewServiceName("test", "svc"), msc.NewValueService(msc.NewValue[any]("svc")))
}

func TestServiceBuilder_Chaining(t *testing.T) {
	b := newTestBuilder()

	// Every mutator returns the same builder instance.
	assert.Same(t, b, b.AddAliases(msc.NewServiceName("alias")))
	assert.Same(t, b, b.SetInitialMode(msc.ModePassive))
	assert.Same(t, b, b.AddDependency(msc.NewServiceName("dep")))
	assert.Same(t, b, b.AddListener(msc.ListenerFuncs{}))
}

func TestServiceBuilder_DeclarationOrderPreserved(t *testing.T) {
	a1 := msc.NewServiceName("alias", "one")
	a2 := msc.NewServiceName("alias", "two")
	d1 := msc.NewServiceName("dep", "one")
	d2 := msc.NewServiceName("dep", "two")
	d3 := msc.NewServiceName("dep", "three")
	l1 := msc.ListenerFuncs{}
	l2 := msc.NewLoggingListener(nil)

	def := newTestBuilder().
		AddAliases(a1).
		AddDependency(d1).
		AddAliases(a2).
		AddOptionalDependency(d2).
		AddDependency(d3).
		AddListener(l1).
		AddListeners(l2).
		Build()

	assert.Equal(t, []msc.ServiceName{a1, a2}, def.Aliases())

	deps := def.Dependencies()
	require.Len(t, deps, 3)
	assert.Equal(t, d1, deps[0].Name)
	assert.Equal(t, d2, deps[1].Name)
	assert.Equal(t, d3, deps[2].Name)
	assert.False(t, deps[0].Optional)
	assert.True(t, deps[1].Optional)

	assert.Len(t, def.Listeners(), 2)
}

func TestServiceBuilder_DuplicateDependencyMergesTargets(t *testing.T) {
	dep := msc.NewServiceName("shared")
	x := msc.NewInjectedValue[any]()
	y := msc.NewInjectedValue[any]()

	def := newTestBuilder().
		AddDependencyInjection(dep, x).
		AddDependencyInjection(dep, y).
		Build()

	// One edge, two targets, append order.
	deps := def.Dependencies()
	require.Len(t, deps, 1)
	require.Len(t, deps[0].Targets, 2)
	assert.Equal(t, msc.Injector[any](x), deps[0].Targets[0])
	assert.Equal(t, msc.Injector[any](y), deps[0].Targets[1])
}

func TestServiceBuilder_MergePreservesFirstOccurrenceOrder(t *testing.T) {
	first := msc.NewServiceName("first")
	second := msc.NewServiceName("second")

	def := newTestBuilder().
		AddDependency(first).
		AddDependency(second).
		AddDependencyInjection(first, msc.NilInjector[any]()).
		Build()

	deps := def.Dependencies()
	require.Len(t, deps, 2)
	assert.Equal(t, first, deps[0].Name)
	assert.Equal(t, second, deps[1].Name)
	assert.Len(t, deps[0].Targets, 1)
}

func TestServiceBuilder_MandatoryWinsOverOptional(t *testing.T) {
	dep := msc.NewServiceName("contested")

	// Optional first, mandatory later: the edge upgrades.
	def := newTestBuilder().
		AddOptionalDependency(dep).
		AddDependency(dep).
		Build()
	require.Len(t, def.Dependencies(), 1)
	assert.False(t, def.Dependencies()[0].Optional)

	// Mandatory first, optional later: the edge never downgrades.
	def = newTestBuilder().
		AddDependency(dep).
		AddOptionalDependency(dep).
		Build()
	require.Len(t, def.Dependencies(), 1)
	assert.False(t, def.Dependencies()[0].Optional)
}

func TestServiceBuilder_Location(t *testing.T) {
	def := newTestBuilder().
		SetLocation(msc.Location{File: "first.go", Line: 1}).
		SetLocation(msc.Location{File: "second.go", Line: 2}).
		Build()

	loc, ok := def.Location()
	require.True(t, ok)
	assert.Equal(t, "second.go", loc.File)
	assert.Equal(t, 2, loc.Line)
}

func TestServiceBuilder_LocationHere(t *testing.T) {
	def := newTestBuilder().SetLocationHere().Build()

	loc, ok := def.Location()
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(loc.File, "builder_test.go"))
	assert.Positive(t, loc.Line)
}

func TestServiceBuilder_NoLocation(t *testing.T) {
	def := newTestBuilder().Build()

	_, ok := def.Location()
	assert.False(t, ok)
}

func TestServiceBuilder_DefaultMode(t *testing.T) {
	def := newTestBuilder().Build()
	assert.Equal(t, msc.ModeAutomatic, def.InitialMode())
}

func TestServiceBuilder_InvalidModePanics(t *testing.T) {
	b := newTestBuilder()
	assert.Panics(t, func() {
		b.SetInitialMode(msc.Mode(99))
	})
}

func TestServiceBuilder_BuildTwicePanics(t *testing.T) {
	b := newTestBuilder()
	def := b.Build()

	assert.PanicsWithError(t, "build service: service builder already built", func() {
		b.Build()
	})

	// The definition from the first call is unaffected by the failed one.
	assert.Equal(t, msc.NewServiceName("test", "svc"), def.Name())
	assert.Empty(t, def.Dependencies())
}

func TestServiceBuilder_MutateAfterBuildPanics(t *testing.T) {
	b := newTestBuilder()
	b.Build()

	assert.PanicsWithError(t, "add dependency: service builder already built", func() {
		b.AddDependency(msc.NewServiceName("late"))
	})
	assert.PanicsWithError(t, "add listener: service builder already built", func() {
		b.AddListener(msc.ListenerFuncs{})
	})
	assert.PanicsWithError(t, "set initial mode: service builder already built", func() {
		b.SetInitialMode(msc.ModeNever)
	})
}

func TestServiceBuilder_DefinitionIsImmutable(t *testing.T) {
	dep := msc.NewServiceName("dep")
	def := newTestBuilder().
		AddAliases(msc.NewServiceName("alias")).
		AddDependencyInjection(dep, msc.NilInjector[any]()).
		Build()

	// Mutating returned slices must not affect the definition.
	aliases := def.Aliases()
	aliases[0] = msc.NewServiceName("hacked")
	assert.Equal(t, msc.NewServiceName("alias"), def.Aliases()[0])

	deps := def.Dependencies()
	deps[0].Targets[0] = msc.TypedInjector[string](msc.NewInjectedValue[string]())
	assert.Equal(t, msc.Injector[any](msc.NilInjector[any]()), def.Dependencies()[0].Targets[0])
}

func TestServiceBuilder_NilInjectorPanics(t *testing.T) {
	b := newTestBuilder()
	assert.Panics(t, func() {
		b.AddDependencyInjection(msc.NewServiceName("dep"), nil)
	})
}

func TestServiceBuilder_DirectInjectionOrder(t *testing.T) {
	first := msc.NewInjectedValue[any]()
	second := msc.NewInjectedValue[any]()

	def := newTestBuilder().
		AddInjection(first, "a").
		AddInjectionValue(second, msc.AnyValue(msc.NewValue("b"))).
		Build()

	injections := def.Injections()
	require.Len(t, injections, 2)
	assert.Equal(t, msc.Injector[any](first), injections[0].Target)
	assert.Equal(t, msc.Injector[any](second), injections[1].Target)
}

func TestServiceBuilder_NilListenerPanics(t *testing.T) {
	b := newTestBuilder()
	assert.PanicsWithError(t, "add listener: listener cannot be nil", func() {
		b.AddListener(nil)
	})
}
