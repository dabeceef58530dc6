package msc

import (
	"runtime"
)

// Location records where a service was declared.
type Location struct {
	File string
	Line int
}

// dependencyDecl is the mutable accumulator behind a DependencyDeclaration.
type dependencyDecl struct {
	name     ServiceName
	optional bool
	targets  []Injector[any]
}

// ServiceBuilder accumulates the declaration of one service: aliases,
// source location, initial mode, dependencies, direct injections, and
// lifecycle listeners. Every method returns the builder itself for
// chaining, appends to the draft, and resolves nothing.
//
// A builder is a single-goroutine, single-session object. Build finalizes
// it exactly once; mutating a built builder, or building twice, panics with
// a *UsageError. Builders are created standalone with NewServiceBuilder or
// through a BatchBuilder.
type ServiceBuilder struct {
	name     ServiceName
	service  Value[Service]
	aliases  []ServiceName
	location *Location
	mode     Mode
	deps     []*dependencyDecl
	depIndex map[ServiceName]*dependencyDecl

	injections []DirectInjection
	listeners  []ServiceListener

	definition *ServiceDefinition
}

// NewServiceBuilder creates a builder for a service declared directly from
// a Service instance.
func NewServiceBuilder(name ServiceName, service Service) *ServiceBuilder {
	if service == nil {
		usage("add service", ErrServiceNil)
	}
	return NewServiceValueBuilder(name, NewValue(service))
}

// NewServiceValueBuilder creates a builder for a service whose instance is
// itself produced lazily by a value, resolved at start time.
func NewServiceValueBuilder(name ServiceName, service Value[Service]) *ServiceBuilder {
	if service == nil {
		usage("add service", ErrValueNil)
	}
	return &ServiceBuilder{
		name:     name,
		service:  service,
		mode:     ModeAutomatic,
		depIndex: make(map[ServiceName]*dependencyDecl),
	}
}

// Name returns the primary name the service will be installed under.
func (b *ServiceBuilder) Name() ServiceName {
	return b.name
}

// checkOpen panics if the builder has already been built.
func (b *ServiceBuilder) checkOpen(op string) {
	if b.definition != nil {
		usage(op, ErrBuilderSealed)
	}
}

// AddAliases registers additional names the service can be looked up and
// depended upon by. Aliases accumulate in declaration order.
func (b *ServiceBuilder) AddAliases(aliases ...ServiceName) *ServiceBuilder {
	b.checkOpen("add aliases")
	b.aliases = append(b.aliases, aliases...)
	return b
}

// SetLocation records an explicit declaration location. Repeated calls
// overwrite; the last one wins.
func (b *ServiceBuilder) SetLocation(location Location) *ServiceBuilder {
	b.checkOpen("set location")
	b.location = &location
	return b
}

// SetLocationHere records the caller's source location.
func (b *ServiceBuilder) SetLocationHere() *ServiceBuilder {
	b.checkOpen("set location")
	if _, file, line, ok := runtime.Caller(1); ok {
		b.location = &Location{File: file, Line: line}
	}
	return b
}

// SetInitialMode sets the mode the service is installed with.
func (b *ServiceBuilder) SetInitialMode(mode Mode) *ServiceBuilder {
	b.checkOpen("set initial mode")
	if !mode.IsValid() {
		usage("set initial mode", &ModeError{Value: mode})
	}
	b.mode = mode
	return b
}

// addDependency merges a declaration into the dependency set. The graph
// holds at most one edge per dependency name: a repeated name accumulates
// injection targets on the existing edge instead of adding a second edge,
// preserving first-occurrence order. An edge declared mandatory anywhere
// stays mandatory; optional declarations never downgrade it.
func (b *ServiceBuilder) addDependency(name ServiceName, optional bool, targets ...Injector[any]) {
	for _, target := range targets {
		if target == nil {
			usage("add dependency", ErrInjectorNil)
		}
	}

	decl, ok := b.depIndex[name]
	if !ok {
		decl = &dependencyDecl{name: name, optional: optional}
		b.depIndex[name] = decl
		b.deps = append(b.deps, decl)
	} else if !optional {
		decl.optional = false
	}
	decl.targets = append(decl.targets, targets...)
}

// AddDependency declares a mandatory, non-injected dependency.
func (b *ServiceBuilder) AddDependency(dependency ServiceName) *ServiceBuilder {
	b.checkOpen("add dependency")
	b.addDependency(dependency, false)
	return b
}

// AddDependencies declares multiple mandatory, non-injected dependencies.
func (b *ServiceBuilder) AddDependencies(dependencies ...ServiceName) *ServiceBuilder {
	b.checkOpen("add dependencies")
	for _, dependency := range dependencies {
		b.addDependency(dependency, false)
	}
	return b
}

// AddOptionalDependency declares an optional, non-injected dependency. An
// optional dependency that is not installed does not block the service from
// starting.
func (b *ServiceBuilder) AddOptionalDependency(dependency ServiceName) *ServiceBuilder {
	b.checkOpen("add optional dependency")
	b.addDependency(dependency, true)
	return b
}

// AddOptionalDependencies declares multiple optional, non-injected
// dependencies.
func (b *ServiceBuilder) AddOptionalDependencies(dependencies ...ServiceName) *ServiceBuilder {
	b.checkOpen("add optional dependencies")
	for _, dependency := range dependencies {
		b.addDependency(dependency, true)
	}
	return b
}

// AddDependencyInjection declares a mandatory dependency whose resolved
// value is injected into each target before the service starts and
// uninjected after it stops. Repeating a name fans additional targets out
// on the same edge. Wrap targets with TypedInjector to enforce an expected
// type.
func (b *ServiceBuilder) AddDependencyInjection(dependency ServiceName, targets ...Injector[any]) *ServiceBuilder {
	b.checkOpen("add dependency injection")
	b.addDependency(dependency, false, targets...)
	return b
}

// AddOptionalDependencyInjection declares an optional dependency with
// injection targets. When the dependency is not installed the targets are
// left untouched.
func (b *ServiceBuilder) AddOptionalDependencyInjection(dependency ServiceName, targets ...Injector[any]) *ServiceBuilder {
	b.checkOpen("add optional dependency injection")
	b.addDependency(dependency, true, targets...)
	return b
}

// AddInjection declares a direct injection of a constant, independent of
// any named dependency. It is injected unconditionally before start and
// uninjected after stop.
func (b *ServiceBuilder) AddInjection(target Injector[any], value any) *ServiceBuilder {
	b.checkOpen("add injection")
	return b.AddInjectionValue(target, NewValue(value))
}

// AddInjectionValue declares a direct injection whose value is resolved
// lazily at start time.
func (b *ServiceBuilder) AddInjectionValue(target Injector[any], value Value[any]) *ServiceBuilder {
	b.checkOpen("add injection")
	if target == nil {
		usage("add injection", ErrInjectorNil)
	}
	if value == nil {
		usage("add injection", ErrValueNil)
	}
	b.injections = append(b.injections, DirectInjection{Target: target, Value: value})
	return b
}

// AddListener attaches a lifecycle listener to the service.
func (b *ServiceBuilder) AddListener(listener ServiceListener) *ServiceBuilder {
	b.checkOpen("add listener")
	if listener == nil {
		usage("add listener", ErrListenerNil)
	}
	b.listeners = append(b.listeners, listener)
	return b
}

// AddListeners attaches lifecycle listeners in order. Listeners accumulate
// across calls; they are never replaced.
func (b *ServiceBuilder) AddListeners(listeners ...ServiceListener) *ServiceBuilder {
	b.checkOpen("add listeners")
	for _, listener := range listeners {
		b.AddListener(listener)
	}
	return b
}

// Build finalizes the builder into an immutable ServiceDefinition and seals
// the builder. Building twice panics with a *UsageError; the definition
// produced by the first call is unaffected.
func (b *ServiceBuilder) Build() *ServiceDefinition {
	b.checkOpen("build service")

	deps := make([]DependencyDeclaration, len(b.deps))
	for i, d := range b.deps {
		targets := make([]Injector[any], len(d.targets))
		copy(targets, d.targets)
		deps[i] = DependencyDeclaration{
			Name:     d.name,
			Optional: d.optional,
			Targets:  targets,
		}
	}

	b.definition = &ServiceDefinition{
		name:       b.name,
		service:    b.service,
		aliases:    append([]ServiceName(nil), b.aliases...),
		location:   b.location,
		mode:       b.mode,
		deps:       deps,
		injections: append([]DirectInjection(nil), b.injections...),
		listeners:  append([]ServiceListener(nil), b.listeners...),
	}
	return b.definition
}
