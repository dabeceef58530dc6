package msc

// DependencyDeclaration records one edge in the service graph: the
// referenced service name, whether the edge is optional, and the injection
// targets that receive the dependency's resolved value. Targets appear in
// append order across every declaration that named this dependency.
type DependencyDeclaration struct {
	Name     ServiceName
	Optional bool
	Targets  []Injector[any]
}

// DirectInjection records a name-independent injection: the value is
// resolved and injected before the owning service starts and uninjected
// after it stops.
type DirectInjection struct {
	Target Injector[any]
	Value  Value[any]
}

// ServiceDefinition is the immutable, finalized description of one
// service's identity, mode, dependencies, injections, and listeners. It is
// produced by a single builder session and never mutated afterwards;
// ownership passes to the batch and then to the container for the
// service's running lifetime.
type ServiceDefinition struct {
	name       ServiceName
	service    Value[Service]
	aliases    []ServiceName
	location   *Location
	mode       Mode
	deps       []DependencyDeclaration
	injections []DirectInjection
	listeners  []ServiceListener
}

// Name returns the primary service name.
func (d *ServiceDefinition) Name() ServiceName {
	return d.name
}

// Service returns the value that produces the service instance at start
// time.
func (d *ServiceDefinition) Service() Value[Service] {
	return d.service
}

// Aliases returns the declared aliases in declaration order.
func (d *ServiceDefinition) Aliases() []ServiceName {
	out := make([]ServiceName, len(d.aliases))
	copy(out, d.aliases)
	return out
}

// Location returns the declared source location, if one was set.
func (d *ServiceDefinition) Location() (Location, bool) {
	if d.location == nil {
		return Location{}, false
	}
	return *d.location, true
}

// InitialMode returns the mode the service is installed with.
func (d *ServiceDefinition) InitialMode() Mode {
	return d.mode
}

// Dependencies returns the dependency declarations in first-occurrence
// order. Each declaration's target list preserves append order.
func (d *ServiceDefinition) Dependencies() []DependencyDeclaration {
	out := make([]DependencyDeclaration, len(d.deps))
	for i, dep := range d.deps {
		targets := make([]Injector[any], len(dep.Targets))
		copy(targets, dep.Targets)
		out[i] = DependencyDeclaration{Name: dep.Name, Optional: dep.Optional, Targets: targets}
	}
	return out
}

// Injections returns the direct injections in declaration order.
func (d *ServiceDefinition) Injections() []DirectInjection {
	out := make([]DirectInjection, len(d.injections))
	copy(out, d.injections)
	return out
}

// Listeners returns the lifecycle listeners in declaration order.
func (d *ServiceDefinition) Listeners() []ServiceListener {
	out := make([]ServiceListener, len(d.listeners))
	copy(out, d.listeners)
	return out
}
