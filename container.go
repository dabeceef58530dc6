package msc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/maeste/jboss-msc/internal/graph"
)

// ServiceState describes where a service is in its lifecycle.
type ServiceState int

const (
	// StateDown means the service is installed but not running.
	StateDown ServiceState = iota

	// StateStarting means the service is resolving dependencies and
	// performing injections.
	StateStarting

	// StateUp means the service started successfully.
	StateUp
)

// String returns the string representation of the ServiceState.
func (s ServiceState) String() string {
	switch s {
	case StateDown:
		return "Down"
	case StateStarting:
		return "Starting"
	case StateUp:
		return "Up"
	default:
		return "Unknown"
	}
}

// registration is the container's record of one installed service.
type registration struct {
	def      *ServiceDefinition
	state    ServiceState
	instance Service

	// injected holds every injector that received a value during the
	// current start, in injection order, so teardown can retract them in
	// reverse.
	injected []Injector[any]

	failure error
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithMetrics attaches a Metrics instance recording installs, starts,
// stops, and failures.
func WithMetrics(metrics *Metrics) ContainerOption {
	return func(c *Container) {
		c.metrics = metrics
	}
}

// WithListeners attaches container-wide lifecycle listeners notified for
// every service.
func WithListeners(listeners ...ServiceListener) ContainerOption {
	return func(c *Container) {
		c.listeners = append(c.listeners, listeners...)
	}
}

// Container installs service definitions and drives their start and stop
// transitions: it resolves each dependency and each value, performs
// injections in declaration order, and reverses the process on stop. All
// operations are safe for concurrent use; transitions for the full
// container are serialized under one lock.
type Container struct {
	mu            sync.Mutex
	registrations map[ServiceName]*registration
	graph         *graph.Graph
	listeners     []ServiceListener
	metrics       *Metrics
	closed        bool
}

// NewContainer creates an empty container.
func NewContainer(opts ...ContainerOption) *Container {
	c := &Container{
		registrations: make(map[ServiceName]*registration),
		graph:         graph.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// install commits a set of definitions atomically. Every primary name and
// alias must be free, both against the container and within the batch, and
// the combined dependency graph must stay acyclic; otherwise nothing is
// installed.
func (c *Container) install(definitions []*ServiceDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrContainerClosed
	}

	// Validate name availability across container and batch.
	claimed := make(map[ServiceName]bool)
	for _, def := range definitions {
		for _, name := range append([]ServiceName{def.Name()}, def.aliases...) {
			if claimed[name] {
				return DuplicateServiceError{Name: name}
			}
			if _, exists := c.registrations[name]; exists {
				return DuplicateServiceError{Name: name}
			}
			claimed[name] = true
		}
	}

	// Register, then wire dependency edges; roll everything back if a cycle
	// appears.
	installed := make([]*ServiceDefinition, 0, len(definitions))
	rollback := func() {
		for _, def := range installed {
			c.graph.Remove(def.Name().String())
			delete(c.registrations, def.Name())
			for _, alias := range def.aliases {
				delete(c.registrations, alias)
			}
		}
	}

	for _, def := range definitions {
		reg := &registration{def: def, state: StateDown}
		c.registrations[def.Name()] = reg
		for _, alias := range def.aliases {
			c.registrations[alias] = reg
		}
		installed = append(installed, def)
	}

	for _, def := range definitions {
		deps := make([]string, 0, len(def.deps))
		for _, dep := range def.deps {
			// Edges point at primary names so aliased declarations merge
			// onto the same node. Unresolvable names keep their declared
			// form; they become placeholder nodes.
			target := dep.Name
			if reg, ok := c.registrations[dep.Name]; ok {
				target = reg.def.Name()
			}
			deps = append(deps, target.String())
		}
		if err := c.graph.Add(def.Name().String(), deps); err != nil {
			rollback()
			return err
		}
	}

	if c.metrics != nil {
		c.metrics.recordInstalled(len(definitions))
	}
	return nil
}

// startInstalled starts every just-installed service whose mode starts at
// install time. The first failure is returned; remaining services are
// still attempted.
func (c *Container) startInstalled(ctx context.Context, definitions []*ServiceDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, def := range definitions {
		if !def.InitialMode().startsAtInstall() {
			continue
		}
		if err := c.startLocked(ctx, def.Name()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StartService starts the named service, demand-starting its mandatory
// dependencies first. Starting an already-up service is a no-op.
func (c *Container) StartService(ctx context.Context, name ServiceName) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrContainerClosed
	}
	return c.startLocked(ctx, name)
}

// startLocked drives one service to the up state. Callers hold c.mu.
func (c *Container) startLocked(ctx context.Context, name ServiceName) error {
	reg, ok := c.registrations[name]
	if !ok {
		return StartError{Name: name, Cause: ErrServiceNotFound}
	}

	switch reg.state {
	case StateUp:
		return nil
	case StateStarting:
		// Unreachable for acyclic graphs; guards against overlapping
		// transitions all the same.
		return StartError{Name: reg.def.Name(), Cause: errors.New("service is already starting")}
	}

	if reg.def.InitialMode() == ModeNever {
		return StartError{Name: reg.def.Name(), Cause: ErrServiceNever}
	}

	started := time.Now()
	reg.state = StateStarting
	reg.failure = nil

	fail := func(cause error) error {
		c.uninjectLocked(reg)
		reg.state = StateDown
		reg.failure = StartError{Name: reg.def.Name(), Cause: cause}
		c.notifyFailed(reg, reg.failure)
		if c.metrics != nil {
			c.metrics.recordStart(reg.def.Name(), time.Since(started), reg.failure)
		}
		return reg.failure
	}

	// Resolve and inject dependencies in declaration order.
	for _, dep := range reg.def.Dependencies() {
		depReg, installed := c.registrations[dep.Name]
		if !installed {
			if dep.Optional {
				// Not installed: leave the targets untouched.
				continue
			}
			return fail(MissingDependencyError{Dependent: reg.def.Name(), Dependency: dep.Name})
		}

		if err := c.startLocked(ctx, depReg.def.Name()); err != nil {
			return fail(err)
		}

		depValue, err := depReg.instance.Value()
		if err != nil {
			return fail(err)
		}

		for _, target := range dep.Targets {
			if err := target.Inject(depValue); err != nil {
				return fail(err)
			}
			reg.injected = append(reg.injected, target)
		}
	}

	// Direct injections follow, also in declaration order.
	for _, injection := range reg.def.Injections() {
		value, err := injection.Value.Value()
		if err != nil {
			return fail(err)
		}
		if err := injection.Target.Inject(value); err != nil {
			return fail(err)
		}
		reg.injected = append(reg.injected, injection.Target)
	}

	// The service instance itself may be a lazy value.
	instance, err := reg.def.Service().Value()
	if err != nil {
		return fail(err)
	}
	if instance == nil {
		return fail(ErrServiceNil)
	}
	reg.instance = instance

	c.notifyStarting(reg)
	if err := instance.Start(ctx); err != nil {
		return fail(err)
	}

	reg.state = StateUp
	c.notifyStarted(reg)
	if c.metrics != nil {
		c.metrics.recordStart(reg.def.Name(), time.Since(started), nil)
	}
	return nil
}

// StopService stops the named service and retracts its injections in
// reverse order. Stopping a service that is not up is a no-op. A failure
// reported by the service's Stop is returned as a *StopError, but the
// service is brought down and uninjected regardless.
func (c *Container) StopService(ctx context.Context, name ServiceName) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrContainerClosed
	}
	return c.stopLocked(ctx, name)
}

func (c *Container) stopLocked(ctx context.Context, name ServiceName) error {
	reg, ok := c.registrations[name]
	if !ok {
		return StopError{Name: name, Cause: ErrServiceNotFound}
	}
	if reg.state != StateUp {
		return nil
	}

	c.notifyStopping(reg)

	var result error
	if err := reg.instance.Stop(ctx); err != nil {
		result = StopError{Name: reg.def.Name(), Cause: err}
	}

	c.uninjectLocked(reg)
	reg.state = StateDown
	reg.instance = nil
	c.notifyStopped(reg)
	if c.metrics != nil {
		c.metrics.recordStop(reg.def.Name())
	}
	return result
}

// uninjectLocked retracts performed injections in reverse order. Uninject
// tolerates never-injected targets, so the same teardown runs over fully-
// and partially-started services.
func (c *Container) uninjectLocked(reg *registration) {
	for i := len(reg.injected) - 1; i >= 0; i-- {
		reg.injected[i].Uninject()
	}
	reg.injected = nil
}

// RemoveService stops the named service if needed and removes it, with its
// aliases, from the container.
func (c *Container) RemoveService(ctx context.Context, name ServiceName) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrContainerClosed
	}

	reg, ok := c.registrations[name]
	if !ok {
		return ErrServiceNotFound
	}

	err := c.stopLocked(ctx, reg.def.Name())

	c.graph.Remove(reg.def.Name().String())
	delete(c.registrations, reg.def.Name())
	for _, alias := range reg.def.aliases {
		delete(c.registrations, alias)
	}
	c.notifyRemoved(reg)
	if c.metrics != nil {
		c.metrics.recordRemoved(reg.def.Name())
	}
	return err
}

// Close stops every running service, dependants before their dependencies,
// and marks the container closed. Stop failures are joined and returned;
// every service is still brought down.
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	var errs []error

	order, err := c.graph.TopologicalSort()
	if err != nil {
		errs = append(errs, err)
		order = nil
		for name, reg := range c.registrations {
			if name == reg.def.Name() {
				order = append(order, name.String())
			}
		}
	}

	// Topological order is dependencies-first; stop in reverse.
	for i := len(order) - 1; i >= 0; i-- {
		name := ServiceName(order[i])
		if _, ok := c.registrations[name]; !ok {
			// Placeholder node for an optional dependency that was never
			// installed.
			continue
		}
		if err := c.stopLocked(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}

	c.closed = true
	return errors.Join(errs...)
}

// State reports the lifecycle state of the named service.
func (c *Container) State(name ServiceName) (ServiceState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg, ok := c.registrations[name]
	if !ok {
		return StateDown, false
	}
	return reg.state, true
}

// Contains reports whether a service is installed under the given name or
// alias.
func (c *Container) Contains(name ServiceName) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.registrations[name]
	return ok
}

// Count returns the number of installed services. Aliases do not count
// separately.
func (c *Container) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for name, reg := range c.registrations {
		if name == reg.def.Name() {
			count++
		}
	}
	return count
}

// Definition returns the installed definition for the given name or alias.
func (c *Container) Definition(name ServiceName) (*ServiceDefinition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg, ok := c.registrations[name]
	if !ok {
		return nil, false
	}
	return reg.def, true
}

// Value resolves the provided value of a running service. It fails with
// ErrServiceNotFound for unknown names and ErrServiceDown for services
// that are not up.
func (c *Container) Value(name ServiceName) (any, error) {
	c.mu.Lock()
	reg, ok := c.registrations[name]
	if !ok {
		c.mu.Unlock()
		return nil, &ValueResolutionError{Op: "service " + name.String(), Cause: ErrServiceNotFound}
	}
	if reg.state != StateUp {
		c.mu.Unlock()
		return nil, &ValueResolutionError{Op: "service " + name.String(), Cause: ErrServiceDown}
	}
	instance := reg.instance
	c.mu.Unlock()

	return instance.Value()
}

// LastFailure returns the most recent start failure recorded for the named
// service, or nil.
func (c *Container) LastFailure(name ServiceName) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reg, ok := c.registrations[name]; ok {
		return reg.failure
	}
	return nil
}

func (c *Container) notifyStarting(reg *registration) {
	for _, l := range c.allListeners(reg) {
		l.ServiceStarting(reg.def.Name())
	}
}

func (c *Container) notifyStarted(reg *registration) {
	for _, l := range c.allListeners(reg) {
		l.ServiceStarted(reg.def.Name())
	}
}

func (c *Container) notifyFailed(reg *registration, err error) {
	for _, l := range c.allListeners(reg) {
		l.ServiceFailed(reg.def.Name(), err)
	}
}

func (c *Container) notifyStopping(reg *registration) {
	for _, l := range c.allListeners(reg) {
		l.ServiceStopping(reg.def.Name())
	}
}

func (c *Container) notifyStopped(reg *registration) {
	for _, l := range c.allListeners(reg) {
		l.ServiceStopped(reg.def.Name())
	}
}

func (c *Container) notifyRemoved(reg *registration) {
	for _, l := range c.allListeners(reg) {
		l.ServiceRemoved(reg.def.Name())
	}
}

// allListeners returns the service's own listeners followed by the
// container-wide ones, preserving declaration order within each group.
func (c *Container) allListeners(reg *registration) []ServiceListener {
	out := make([]ServiceListener, 0, len(reg.def.listeners)+len(c.listeners))
	out = append(out, reg.def.listeners...)
	out = append(out, c.listeners...)
	return out
}
